// Package source reads URL lists for the CLI.
package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"pixelpeek/internal/filesystem"
)

// Read returns the URLs in r, one per line. Lines containing a comma are
// parsed as CSV and contribute their first column. Blank lines, lines
// starting with '#' and a leading "url" header cell are skipped. Order is
// preserved and duplicates are kept.
func Read(r io.Reader) ([]string, error) {
	var urls []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		value := line
		if strings.Contains(line, ",") || strings.HasPrefix(line, `"`) {
			fields, err := csv.NewReader(strings.NewReader(line)).Read()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			value = strings.TrimSpace(fields[0])
		}

		if value == "" {
			continue
		}
		if len(urls) == 0 && strings.EqualFold(value, "url") {
			continue
		}
		urls = append(urls, value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

// ReadFile reads a URL list from path, or from stdin when path is "-".
func ReadFile(path string) ([]string, error) {
	if path == "-" {
		return Read(os.Stdin)
	}

	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer file.Close()

	return Read(file)
}
