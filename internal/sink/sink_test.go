package sink

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/imagemeta"
)

func sampleOutcomes() []fetcher.Outcome {
	return []fetcher.Outcome{
		fetcher.Succeeded(0, "https://a.test/x.png", imagemeta.Metadata{Width: 200, Height: 100, Mode: "RGB", Format: "PNG"}),
		fetcher.NetworkFailure(1, "https://a.test/missing.png", 404, fetcher.StatusCause(404)),
		fetcher.DecodeFailure(2, "https://a.test/page", "decode failed: image: unknown format"),
		fetcher.NetworkFailure(3, "https://down.test/y.png", 0, "dial tcp: connection refused"),
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v\n%s", err, data)
	}
	return records
}

func TestRow(t *testing.T) {
	outcomes := sampleOutcomes()
	tests := []struct {
		name     string
		outcome  fetcher.Outcome
		expected []string
	}{
		{"success", outcomes[0], []string{"https://a.test/x.png", "200", "100", "RGB", "PNG"}},
		{"http error", outcomes[1], []string{"https://a.test/missing.png", "Error", "Failed to fetch (HTTP 404)", "", ""}},
		{"decode error", outcomes[2], []string{"https://a.test/page", "Error", "decode failed: image: unknown format", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Row(tt.outcome)
			if strings.Join(got, "|") != strings.Join(tt.expected, "|") {
				t.Errorf("Row() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWriteOrdersByIndex(t *testing.T) {
	outcomes := sampleOutcomes()
	shuffled := []fetcher.Outcome{outcomes[3], outcomes[1], outcomes[0], outcomes[2]}

	var buf bytes.Buffer
	rows, err := Write(&buf, shuffled)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if rows != 4 {
		t.Errorf("rows = %d, want 4", rows)
	}

	records := readCSV(t, buf.Bytes())
	if len(records) != 5 {
		t.Fatalf("got %d records, want header + 4", len(records))
	}
	if strings.Join(records[0], ",") != "URL,Width,Height,Mode,Format" {
		t.Errorf("header = %v", records[0])
	}
	for i, o := range outcomes {
		if records[i+1][0] != o.URL {
			t.Errorf("row %d URL = %q, want %q", i, records[i+1][0], o.URL)
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	rows, err := Write(&buf, nil)
	if err != nil || rows != 0 {
		t.Fatalf("Write(nil) = (%d, %v), want (0, nil)", rows, err)
	}
	if buf.String() != "URL,Width,Height,Mode,Format\n" {
		t.Errorf("output = %q, want header only", buf.String())
	}
}

func TestWriteQuotesCauses(t *testing.T) {
	o := fetcher.NetworkFailure(0, "https://a.test/q", 0, `Get "https://a.test/q": EOF, retry later`)
	var buf bytes.Buffer
	if _, err := Write(&buf, []fetcher.Outcome{o}); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, buf.Bytes())
	if records[1][2] != o.Cause {
		t.Errorf("cause round-tripped as %q, want %q", records[1][2], o.Cause)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteReportsIOError(t *testing.T) {
	if _, err := Write(failingWriter{}, sampleOutcomes()); err == nil {
		t.Error("Write() to failing writer expected error")
	}
	if _, err := NewOrderedWriter(failingWriter{}); err == nil {
		t.Error("NewOrderedWriter() on failing writer expected error")
	}
}

func TestOrderedWriterBuffersUntilContiguous(t *testing.T) {
	var buf bytes.Buffer
	ow, err := NewOrderedWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	outcomes := sampleOutcomes()

	if err := ow.Add(outcomes[2]); err != nil {
		t.Fatal(err)
	}
	if err := ow.Add(outcomes[1]); err != nil {
		t.Fatal(err)
	}
	if ow.Rows() != 0 || ow.Pending() != 2 {
		t.Errorf("before index 0: rows=%d pending=%d, want 0/2", ow.Rows(), ow.Pending())
	}

	if err := ow.Add(outcomes[0]); err != nil {
		t.Fatal(err)
	}
	if ow.Rows() != 3 || ow.Pending() != 0 {
		t.Errorf("after index 0: rows=%d pending=%d, want 3/0", ow.Rows(), ow.Pending())
	}

	if err := ow.Add(outcomes[0]); err == nil {
		t.Error("re-adding a written index should fail")
	}
	if err := ow.Add(outcomes[3]); err != nil {
		t.Fatal(err)
	}
	if err := ow.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := ow.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := ow.Add(outcomes[3]); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after Close error = %v, want ErrClosed", err)
	}

	var direct bytes.Buffer
	if _, err := Write(&direct, outcomes); err != nil {
		t.Fatal(err)
	}
	if buf.String() != direct.String() {
		t.Errorf("streamed output differs from batch output:\n%s\nvs\n%s", buf.String(), direct.String())
	}
}

func TestOrderedWriterConcurrentAdds(t *testing.T) {
	var buf bytes.Buffer
	ow, err := NewOrderedWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}

	const n = 200
	order := rand.Perm(n)
	var wg sync.WaitGroup
	for _, idx := range order {
		idx := idx
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := fetcher.Succeeded(idx, "https://a.test/"+strconv.Itoa(idx), imagemeta.Metadata{Width: idx + 1, Height: 1, Mode: "L", Format: "GIF"})
			if err := ow.Add(o); err != nil {
				t.Errorf("Add(%d) error = %v", idx, err)
			}
		}()
	}
	wg.Wait()
	if err := ow.Close(); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, buf.Bytes())
	if len(records) != n+1 {
		t.Fatalf("got %d records, want %d", len(records), n+1)
	}
	for i := 1; i <= n; i++ {
		if records[i][1] != strconv.Itoa(i) {
			t.Fatalf("row %d width = %q, want %d", i-1, records[i][1], i)
		}
	}
}

func TestCreateLeavesPrefixOnInterruptedBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	ow, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	outcomes := sampleOutcomes()

	// index 1 never arrives
	for _, o := range []fetcher.Outcome{outcomes[0], outcomes[2], outcomes[3]} {
		if err := ow.Add(o); err != nil {
			t.Fatal(err)
		}
	}
	if err := ow.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, data)
	if len(records) != 2 || records[1][0] != outcomes[0].URL {
		t.Errorf("records = %v, want header + first row only", records)
	}
}

func TestCreateUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")
	if _, err := Create(path); err == nil {
		t.Error("Create() in missing directory expected error")
	}
}
