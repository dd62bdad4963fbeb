package source

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "one per line",
			input: "https://a.test/1.png\nhttps://a.test/2.png\n",
			want:  []string{"https://a.test/1.png", "https://a.test/2.png"},
		},
		{
			name:  "blank lines and comments",
			input: "\n# images\nhttps://a.test/1.png\n\n   \n#https://skipped.test\nhttps://a.test/2.png",
			want:  []string{"https://a.test/1.png", "https://a.test/2.png"},
		},
		{
			name:  "csv first column with header",
			input: "URL,Note\nhttps://a.test/1.png,first\n\"https://a.test/2.png?a=1,2\",second\n",
			want:  []string{"https://a.test/1.png", "https://a.test/2.png?a=1,2"},
		},
		{
			name:  "duplicates kept in order",
			input: "https://a.test/x.png\nhttps://a.test/y.png\nhttps://a.test/x.png\n",
			want:  []string{"https://a.test/x.png", "https://a.test/y.png", "https://a.test/x.png"},
		},
		{
			name:  "crlf and bom",
			input: "\ufeffhttps://a.test/1.png\r\nhttps://a.test/2.png\r\n",
			want:  []string{"https://a.test/1.png", "https://a.test/2.png"},
		},
		{
			name:  "empty first column skipped",
			input: ",orphan\nhttps://a.test/1.png\n",
			want:  []string{"https://a.test/1.png"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadMalformedCSV(t *testing.T) {
	_, err := Read(strings.NewReader("https://a.test/1.png\n\"unterminated,quote\n"))
	if err == nil {
		t.Fatal("Read() should fail on malformed CSV")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name the line", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("https://a.test/1.png\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(got) != 1 || got[0] != "https://a.test/1.png" {
		t.Errorf("ReadFile() = %q", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("ReadFile() should fail for a missing file")
	}
}
