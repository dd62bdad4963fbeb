package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE", err: syscall.ESTALE, want: true},
		{name: "EINTR", err: syscall.EINTR, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleError(tt.err); got != tt.want {
				t.Errorf("isStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func fastConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "first attempt succeeds", wantCalls: 1},
		{name: "recovers after stale handles", failures: []error{syscall.ESTALE, syscall.ESTALE}, wantCalls: 3},
		{name: "non-retryable error", failures: []error{syscall.EACCES}, wantCalls: 1, wantErr: syscall.EACCES},
		{
			name:      "gives up after max retries",
			failures:  []error{syscall.ESTALE, syscall.ESTALE, syscall.ESTALE, syscall.ESTALE, syscall.ESTALE},
			wantCalls: 4,
			wantErr:   syscall.ESTALE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := withRetry("test", "/x", fastConfig(), func() (string, error) {
				calls++
				if calls <= len(tt.failures) {
					return "", tt.failures[calls-1]
				}
				return "ok", nil
			})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != "ok" {
				t.Errorf("got (%q, %v), want (ok, nil)", got, err)
			}
		})
	}
}

func TestCreateAndOpenWithRetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	file, err := CreateWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("CreateWithRetry: %v", err)
	}
	if _, err := file.WriteString("URL\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	file, err = OpenWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry: %v", err)
	}
	defer file.Close()

	buf := make([]byte, 16)
	n, _ := file.Read(buf)
	if string(buf[:n]) != "URL\n" {
		t.Errorf("content = %q, want %q", buf[:n], "URL\n")
	}
}

func TestOpenWithRetryMissingFile(t *testing.T) {
	start := time.Now()
	_, err := OpenWithRetry(filepath.Join(t.TempDir(), "missing"), DefaultRetryConfig())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	// ENOENT is not retried, so no backoff is spent
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("took %v, want an immediate failure", elapsed)
	}
}

func TestCreateWithRetryMissingDir(t *testing.T) {
	_, err := CreateWithRetry(filepath.Join(t.TempDir(), "nope", "out.csv"), DefaultRetryConfig())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}
