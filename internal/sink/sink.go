package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/filesystem"
	"pixelpeek/internal/logging"
)

// ErrClosed is returned by Add after Close.
var ErrClosed = errors.New("output writer closed")

// ErrorMarker fills the Width column of failed rows.
const ErrorMarker = "Error"

// Header is the first row of every output.
var Header = []string{"URL", "Width", "Height", "Mode", "Format"}

// Row renders one outcome. Failed outcomes carry the cause in the Height
// column and leave Mode and Format empty.
func Row(o fetcher.Outcome) []string {
	if !o.OK() {
		return []string{o.URL, ErrorMarker, o.Cause, "", ""}
	}
	return []string{
		o.URL,
		strconv.Itoa(o.Meta.Width),
		strconv.Itoa(o.Meta.Height),
		o.Meta.Mode,
		o.Meta.Format,
	}
}

// Write writes the header and one row per outcome, ordered by Index, and
// returns the number of data rows written.
func Write(w io.Writer, outcomes []fetcher.Outcome) (int, error) {
	sorted := slices.Clone(outcomes)
	slices.SortStableFunc(sorted, func(a, b fetcher.Outcome) int { return a.Index - b.Index })

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	rows := 0
	for _, o := range sorted {
		if err := cw.Write(Row(o)); err != nil {
			cw.Flush()
			return rows, fmt.Errorf("failed to write row %d: %w", o.Index, err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush output: %w", err)
	}
	return rows, nil
}

// OrderedWriter streams outcomes to CSV in index order regardless of the
// order they are added in. It is safe for concurrent use.
type OrderedWriter struct {
	mu      sync.Mutex
	cw      *csv.Writer
	closer  io.Closer
	next    int
	pending map[int]fetcher.Outcome
	rows    int
	err     error
	closed  bool
}

// NewOrderedWriter writes the header to w and returns a writer ready for
// outcomes starting at index 0. If w is an io.Closer it is closed by Close.
func NewOrderedWriter(w io.Writer) (*OrderedWriter, error) {
	ow := &OrderedWriter{
		cw:      csv.NewWriter(w),
		pending: make(map[int]fetcher.Outcome),
	}
	if c, ok := w.(io.Closer); ok {
		ow.closer = c
	}

	if err := ow.cw.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	ow.cw.Flush()
	if err := ow.cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return ow, nil
}

// Create opens path for writing (truncating it) and returns an OrderedWriter
// that owns the file.
func Create(path string) (*OrderedWriter, error) {
	file, err := filesystem.CreateWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	ow, err := NewOrderedWriter(file)
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			logging.Warn("failed to close output file %s: %v", path, closeErr)
		}
		return nil, err
	}
	return ow, nil
}

// Add buffers o and writes every row that is now contiguous with what has
// already been written. Duplicate or already-written indices are rejected.
func (ow *OrderedWriter) Add(o fetcher.Outcome) error {
	ow.mu.Lock()
	defer ow.mu.Unlock()

	if ow.closed {
		return ErrClosed
	}
	if ow.err != nil {
		return ow.err
	}
	if o.Index < ow.next {
		return fmt.Errorf("outcome %d already written", o.Index)
	}
	if _, dup := ow.pending[o.Index]; dup {
		return fmt.Errorf("outcome %d added twice", o.Index)
	}
	ow.pending[o.Index] = o

	wrote := false
	for {
		next, ok := ow.pending[ow.next]
		if !ok {
			break
		}
		if err := ow.cw.Write(Row(next)); err != nil {
			ow.err = fmt.Errorf("failed to write row %d: %w", next.Index, err)
			return ow.err
		}
		delete(ow.pending, ow.next)
		ow.next++
		ow.rows++
		wrote = true
	}

	if wrote {
		ow.cw.Flush()
		if err := ow.cw.Error(); err != nil {
			ow.err = fmt.Errorf("failed to flush output: %w", err)
			return ow.err
		}
	}
	return nil
}

// Rows returns the number of data rows written so far.
func (ow *OrderedWriter) Rows() int {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	return ow.rows
}

// Pending returns how many outcomes are buffered waiting for a gap to fill.
func (ow *OrderedWriter) Pending() int {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	return len(ow.pending)
}

// Close flushes and closes the underlying writer. Outcomes still waiting on
// a gap are dropped so the file stays a clean prefix of the input. Close is
// idempotent.
func (ow *OrderedWriter) Close() error {
	ow.mu.Lock()
	defer ow.mu.Unlock()

	if ow.closed {
		return nil
	}
	ow.closed = true

	if n := len(ow.pending); n > 0 {
		logging.Warn("Closing output with %d rows waiting on row %d", n, ow.next)
	}

	ow.cw.Flush()
	err := ow.cw.Error()
	if ow.closer != nil {
		if closeErr := ow.closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}
