package handlers

import (
	"context"
	"io"
	"time"

	"pixelpeek/internal/batch"
	"pixelpeek/internal/database"
	"pixelpeek/internal/metrics"
)

// DefaultMaxURLs bounds the size of one submitted batch.
const DefaultMaxURLs = 10000

// BatchRunner runs one batch. *batch.Runner satisfies it.
type BatchRunner interface {
	Run(ctx context.Context, urls []string, w io.Writer) (*batch.Result, error)
}

// HistoryReader reads stored batches. *database.Database satisfies it.
type HistoryReader interface {
	ListBatches(ctx context.Context, limit int) ([]database.BatchRecord, error)
	GetBatch(ctx context.Context, id string) (*database.BatchDetail, error)
	GetStats() metrics.Stats
}

// PressureGauge reports memory backpressure. *memory.Monitor satisfies it.
type PressureGauge interface {
	IsPaused() bool
}

// Handlers serves the HTTP API.
type Handlers struct {
	runner  BatchRunner
	history HistoryReader
	memory  PressureGauge
	maxURLs int
	started time.Time
}

// New creates the API handlers. history and memory may be nil.
func New(runner BatchRunner, history HistoryReader, memory PressureGauge) *Handlers {
	return &Handlers{
		runner:  runner,
		history: history,
		memory:  memory,
		maxURLs: DefaultMaxURLs,
		started: time.Now(),
	}
}
