// Package memory controls the Go runtime memory limit and applies memory
// backpressure in serve mode.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from MEMORY_LIMIT (bytes, usually from
// the Kubernetes Downward API) scaled by MEMORY_RATIO (default 0.85). An
// explicit GOMEMLIMIT takes precedence.
//
// [Monitor] samples heap usage. Once usage crosses the critical water mark
// it reports paused until usage falls back below the high water mark; the
// HTTP API refuses new batches while paused.
package memory
