package workers

import "runtime"

const (
	// fetchMultiplier is the fetches per CPU used for automatic sizing.
	// Fetch workers spend nearly all their time waiting on the network.
	fetchMultiplier = 4.0

	// MaxAutoFetch caps automatic sizing so large hosts don't open
	// hundreds of connections at once.
	MaxAutoFetch = 64
)

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound work,
// higher for work that mostly waits. The limit caps the result; use 0 for
// no limit. The result is never below 1.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForFetch returns the concurrent fetch count used when max_concurrent is
// configured as 0 (auto): 4 per CPU, capped at MaxAutoFetch.
func ForFetch() int {
	return Count(fetchMultiplier, MaxAutoFetch)
}

// Resolve returns configured when positive, otherwise ForFetch.
func Resolve(configured int) int {
	if configured > 0 {
		return configured
	}
	return ForFetch()
}
