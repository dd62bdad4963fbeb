package metrics

import "pixelpeek/internal/fetcher"

// Batch terminal states used as label values.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, kind := range []fetcher.Kind{fetcher.Success, fetcher.NetworkError, fetcher.DecodeError} {
		FetchesTotal.WithLabelValues(kind.String())
		FetchDuration.WithLabelValues(kind.String())
		HistoryOutcomesStored.WithLabelValues(kind.String())
	}

	for _, state := range []string{StateCompleted, StateFailed} {
		BatchesTotal.WithLabelValues(state)
	}

	for _, status := range []string{"success", "error"} {
		HistoryWritesTotal.WithLabelValues(status)
	}

	for _, op := range []string{"open", "create"} {
		FilesystemOpDuration.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
		for _, result := range []string{"attempt", "success", "failure"} {
			FilesystemRetriesTotal.WithLabelValues(op, result)
		}
	}
}
