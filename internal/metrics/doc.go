// Package metrics provides Prometheus instrumentation for PixelPeek.
//
// All metrics are prefixed with "pixelpeek_".
//
// # Fetch Metrics
//
// Recorded by the fetcher through the Observer returned by NewFetchObserver:
//   - FetchesTotal: Counter of finished fetches by outcome kind
//   - FetchDuration: Histogram of time spent holding a permit, by outcome kind
//   - FetchesInFlight: Gauge of fetches currently holding a permit
//   - PermitWaitDuration: Histogram of time spent waiting for a permit
//
// # Batch Metrics
//
// Recorded by the batch runner:
//   - BatchesTotal: Counter of finished batches by terminal state
//   - BatchDuration: Histogram of batch wall-clock time
//   - BatchSize: Histogram of URLs per batch
//   - BatchesRunning: Gauge of batches in the Running state
//   - LastBatchTimestamp: Gauge of the last batch completion time
//
// # History Metrics
//
//   - HistoryWritesTotal: Counter of history store writes by status
//   - HistoryBatchesStored / HistoryOutcomesStored: Gauges refreshed by Collector
//
// # HTTP Metrics
//
// Recorded by the middleware in serve mode:
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
