package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch metrics
var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelpeek_fetches_total",
			Help: "Total number of finished image fetches",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixelpeek_fetch_duration_seconds",
			Help:    "Time spent fetching and decoding one image while holding a permit",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	FetchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixelpeek_fetches_in_flight",
			Help: "Number of fetches currently holding a permit",
		},
	)

	PermitWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pixelpeek_permit_wait_seconds",
			Help:    "Time a fetch waited for a concurrency permit",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
		},
	)
)

// Batch metrics
var (
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelpeek_batches_total",
			Help: "Total number of finished batches by terminal state",
		},
		[]string{"state"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pixelpeek_batch_duration_seconds",
			Help:    "Wall-clock duration of a batch",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pixelpeek_batch_urls",
			Help:    "Number of URLs submitted per batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	BatchesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixelpeek_batches_running",
			Help: "Number of batches currently running",
		},
	)

	LastBatchTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixelpeek_last_batch_timestamp",
			Help: "Unix timestamp of the last finished batch",
		},
	)
)

// History metrics
var (
	HistoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelpeek_history_writes_total",
			Help: "Total number of batch history writes",
		},
		[]string{"status"},
	)

	HistoryBatchesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixelpeek_history_batches",
			Help: "Number of batches stored in the history database",
		},
	)

	HistoryOutcomesStored = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pixelpeek_history_outcomes",
			Help: "Number of stored outcomes by kind",
		},
		[]string{"outcome"},
	)

	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelpeek_db_queries_total",
			Help: "Total number of history database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixelpeek_db_query_duration_seconds",
			Help:    "History database query duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelpeek_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixelpeek_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixelpeek_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixelpeek_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixelpeek_memory_paused",
			Help: "1 while new batches are refused due to memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixelpeek_filesystem_operation_duration_seconds",
			Help:    "Duration of input and output file operations, including retries",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelpeek_filesystem_retries_total",
			Help: "Filesystem retry events by operation and result (attempt, success, failure)",
		},
		[]string{"operation", "result"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelpeek_filesystem_stale_errors_total",
			Help: "Transient stale handle errors seen on file operations",
		},
		[]string{"operation"},
	)
)
