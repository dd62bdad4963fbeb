package metrics

import "pixelpeek/internal/fetcher"

// fetchObserver implements fetcher.Observer using the Prometheus metrics
// declared in this package.
type fetchObserver struct{}

// NewFetchObserver creates an observer that records fetch metrics.
// Register it with fetcher.SetObserver at startup.
func NewFetchObserver() fetcher.Observer {
	return &fetchObserver{}
}

func (o *fetchObserver) ObservePermitWait(seconds float64) {
	PermitWaitDuration.Observe(seconds)
}

func (o *fetchObserver) ObserveFetchStarted() {
	FetchesInFlight.Inc()
}

func (o *fetchObserver) ObserveFetchFinished(kind fetcher.Kind, seconds float64) {
	FetchesInFlight.Dec()
	FetchesTotal.WithLabelValues(kind.String()).Inc()
	FetchDuration.WithLabelValues(kind.String()).Observe(seconds)
}
