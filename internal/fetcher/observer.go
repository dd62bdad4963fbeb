package fetcher

// Observer records fetch metrics. The implementation lives in the metrics
// package so fetcher does not depend on Prometheus.
type Observer interface {
	// ObservePermitWait records how long a worker waited for its permit.
	ObservePermitWait(seconds float64)
	// ObserveFetchStarted is called once a permit is held.
	ObserveFetchStarted()
	// ObserveFetchFinished is called when the permit is about to be released.
	ObserveFetchFinished(kind Kind, seconds float64)
}

// defaultObserver is set once at startup. Nil disables recording.
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

type nopObserver struct{}

func (nopObserver) ObservePermitWait(float64)          {}
func (nopObserver) ObserveFetchStarted()               {}
func (nopObserver) ObserveFetchFinished(Kind, float64) {}

func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
