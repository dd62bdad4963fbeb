package metrics

import (
	"time"

	"pixelpeek/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds history totals.
type Stats struct {
	TotalBatches int
	// OutcomesByKind is keyed by fetcher.Kind.String().
	OutcomesByKind map[string]int
}

// Collector periodically refreshes the history gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	HistoryBatchesStored.Set(float64(stats.TotalBatches))
	for kind, count := range stats.OutcomesByKind {
		HistoryOutcomesStored.WithLabelValues(kind).Set(float64(count))
	}

	logging.Debug("Metrics collected: batches=%d, outcomes=%v", stats.TotalBatches, stats.OutcomesByKind)
}
