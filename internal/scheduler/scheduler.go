package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/logging"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent is the permit pool size when none is configured.
const DefaultMaxConcurrent = 10

// Worker processes one URL while holding a permit from permits.
// *fetcher.Fetcher is the production implementation.
type Worker interface {
	Fetch(ctx context.Context, permits fetcher.Permits, index int, url string) fetcher.Outcome
}

// Scheduler launches one Worker call per URL.
type Scheduler struct {
	worker        Worker
	maxConcurrent int
}

// New creates a Scheduler. maxConcurrent <= 0 selects DefaultMaxConcurrent.
func New(worker Worker, maxConcurrent int) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Scheduler{worker: worker, maxConcurrent: maxConcurrent}
}

// MaxConcurrent returns the permit pool size.
func (s *Scheduler) MaxConcurrent() int {
	return s.maxConcurrent
}

// Run is one in-progress execution over a URL list.
type Run struct {
	total    int
	events   chan fetcher.Outcome
	outcomes []fetcher.Outcome
	done     chan struct{}
	started  time.Time
	elapsed  time.Duration
}

// Start launches all workers and returns immediately. Cancelling ctx makes
// workers that have not finished resolve to timeout/cancel outcomes; Start
// never abandons a task, so Wait always yields len(urls) outcomes.
func (s *Scheduler) Start(ctx context.Context, urls []string) *Run {
	run := &Run{
		total:    len(urls),
		events:   make(chan fetcher.Outcome, len(urls)),
		outcomes: make([]fetcher.Outcome, len(urls)),
		done:     make(chan struct{}),
		started:  time.Now(),
	}

	if len(urls) == 0 {
		close(run.events)
		close(run.done)
		return run
	}

	permits := semaphore.NewWeighted(int64(s.maxConcurrent))
	logging.Debug("Scheduling %d URLs with %d permits", len(urls), s.maxConcurrent)

	var wg sync.WaitGroup
	for i, url := range urls {
		i, url := i, url
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := s.process(ctx, permits, i, url)
			// each task owns slot i exclusively
			run.outcomes[i] = outcome
			run.events <- outcome
		}()
	}

	go func() {
		wg.Wait()
		run.elapsed = time.Since(run.started)
		close(run.events)
		close(run.done)
	}()

	return run
}

func (s *Scheduler) process(ctx context.Context, permits fetcher.Permits, index int, url string) (outcome fetcher.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Worker panicked on #%d %s: %v", index, url, r)
			outcome = fetcher.NetworkFailure(index, url, 0, fmt.Sprintf("internal error: %v", r))
		}
	}()

	outcome = s.worker.Fetch(ctx, permits, index, url)
	outcome.Index = index
	outcome.URL = url
	return outcome
}

// Collect runs urls to completion and returns the outcomes in input order.
func (s *Scheduler) Collect(ctx context.Context, urls []string) []fetcher.Outcome {
	return s.Start(ctx, urls).Wait()
}

// Total returns the number of URLs in the run.
func (r *Run) Total() int {
	return r.total
}

// Started returns when the run was launched.
func (r *Run) Started() time.Time {
	return r.started
}

// Events yields each outcome as soon as it is produced, in completion
// order. The channel is buffered for the whole run, so an absent consumer
// never stalls workers, and it is closed after the last outcome.
func (r *Run) Events() <-chan fetcher.Outcome {
	return r.events
}

// Done is closed once every task has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until every task has finished and returns the outcomes
// ordered by input index.
func (r *Run) Wait() []fetcher.Outcome {
	<-r.done
	out := make([]fetcher.Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Elapsed returns the wall-clock duration of the run. It is zero until the
// run is done and always zero for an empty run.
func (r *Run) Elapsed() time.Duration {
	select {
	case <-r.done:
		return r.elapsed
	default:
		return 0
	}
}
