package batch

import (
	"context"
	"io"
	"sync"
	"time"

	"pixelpeek/internal/database"
	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/logging"
	"pixelpeek/internal/metrics"
	"pixelpeek/internal/progress"
	"pixelpeek/internal/scheduler"
	"pixelpeek/internal/sink"

	"github.com/google/uuid"
)

// MessageFailedPrefix starts the terminal signal of a failed batch.
const MessageFailedPrefix = "Processing failed: "

// HistoryStore records finished batches. *database.Database satisfies it.
type HistoryStore interface {
	SaveBatch(ctx context.Context, rec database.BatchRecord, outcomes []fetcher.Outcome) error
}

// Options configures a Runner.
type Options struct {
	// MaxConcurrent is the permit pool size; <= 0 selects the scheduler default.
	MaxConcurrent int
	// BatchTimeout bounds a whole batch; zero means no deadline.
	BatchTimeout time.Duration
	Fetch        fetcher.Config
	History      HistoryStore
}

// Runner executes batches. It is safe for concurrent use; each call to Run
// or RunFile is an independent batch.
type Runner struct {
	opts Options

	// newWorker builds the worker for one batch; tests replace it.
	newWorker func() (scheduler.Worker, func())

	mu        sync.Mutex
	observers []progress.Observer
	snapshots []func(progress.Snapshot)
	last      State
}

// NewRunner creates a Runner. Each batch gets its own fetch client, torn
// down when the batch finishes.
func NewRunner(opts Options) *Runner {
	r := &Runner{opts: opts}
	r.newWorker = func() (scheduler.Worker, func()) {
		f := fetcher.New(r.opts.Fetch)
		return f, f.Close
	}
	return r
}

// Subscribe registers a (message, percent) observer for every future batch.
func (r *Runner) Subscribe(o progress.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// SubscribeSnapshots registers a snapshot observer for every future batch.
func (r *Runner) SubscribeSnapshots(fn func(progress.Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, fn)
}

// State returns the state of the most recently started batch, or Idle.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// MaxConcurrent returns the effective permit pool size.
func (r *Runner) MaxConcurrent() int {
	if r.opts.MaxConcurrent <= 0 {
		return scheduler.DefaultMaxConcurrent
	}
	return r.opts.MaxConcurrent
}

// RunFile creates path and runs urls into it. If the file cannot be created
// no fetch is started and a *FatalIOError is returned.
func (r *Runner) RunFile(ctx context.Context, urls []string, path string) (*Result, error) {
	ow, err := sink.Create(path)
	if err != nil {
		fatal := &FatalIOError{Op: "create output", Path: path, Err: err}
		r.failEarly(urls, fatal)
		return nil, fatal
	}
	return r.run(ctx, urls, ow, path)
}

// Run writes the CSV for urls to w. If w is an io.Closer it is closed when
// the batch finishes.
func (r *Runner) Run(ctx context.Context, urls []string, w io.Writer) (*Result, error) {
	ow, err := sink.NewOrderedWriter(w)
	if err != nil {
		fatal := &FatalIOError{Op: "write output", Err: err}
		r.failEarly(urls, fatal)
		return nil, fatal
	}
	return r.run(ctx, urls, ow, "")
}

func (r *Runner) run(ctx context.Context, urls []string, ow *sink.OrderedWriter, path string) (*Result, error) {
	result := &Result{
		ID:         uuid.NewString(),
		State:      Running,
		StartedAt:  time.Now(),
		OutputPath: path,
		Outcomes:   []fetcher.Outcome{},
	}
	r.setState(Running)

	metrics.BatchesRunning.Inc()
	defer metrics.BatchesRunning.Dec()

	reporter := r.newReporter(len(urls))

	if len(urls) == 0 {
		logging.Info("Batch %s: no URLs to process", result.ID)
		reporter.NoWork()
		if err := ow.Close(); err != nil {
			return r.finish(ctx, result, &FatalIOError{Op: "close output", Path: path, Err: err}, reporter)
		}
		return r.finish(ctx, result, nil, nil)
	}

	if r.opts.BatchTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, r.opts.BatchTimeout)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker, release := r.newWorker()
	defer release()

	sched := scheduler.New(worker, r.opts.MaxConcurrent)
	logging.Info("Batch %s: processing %d URLs with %d concurrent fetches", result.ID, len(urls), sched.MaxConcurrent())

	reporter.Start()
	run := sched.Start(ctx, urls)

	var fatal error
	for outcome := range run.Events() {
		reporter.OnOutcome(outcome)
		if fatal != nil {
			continue
		}
		if err := ow.Add(outcome); err != nil {
			fatal = &FatalIOError{Op: "write output", Path: path, Err: err}
			logging.Error("Batch %s: %v; cancelling remaining fetches", result.ID, fatal)
			cancel()
		}
	}

	result.Outcomes = run.Wait()
	result.Elapsed = run.Elapsed()

	if err := ow.Close(); err != nil && fatal == nil {
		fatal = &FatalIOError{Op: "close output", Path: path, Err: err}
	}
	result.Rows = ow.Rows()

	return r.finish(ctx, result, fatal, reporter)
}

// finish finalizes result, emits the terminal signal and records the batch.
func (r *Runner) finish(ctx context.Context, result *Result, fatal error, reporter *progress.Reporter) (*Result, error) {
	result.tally()

	if fatal != nil {
		result.State = Failed
		result.Err = fatal
		if reporter != nil {
			reporter.Finish(MessageFailedPrefix + fatal.Error())
		}
		logging.Error("Batch %s failed after %.2fs: %v", result.ID, result.Elapsed.Seconds(), fatal)
	} else {
		result.State = Completed
		if reporter != nil {
			reporter.Finish(progress.MessageComplete)
		}
		logging.Info("Batch %s complete: %d succeeded, %d failed, %d rows in %.2fs",
			result.ID, result.Succeeded, result.Failed, result.Rows, result.Elapsed.Seconds())
	}
	r.setState(result.State)

	metrics.BatchesTotal.WithLabelValues(result.State.String()).Inc()
	metrics.BatchDuration.Observe(result.Elapsed.Seconds())
	metrics.BatchSize.Observe(float64(len(result.Outcomes)))
	metrics.LastBatchTimestamp.SetToCurrentTime()

	if r.opts.History != nil {
		// the batch context may already be past its deadline
		saveCtx := context.WithoutCancel(ctx)
		if err := r.opts.History.SaveBatch(saveCtx, result.Record(), result.Outcomes); err != nil {
			logging.Warn("Batch %s: failed to save history: %v", result.ID, err)
		}
	}

	if fatal != nil {
		return result, fatal
	}
	return result, nil
}

// failEarly reports a batch that could not start.
func (r *Runner) failEarly(urls []string, fatal error) {
	r.setState(Failed)
	metrics.BatchesTotal.WithLabelValues(metrics.StateFailed).Inc()
	logging.Error("Batch of %d URLs not started: %v", len(urls), fatal)

	reporter := r.newReporter(len(urls))
	reporter.Finish(MessageFailedPrefix + fatal.Error())
}

func (r *Runner) newReporter(total int) *progress.Reporter {
	reporter := progress.NewReporter(total)

	r.mu.Lock()
	observers := append([]progress.Observer(nil), r.observers...)
	snapshots := append(([]func(progress.Snapshot))(nil), r.snapshots...)
	r.mu.Unlock()

	for _, o := range observers {
		if err := reporter.Subscribe(o); err != nil {
			logging.Warn("Failed to subscribe progress observer: %v", err)
		}
	}
	for _, fn := range snapshots {
		if err := reporter.SubscribeSnapshots(fn); err != nil {
			logging.Warn("Failed to subscribe snapshot observer: %v", err)
		}
	}
	return reporter
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()
}
