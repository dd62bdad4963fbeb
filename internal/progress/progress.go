package progress

import (
	"fmt"
	"math"
	"sync"
	"time"

	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/logging"

	evbus "github.com/asaskevich/EventBus"
)

// TopicSnapshot is the event bus topic snapshots are published on.
const TopicSnapshot = "progress:snapshot"

// Messages for the lifecycle signals.
const (
	MessageStart    = "Processing URLs..."
	MessageComplete = "Processing complete."
	MessageNoWork   = "No URLs to process."
)

// Snapshot is the derived progress state after one event.
type Snapshot struct {
	Completed          int
	Total              int
	Percent            float64
	EstimatedRemaining float64 // seconds; meaningful only if EstimateKnown
	EstimateKnown      bool
	Message            string
	Last               *fetcher.Outcome // outcome that produced this snapshot, if any
}

// Observer is the progress callback shape used by UIs and loggers.
type Observer func(message string, percent float64)

// Compute derives a snapshot from the completion count and elapsed time.
// It performs no I/O. With nothing completed the estimate is unknown.
func Compute(completed, total int, elapsed time.Duration) Snapshot {
	s := Snapshot{Completed: completed, Total: total}
	if total <= 0 {
		s.Percent = 100
		s.Message = formatMessage(s)
		return s
	}

	s.Percent = 100 * float64(completed) / float64(total)
	if completed > 0 {
		seconds := elapsed.Seconds()
		estimatedTotal := seconds / float64(completed) * float64(total)
		s.EstimatedRemaining = math.Max(0, estimatedTotal-seconds)
		s.EstimateKnown = true
	}
	s.Message = formatMessage(s)
	return s
}

func formatMessage(s Snapshot) string {
	if !s.EstimateKnown {
		return fmt.Sprintf("Progress: %.2f%% | Est. Time Remaining: unknown", s.Percent)
	}
	return fmt.Sprintf("Progress: %.2f%% | Est. Time Remaining: %.2f seconds", s.Percent, s.EstimatedRemaining)
}

// Reporter tracks completions for one batch and publishes snapshots.
type Reporter struct {
	bus evbus.Bus
	now func() time.Time

	mu          sync.Mutex
	total       int
	completed   int
	start       time.Time
	lastPercent float64
}

// NewReporter creates a reporter for a batch of total items.
func NewReporter(total int) *Reporter {
	return &Reporter{
		bus:   evbus.New(),
		now:   time.Now,
		total: total,
		start: time.Now(),
	}
}

// Subscribe registers a (message, percent) observer.
func (r *Reporter) Subscribe(o Observer) error {
	return r.SubscribeSnapshots(func(s Snapshot) {
		o(s.Message, s.Percent)
	})
}

// SubscribeSnapshots registers an observer of full snapshots.
func (r *Reporter) SubscribeSnapshots(fn func(Snapshot)) error {
	return r.bus.Subscribe(TopicSnapshot, func(s Snapshot) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Warn("Progress observer panicked: %v", rec)
			}
		}()
		fn(s)
	})
}

// Start marks the beginning of processing and emits a 0% signal.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.start = r.now()
	r.completed = 0
	r.lastPercent = 0
	s := Snapshot{Total: r.total, Message: MessageStart}
	r.mu.Unlock()

	r.publish(s)
}

// OnOutcome records one completion and publishes the resulting snapshot.
func (r *Reporter) OnOutcome(outcome fetcher.Outcome) Snapshot {
	r.mu.Lock()
	if r.completed < r.total {
		r.completed++
	}
	s := Compute(r.completed, r.total, r.now().Sub(r.start))
	if s.Percent < r.lastPercent {
		s.Percent = r.lastPercent
	}
	r.lastPercent = s.Percent
	r.mu.Unlock()

	s.Last = &outcome
	r.publish(s)
	return s
}

// Finish emits the terminal 100% signal with message.
func (r *Reporter) Finish(message string) {
	r.mu.Lock()
	r.lastPercent = 100
	s := Snapshot{
		Completed:     r.completed,
		Total:         r.total,
		Percent:       100,
		EstimateKnown: true,
		Message:       message,
	}
	r.mu.Unlock()

	r.publish(s)
}

// NoWork emits the single signal used for an empty batch.
func (r *Reporter) NoWork() {
	r.Finish(MessageNoWork)
}

// Elapsed returns the time since Start.
func (r *Reporter) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Sub(r.start)
}

func (r *Reporter) publish(s Snapshot) {
	r.bus.Publish(TopicSnapshot, s)
}
