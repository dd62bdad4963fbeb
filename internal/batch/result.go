package batch

import (
	"fmt"
	"time"

	"pixelpeek/internal/database"
	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/metrics"
)

// State is the lifecycle position of a batch.
type State int

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return metrics.StateCompleted
	case Failed:
		return metrics.StateFailed
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the finalized record of one batch.
type Result struct {
	ID         string
	State      State
	Outcomes   []fetcher.Outcome // input order
	Rows       int               // data rows written to the output
	StartedAt  time.Time
	Elapsed    time.Duration
	Succeeded  int
	Failed     int
	OutputPath string
	Err        error // set when State is Failed
}

// Record converts the result to its history summary.
func (r *Result) Record() database.BatchRecord {
	rec := database.BatchRecord{
		ID:             r.ID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.StartedAt.Add(r.Elapsed),
		ElapsedSeconds: r.Elapsed.Seconds(),
		Total:          len(r.Outcomes),
		Succeeded:      r.Succeeded,
		Failed:         r.Failed,
		State:          r.State.String(),
		OutputPath:     r.OutputPath,
	}
	if r.Err != nil {
		rec.Cause = r.Err.Error()
	}
	return rec
}

func (r *Result) tally() {
	r.Succeeded, r.Failed = 0, 0
	for _, o := range r.Outcomes {
		if o.OK() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}
