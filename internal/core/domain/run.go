package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// Event is the kind of trigger that started the pipeline run.
type Event string

const (
	// EventPush is a run triggered by a branch push.
	EventPush Event = "push"
	// EventPullRequest is a run triggered by a pull request.
	EventPullRequest Event = "pull-request"
	// EventManual is a manually dispatched run.
	EventManual Event = "manual"
	// EventWorkflowRun is a run triggered by the completion of an upstream workflow.
	EventWorkflowRun Event = "workflow-run"
)

// ParseEvent validates an event name from the CLI or environment.
func ParseEvent(s string) (Event, error) {
	switch Event(s) {
	case EventPush, EventPullRequest, EventManual, EventWorkflowRun:
		return Event(s), nil
	case "":
		return EventManual, nil
	default:
		return "", zerr.With(zerr.New("unknown event"), "event", s)
	}
}

// RunContext carries per-run identity shared by every job.
type RunContext struct {
	ID    string
	Event Event
	Ref   string

	// Root is the working tree the run operates on.
	Root string

	// Force bypasses cache lookups and rebuilds every unit.
	Force bool
}

// UnitResult records the outcome of materializing one build unit.
type UnitResult struct {
	Unit     InternedString
	Key      CacheKey
	CacheHit bool
	Duration time.Duration
}

// JobResult records the terminal state of one job.
type JobResult struct {
	Job      InternedString
	Status   Status
	Units    []UnitResult
	Err      error
	Duration time.Duration
}

// RunSummary is the fixed-format payload handed to the notifier and printed
// at the end of a run.
type RunSummary struct {
	Pipeline   string
	RunID      string
	Event      Event
	Ref        string
	Conclusion Status
	FailedJobs []string
	StartedAt  time.Time
	Duration   time.Duration
}

// Failed reports whether the overall run concluded in failure.
func (s *RunSummary) Failed() bool {
	return s.Conclusion == StatusFailed
}
