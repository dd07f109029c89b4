package domain

import "strings"

// Status represents the lifecycle state of a job or build unit.
type Status string

const (
	// StatusPending indicates the job is waiting for dependencies or scheduling.
	StatusPending Status = "pending"
	// StatusRunning indicates the job is currently executing.
	StatusRunning Status = "running"
	// StatusCompleted indicates the job executed successfully.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the job execution failed.
	StatusFailed Status = "failed"
	// StatusCached indicates the work was skipped because a valid cache entry was found.
	StatusCached Status = "cached"
	// StatusSkipped indicates the job was skipped because its run condition was not met.
	StatusSkipped Status = "skipped"
)

// IsTerminal checks if a status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCached, StatusSkipped:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the status counts as a success for dependency
// gating purposes.
func (s Status) Succeeded() bool {
	return s == StatusCompleted || s == StatusCached || s == StatusSkipped
}

// NormalizeStatus converts a string to a Status, defaulting to pending if unknown.
func NormalizeStatus(s string) Status {
	switch strings.ToLower(s) {
	case string(StatusRunning):
		return StatusRunning
	case string(StatusCompleted):
		return StatusCompleted
	case string(StatusFailed):
		return StatusFailed
	case string(StatusCached):
		return StatusCached
	case string(StatusSkipped):
		return StatusSkipped
	default:
		return StatusPending
	}
}
