package model

import "fmt"

// JobStatus is the lifecycle status of a job.
//
// A job enters as StatusNew or StatusExcluded (decided once at ingestion) and
// may then move only between StatusNew, StatusApplied and StatusArchived.
type JobStatus string

const (
	StatusNew      JobStatus = "new"
	StatusApplied  JobStatus = "applied"
	StatusArchived JobStatus = "archived"
	StatusExcluded JobStatus = "excluded_by_advanced_matching"
)

// CountedStatuses are the statuses shown as tabs with a counter, in tab order.
var CountedStatuses = []JobStatus{StatusNew, StatusApplied, StatusArchived}

// ParseStatus converts a raw string to a JobStatus.
func ParseStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case StatusNew, StatusApplied, StatusArchived, StatusExcluded:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsUserReachable reports whether a user action may move a job into (or out of) s.
func (s JobStatus) IsUserReachable() bool {
	switch s {
	case StatusNew, StatusApplied, StatusArchived:
		return true
	}
	return false
}

// CheckTransition validates a user-initiated move from one status to another.
// A move must change the status.
func CheckTransition(from, to JobStatus) error {
	if from == to || !from.IsUserReachable() || !to.IsUserReachable() {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	return nil
}
