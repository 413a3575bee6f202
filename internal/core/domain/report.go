package domain

import "time"

// OutcomeStatus is the terminal state of one object type's extraction.
type OutcomeStatus string

const (
	// OutcomePending means extraction has not finished.
	OutcomePending OutcomeStatus = "pending"
	// OutcomeSucceeded means every page was retrieved.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomePartial means every page was retrieved but some records were skipped.
	OutcomePartial OutcomeStatus = "partial"
	// OutcomeFailed means the stream ended early on an error.
	OutcomeFailed OutcomeStatus = "failed"
)

// Complete reports whether every page of the stream was retrieved, so a
// replace load may apply it.
func (s OutcomeStatus) Complete() bool {
	return s == OutcomeSucceeded || s == OutcomePartial
}

// ObjectTypeOutcome records how extraction of one object type ended.
type ObjectTypeOutcome struct {
	Stream     StreamDescriptor
	Status     OutcomeStatus
	Emitted    int
	Skipped    int
	Pages      int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the object type took.
func (o ObjectTypeOutcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// RunReport collects per-object-type outcomes for one extraction run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []ObjectTypeOutcome
}

// Failed reports whether any object type failed.
func (r *RunReport) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			return true
		}
	}
	return false
}

// TotalEmitted returns the number of records emitted across all object types.
func (r *RunReport) TotalEmitted() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Emitted
	}
	return total
}
