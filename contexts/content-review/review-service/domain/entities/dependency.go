package entities

import "time"

// SubmissionDependency is a directed edge: the dependent submission may not
// leave not_started until the base submission reaches an accepted state.
// Chains first_draft -> final_draft -> posting, with final_draft skippable
// when the first draft never needed revision.
type SubmissionDependency struct {
	DependencyID string
	DependentID  string
	BaseID       string
	CreatedAt    time.Time
}
