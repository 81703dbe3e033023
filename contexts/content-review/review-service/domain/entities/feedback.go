package entities

import (
	"strings"
	"time"
)

type FeedbackAuthorRole string

const (
	FeedbackAuthorReviewer FeedbackAuthorRole = "reviewer"
	FeedbackAuthorClient   FeedbackAuthorRole = "client"
)

// Feedback is an immutable note attached to a submission. Only the author
// may amend the body after creation (typo correction); status history is
// tracked through audits, never here.
type Feedback struct {
	FeedbackID       string
	SubmissionID     string
	AuthorID         string
	AuthorRole       FeedbackAuthorRole
	Body             string
	MediaIDs         []string
	ReasonCodes      []string
	VisibleToCreator bool
	CreatedAt        time.Time
	EditedAt         *time.Time
}

func (f Feedback) ValidateCreate() bool {
	return strings.TrimSpace(f.FeedbackID) != "" &&
		strings.TrimSpace(f.SubmissionID) != "" &&
		strings.TrimSpace(f.AuthorID) != "" &&
		strings.TrimSpace(f.Body) != ""
}
