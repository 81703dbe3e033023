package entities

import (
	"strings"
	"time"
)

type MediaKind string

const (
	MediaKindVideo      MediaKind = "video"
	MediaKindPhoto      MediaKind = "photo"
	MediaKindRawFootage MediaKind = "raw_footage"
)

type MediaItemStatus string

const (
	MediaStatusPending           MediaItemStatus = "pending"
	MediaStatusSentToClient      MediaItemStatus = "sent_to_client"
	MediaStatusRevisionRequested MediaItemStatus = "revision_requested"
	MediaStatusClientFeedback    MediaItemStatus = "client_feedback"
	MediaStatusApproved          MediaItemStatus = "approved"
	MediaStatusRejected          MediaItemStatus = "rejected"
)

// Flagged reports whether the item still needs creator work before the
// submission can move toward approval.
func (s MediaItemStatus) Flagged() bool {
	return s == MediaStatusRevisionRequested || s == MediaStatusClientFeedback
}

// Settled reports whether a reviewer or client has rendered a verdict on the
// item, in either direction.
func (s MediaItemStatus) Settled() bool {
	switch s {
	case MediaStatusSentToClient, MediaStatusRevisionRequested,
		MediaStatusClientFeedback, MediaStatusApproved, MediaStatusRejected:
		return true
	}
	return false
}

// MediaItem is one uploaded asset belonging to exactly one submission.
// URL stays empty until ingestion completes. RevisionCount survives
// resubmission because a replace keeps the row identity so feedback
// references remain valid.
type MediaItem struct {
	MediaID       string
	SubmissionID  string
	Kind          MediaKind
	URL           string
	Status        MediaItemStatus
	FeedbackNote  string
	ReasonCodes   []string
	RevisionCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (m MediaItem) ValidateCreate() bool {
	return strings.TrimSpace(m.MediaID) != "" &&
		strings.TrimSpace(m.SubmissionID) != "" &&
		m.Kind != ""
}
