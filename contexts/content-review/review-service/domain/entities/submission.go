package entities

import (
	"strings"
	"time"
)

type SubmissionKind string

const (
	SubmissionKindAgreement  SubmissionKind = "agreement"
	SubmissionKindFirstDraft SubmissionKind = "first_draft"
	SubmissionKindFinalDraft SubmissionKind = "final_draft"
	SubmissionKindPosting    SubmissionKind = "posting"
	SubmissionKindVideoUnit  SubmissionKind = "video_unit"
	SubmissionKindPhotoUnit  SubmissionKind = "photo_unit"
	SubmissionKindRawFootage SubmissionKind = "raw_footage_unit"
)

// DraftLike reports whether media accounting for this kind spans every
// sibling submission of the same creator and campaign. Campaigns may split
// one logical draft into many submission rows created incrementally.
func (k SubmissionKind) DraftLike() bool {
	switch k {
	case SubmissionKindFirstDraft, SubmissionKindFinalDraft:
		return true
	}
	return false
}

type SubmissionStatus string

const (
	SubmissionStatusNotStarted      SubmissionStatus = "not_started"
	SubmissionStatusInProgress      SubmissionStatus = "in_progress"
	SubmissionStatusPendingReview   SubmissionStatus = "pending_review"
	SubmissionStatusSentToClient    SubmissionStatus = "sent_to_client"
	SubmissionStatusChangesRequired SubmissionStatus = "changes_required"
	SubmissionStatusClientFeedback  SubmissionStatus = "client_feedback"
	SubmissionStatusClientApproved  SubmissionStatus = "client_approved"
	SubmissionStatusApproved        SubmissionStatus = "approved"
	SubmissionStatusCompleted       SubmissionStatus = "completed"
	SubmissionStatusPosted          SubmissionStatus = "posted"
	SubmissionStatusWithdrawn       SubmissionStatus = "withdrawn"
	SubmissionStatusRejected        SubmissionStatus = "rejected"
)

// Terminal reports whether the status is absorbing: no review action or
// reconcile pass may move the submission out of it.
func (s SubmissionStatus) Terminal() bool {
	switch s {
	case SubmissionStatusCompleted, SubmissionStatusPosted,
		SubmissionStatusWithdrawn, SubmissionStatusRejected:
		return true
	}
	return false
}

// Accepted reports whether the status satisfies a dependency edge, allowing
// the dependent submission to activate.
func (s SubmissionStatus) Accepted() bool {
	switch s {
	case SubmissionStatusClientApproved, SubmissionStatusApproved,
		SubmissionStatusCompleted, SubmissionStatusPosted:
		return true
	}
	return false
}

// AcceptsUploads reports whether a creator may attach new content while the
// submission is in this status.
func (s SubmissionStatus) AcceptsUploads() bool {
	switch s {
	case SubmissionStatusNotStarted, SubmissionStatusInProgress,
		SubmissionStatusChangesRequired:
		return true
	}
	return false
}

// Submission is one deliverable obligation for one creator in one campaign.
// Status is a reconciled cache of the media item statuses, recomputable at
// any time; Version guards the read-compute-write cycle against lost updates.
type Submission struct {
	SubmissionID string
	CampaignID   string
	CreatorID    string
	Kind         SubmissionKind
	Status       SubmissionStatus
	Caption      string
	RawFileLink  string
	DueDate      *time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	WithdrawnAt  *time.Time
}

func (s Submission) ValidateCreate() bool {
	return strings.TrimSpace(s.SubmissionID) != "" &&
		strings.TrimSpace(s.CampaignID) != "" &&
		strings.TrimSpace(s.CreatorID) != "" &&
		s.Kind != ""
}

// SubmissionAudit records one status transition for debuggability.
type SubmissionAudit struct {
	AuditID      string
	SubmissionID string
	OldStatus    SubmissionStatus
	NewStatus    SubmissionStatus
	ActorID      string
	ActorRole    string
	Reason       string
	CreatedAt    time.Time
}
