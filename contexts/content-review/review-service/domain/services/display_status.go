package services

import (
	"atelier/contexts/content-review/review-service/domain/entities"
)

type ViewerRole string

const (
	RoleCreator  ViewerRole = "creator"
	RoleReviewer ViewerRole = "reviewer"
	RoleClient   ViewerRole = "client"
)

// DisplayStatus maps the stored submission status to what one role should
// see. It is a pure projection, never persisted, so the stored enum stays
// small while each audience gets its own vocabulary: creators must not see
// client-side intermediate states, clients must not see the internal
// revision loop.
func DisplayStatus(stored entities.SubmissionStatus, role ViewerRole, origin entities.CampaignOrigin) string {
	switch role {
	case RoleCreator:
		switch stored {
		case entities.SubmissionStatusPendingReview, entities.SubmissionStatusSentToClient,
			entities.SubmissionStatusClientFeedback:
			// Anything between upload and a creator-facing verdict reads as
			// under review.
			return "in_review"
		case entities.SubmissionStatusClientApproved:
			return "approved"
		}
	case RoleClient:
		switch stored {
		case entities.SubmissionStatusNotStarted, entities.SubmissionStatusInProgress,
			entities.SubmissionStatusPendingReview, entities.SubmissionStatusChangesRequired:
			// The internal loop is invisible: until content is forwarded the
			// client just sees work in progress.
			return "awaiting_content"
		case entities.SubmissionStatusSentToClient:
			return "awaiting_your_review"
		case entities.SubmissionStatusClientFeedback:
			return "feedback_sent"
		}
	case RoleReviewer:
		if origin == entities.OriginInternal && stored == entities.SubmissionStatusSentToClient {
			// Internal campaigns have no client hop; the same stored state
			// reads as internally approved.
			return "approved_internal"
		}
	}
	return string(stored)
}
