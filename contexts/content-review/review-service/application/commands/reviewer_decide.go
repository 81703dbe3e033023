package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "atelier/contexts/content-review/review-service/application"
	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"
)

type ReviewerDecideCommand struct {
	MediaID     string
	ReviewerID  string
	Approve     bool
	Reject      bool
	Feedback    string
	ReasonCodes []string
}

// ReviewerDecideUseCase moves one pending media item either toward the
// client (or straight to approved on internal-origin campaigns) or back to
// the creator, then reconciles the submission. Reject is the hard verdict:
// it skips the revision loop and rejects the whole submission.
type ReviewerDecideUseCase struct {
	Submissions ports.SubmissionRepository
	Media       ports.MediaRepository
	Feedback    ports.FeedbackRepository
	Policies    ports.PolicyProvider
	Outbox      ports.OutboxWriter
	Notifier    ports.Notifier
	Reconcile   ReconcileUseCase
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ReviewerDecideUseCase) Execute(ctx context.Context, cmd ReviewerDecideCommand) (entities.SubmissionStatus, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ReviewerID) == "" {
		return "", domainerrors.ErrUnauthorizedActor
	}

	item, err := uc.Media.GetMediaItem(ctx, strings.TrimSpace(cmd.MediaID))
	if err != nil {
		return "", err
	}
	if item.Status != entities.MediaStatusPending {
		return "", domainerrors.ErrInvalidStateTransition
	}

	submission, err := uc.Submissions.GetSubmission(ctx, item.SubmissionID)
	if err != nil {
		return "", err
	}
	policy, err := uc.Policies.GetPolicy(ctx, submission.CampaignID)
	if err != nil {
		return "", err
	}

	if cmd.Approve && cmd.Reject {
		return "", domainerrors.ErrInvalidInput
	}

	now := uc.Clock.Now().UTC()
	switch {
	case cmd.Reject:
		item.Status = entities.MediaStatusRejected
	case cmd.Approve:
		item.Status = entities.MediaStatusSentToClient
		if policy.Origin == entities.OriginInternal {
			item.Status = entities.MediaStatusApproved
		}
	default:
		item.Status = entities.MediaStatusRevisionRequested
	}
	item.FeedbackNote = strings.TrimSpace(cmd.Feedback)
	item.ReasonCodes = append([]string(nil), cmd.ReasonCodes...)
	item.UpdatedAt = now
	if err := uc.Media.UpdateMediaItem(ctx, item); err != nil {
		return "", err
	}

	if !cmd.Approve && strings.TrimSpace(cmd.Feedback) != "" {
		feedbackID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return "", err
		}
		if err := uc.Feedback.CreateFeedback(ctx, entities.Feedback{
			FeedbackID:       feedbackID,
			SubmissionID:     submission.SubmissionID,
			AuthorID:         strings.TrimSpace(cmd.ReviewerID),
			AuthorRole:       entities.FeedbackAuthorReviewer,
			Body:             strings.TrimSpace(cmd.Feedback),
			MediaIDs:         []string{item.MediaID},
			ReasonCodes:      append([]string(nil), cmd.ReasonCodes...),
			VisibleToCreator: true,
			CreatedAt:        now,
		}); err != nil {
			return "", err
		}
	}

	logger.Info("reviewer decided media item",
		"event", "media_reviewer_decided",
		"module", "content-review/review-service",
		"layer", "application",
		"media_id", item.MediaID,
		"submission_id", submission.SubmissionID,
		"approved", cmd.Approve,
		"rejected", cmd.Reject,
	)

	if cmd.Reject {
		return uc.rejectSubmission(ctx, submission, cmd)
	}
	return uc.Reconcile.Execute(ctx, submission.SubmissionID)
}

// rejectSubmission puts the submission in its terminal rejected status. The
// reconciler never produces rejected, it only respects it as absorbing, so
// the status write happens here with the usual audit and outbox trail.
func (uc ReviewerDecideUseCase) rejectSubmission(
	ctx context.Context,
	submission entities.Submission,
	cmd ReviewerDecideCommand,
) (entities.SubmissionStatus, error) {
	now := uc.Clock.Now().UTC()

	if err := uc.Submissions.UpdateSubmissionStatus(
		ctx, submission.SubmissionID, entities.SubmissionStatusRejected, submission.Version, now,
	); err != nil && !errors.Is(err, domainerrors.ErrVersionConflict) {
		return "", err
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	if err := uc.Submissions.AppendAudit(ctx, entities.SubmissionAudit{
		AuditID:      auditID,
		SubmissionID: submission.SubmissionID,
		OldStatus:    submission.Status,
		NewStatus:    entities.SubmissionStatusRejected,
		ActorID:      strings.TrimSpace(cmd.ReviewerID),
		ActorRole:    "reviewer",
		Reason:       strings.TrimSpace(cmd.Feedback),
		CreatedAt:    now,
	}); err != nil {
		return "", err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	envelope, err := newReviewEnvelope(eventID, EventSubmissionRejected, submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"campaign_id":   submission.CampaignID,
		"creator_id":    submission.CreatorID,
		"media_id":      strings.TrimSpace(cmd.MediaID),
		"reason_codes":  cmd.ReasonCodes,
	})
	if err != nil {
		return "", err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return "", err
	}
	_ = uc.Notifier.Notify(ctx, submission.CreatorID, ports.Notification{
		Type:         EventSubmissionRejected,
		SubmissionID: submission.SubmissionID,
		CampaignID:   submission.CampaignID,
		Body:         strings.TrimSpace(cmd.Feedback),
	})
	return entities.SubmissionStatusRejected, nil
}
