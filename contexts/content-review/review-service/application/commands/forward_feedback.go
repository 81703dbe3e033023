package commands

import (
	"context"
	"log/slog"
	"strings"

	application "atelier/contexts/content-review/review-service/application"
	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"
)

type ForwardFeedbackCommand struct {
	MediaID      string
	ReviewerID   string
	ReviewerNote string
}

// ForwardFeedbackUseCase completes the two-hop client-to-creator loop: the
// reviewer takes a client-flagged item, attaches a creator-visible note, and
// sends the item back for revision.
type ForwardFeedbackUseCase struct {
	Submissions ports.SubmissionRepository
	Media       ports.MediaRepository
	Feedback    ports.FeedbackRepository
	Reconcile   ReconcileUseCase
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ForwardFeedbackUseCase) Execute(ctx context.Context, cmd ForwardFeedbackCommand) (entities.SubmissionStatus, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ReviewerID) == "" {
		return "", domainerrors.ErrUnauthorizedActor
	}
	if strings.TrimSpace(cmd.ReviewerNote) == "" {
		return "", domainerrors.ErrInvalidInput
	}

	item, err := uc.Media.GetMediaItem(ctx, strings.TrimSpace(cmd.MediaID))
	if err != nil {
		return "", err
	}
	if item.Status != entities.MediaStatusClientFeedback {
		return "", domainerrors.ErrInvalidStateTransition
	}

	submission, err := uc.Submissions.GetSubmission(ctx, item.SubmissionID)
	if err != nil {
		return "", err
	}

	now := uc.Clock.Now().UTC()
	item.Status = entities.MediaStatusRevisionRequested
	item.FeedbackNote = strings.TrimSpace(cmd.ReviewerNote)
	item.UpdatedAt = now
	if err := uc.Media.UpdateMediaItem(ctx, item); err != nil {
		return "", err
	}

	feedbackID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	if err := uc.Feedback.CreateFeedback(ctx, entities.Feedback{
		FeedbackID:       feedbackID,
		SubmissionID:     submission.SubmissionID,
		AuthorID:         strings.TrimSpace(cmd.ReviewerID),
		AuthorRole:       entities.FeedbackAuthorReviewer,
		Body:             strings.TrimSpace(cmd.ReviewerNote),
		MediaIDs:         []string{item.MediaID},
		VisibleToCreator: true,
		CreatedAt:        now,
	}); err != nil {
		return "", err
	}

	logger.Info("client feedback forwarded to creator",
		"event", "feedback_forwarded",
		"module", "content-review/review-service",
		"layer", "application",
		"media_id", item.MediaID,
		"submission_id", submission.SubmissionID,
	)
	return uc.Reconcile.Execute(ctx, submission.SubmissionID)
}
