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

type ClientDecideCommand struct {
	MediaID     string
	ClientID    string
	Approve     bool
	Feedback    string
	ReasonCodes []string
}

// ClientAuthorizer answers whether an actor may review for a campaign as a
// client. Membership itself is owned outside this core.
type ClientAuthorizer interface {
	IsClientFor(ctx context.Context, clientID string, campaignID string) (bool, error)
}

// ClientDecideUseCase records the client verdict on one forwarded media
// item. Client feedback does not go to the creator directly, the reviewer
// forwards it in a second hop.
type ClientDecideUseCase struct {
	Submissions ports.SubmissionRepository
	Media       ports.MediaRepository
	Feedback    ports.FeedbackRepository
	Authorizer  ClientAuthorizer
	Reconcile   ReconcileUseCase
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ClientDecideUseCase) Execute(ctx context.Context, cmd ClientDecideCommand) (entities.SubmissionStatus, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ClientID) == "" {
		return "", domainerrors.ErrUnauthorizedActor
	}

	item, err := uc.Media.GetMediaItem(ctx, strings.TrimSpace(cmd.MediaID))
	if err != nil {
		return "", err
	}
	if item.Status != entities.MediaStatusSentToClient {
		return "", domainerrors.ErrInvalidStateTransition
	}

	submission, err := uc.Submissions.GetSubmission(ctx, item.SubmissionID)
	if err != nil {
		return "", err
	}
	if uc.Authorizer != nil {
		allowed, err := uc.Authorizer.IsClientFor(ctx, strings.TrimSpace(cmd.ClientID), submission.CampaignID)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", domainerrors.ErrUnauthorizedActor
		}
	}

	now := uc.Clock.Now().UTC()
	if cmd.Approve {
		item.Status = entities.MediaStatusApproved
	} else {
		item.Status = entities.MediaStatusClientFeedback
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
		// Client notes stay reviewer-only until forwarded.
		if err := uc.Feedback.CreateFeedback(ctx, entities.Feedback{
			FeedbackID:       feedbackID,
			SubmissionID:     submission.SubmissionID,
			AuthorID:         strings.TrimSpace(cmd.ClientID),
			AuthorRole:       entities.FeedbackAuthorClient,
			Body:             strings.TrimSpace(cmd.Feedback),
			MediaIDs:         []string{item.MediaID},
			ReasonCodes:      append([]string(nil), cmd.ReasonCodes...),
			VisibleToCreator: false,
			CreatedAt:        now,
		}); err != nil {
			return "", err
		}
	}

	logger.Info("client decided media item",
		"event", "media_client_decided",
		"module", "content-review/review-service",
		"layer", "application",
		"media_id", item.MediaID,
		"submission_id", submission.SubmissionID,
		"approved", cmd.Approve,
	)
	return uc.Reconcile.Execute(ctx, submission.SubmissionID)
}
