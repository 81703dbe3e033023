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

type WithdrawSubmissionCommand struct {
	SubmissionID string
	ActorID      string
	Reason       string
}

type WithdrawCreatorCommand struct {
	CampaignID string
	CreatorID  string
	ActorID    string
	Reason     string
}

// WithdrawUseCase is the emergency escape hatch: always legal for an
// authorized reviewer regardless of current status. Withdrawal cascades
// through the dependency chain and deletes owned media and feedback. A
// transcode already in flight for a withdrawn submission is not aborted;
// its late writes land on an abandoned row.
type WithdrawUseCase struct {
	Submissions  ports.SubmissionRepository
	Media        ports.MediaRepository
	Feedback     ports.FeedbackRepository
	Dependencies ports.DependencyRepository
	Outbox       ports.OutboxWriter
	Notifier     ports.Notifier
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

func (uc WithdrawUseCase) Execute(ctx context.Context, cmd WithdrawSubmissionCommand) error {
	if strings.TrimSpace(cmd.ActorID) == "" {
		return domainerrors.ErrUnauthorizedActor
	}
	submission, err := uc.Submissions.GetSubmission(ctx, strings.TrimSpace(cmd.SubmissionID))
	if err != nil {
		return err
	}
	return uc.withdrawTree(ctx, submission, cmd.ActorID, cmd.Reason)
}

// WithdrawCreator withdraws every non-terminal submission the creator holds
// in the campaign.
func (uc WithdrawUseCase) WithdrawCreator(ctx context.Context, cmd WithdrawCreatorCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ActorID) == "" {
		return domainerrors.ErrUnauthorizedActor
	}

	submissions, err := uc.Submissions.ListSubmissions(ctx, ports.SubmissionFilter{
		CampaignID: strings.TrimSpace(cmd.CampaignID),
		CreatorID:  strings.TrimSpace(cmd.CreatorID),
	})
	if err != nil {
		return err
	}
	for _, submission := range submissions {
		if submission.Status == entities.SubmissionStatusWithdrawn {
			continue
		}
		if err := uc.withdrawTree(ctx, submission, cmd.ActorID, cmd.Reason); err != nil {
			return err
		}
	}

	logger.Info("creator withdrawn from campaign",
		"event", "creator_withdrawn",
		"module", "content-review/review-service",
		"layer", "application",
		"campaign_id", cmd.CampaignID,
		"creator_id", cmd.CreatorID,
		"submission_count", len(submissions),
	)
	return nil
}

// withdrawTree withdraws one submission and every downstream dependent that
// has not already reached a terminal state.
func (uc WithdrawUseCase) withdrawTree(ctx context.Context, submission entities.Submission, actorID, reason string) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()

	if !submission.Status.Terminal() {
		if err := uc.Submissions.UpdateSubmissionStatus(
			ctx, submission.SubmissionID, entities.SubmissionStatusWithdrawn, submission.Version, now,
		); err != nil && !errors.Is(err, domainerrors.ErrVersionConflict) {
			return err
		}
	}

	if err := uc.Media.DeleteMediaBySubmission(ctx, submission.SubmissionID); err != nil {
		return err
	}
	if err := uc.Feedback.DeleteFeedbackBySubmission(ctx, submission.SubmissionID); err != nil {
		return err
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := uc.Submissions.AppendAudit(ctx, entities.SubmissionAudit{
		AuditID:      auditID,
		SubmissionID: submission.SubmissionID,
		OldStatus:    submission.Status,
		NewStatus:    entities.SubmissionStatusWithdrawn,
		ActorID:      strings.TrimSpace(actorID),
		ActorRole:    "reviewer",
		Reason:       strings.TrimSpace(reason),
		CreatedAt:    now,
	}); err != nil {
		return err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newReviewEnvelope(eventID, EventSubmissionWithdrawn, submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"campaign_id":   submission.CampaignID,
		"creator_id":    submission.CreatorID,
		"reason":        strings.TrimSpace(reason),
	})
	if err != nil {
		return err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return err
	}
	_ = uc.Notifier.Notify(ctx, submission.CreatorID, ports.Notification{
		Type:         EventSubmissionWithdrawn,
		SubmissionID: submission.SubmissionID,
		CampaignID:   submission.CampaignID,
		Body:         strings.TrimSpace(reason),
	})

	dependents, err := uc.Dependencies.ListDependents(ctx, submission.SubmissionID)
	if err != nil {
		return err
	}
	if err := uc.Dependencies.DeleteDependenciesFor(ctx, submission.SubmissionID); err != nil {
		return err
	}
	for _, edge := range dependents {
		dependent, err := uc.Submissions.GetSubmission(ctx, edge.DependentID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrSubmissionNotFound) {
				continue
			}
			return err
		}
		if dependent.Status.Terminal() {
			continue
		}
		if err := uc.withdrawTree(ctx, dependent, actorID, reason); err != nil {
			return err
		}
	}

	logger.Info("submission withdrawn",
		"event", "submission_withdrawn",
		"module", "content-review/review-service",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"cascaded_dependents", len(dependents),
	)
	return nil
}
