package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "atelier/contexts/content-review/review-service/application"
	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/domain/services"
	"atelier/contexts/content-review/review-service/ports"
)

// ReconcileUseCase re-derives a submission's status from its media items and
// applies the result: optimistic status write, audit row, outbox event,
// realtime notification, and dependency-chain activation on full approval.
// It is invoked after every mutation to a media item or feedback and is safe
// to call redundantly or concurrently.
type ReconcileUseCase struct {
	Submissions  ports.SubmissionRepository
	Media        ports.MediaRepository
	Dependencies ports.DependencyRepository
	Policies     ports.PolicyProvider
	Outbox       ports.OutboxWriter
	Notifier     ports.Notifier
	Reviewers    ports.ReviewerDirectory
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// Execute reconciles one submission. On a version conflict the read-compute-
// write cycle is retried once against the fresh row; a second conflict is
// surfaced so the competing writer's reconcile stands.
func (uc ReconcileUseCase) Execute(ctx context.Context, submissionID string) (entities.SubmissionStatus, error) {
	logger := application.ResolveLogger(uc.Logger)
	submissionID = strings.TrimSpace(submissionID)

	for attempt := 0; ; attempt++ {
		status, err := uc.reconcileOnce(ctx, submissionID)
		if errors.Is(err, domainerrors.ErrVersionConflict) && attempt == 0 {
			logger.Debug("reconcile retrying after version conflict",
				"event", "reconcile_version_conflict",
				"module", "content-review/review-service",
				"layer", "application",
				"submission_id", submissionID,
			)
			continue
		}
		return status, err
	}
}

func (uc ReconcileUseCase) reconcileOnce(ctx context.Context, submissionID string) (entities.SubmissionStatus, error) {
	logger := application.ResolveLogger(uc.Logger)

	submission, err := uc.Submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return "", err
	}
	if submission.Status.Terminal() {
		return submission.Status, nil
	}

	policy, err := uc.Policies.GetPolicy(ctx, submission.CampaignID)
	if err != nil {
		return "", err
	}

	items, err := uc.loadItemScope(ctx, submission)
	if err != nil {
		return "", err
	}

	outcome := services.Recompute(services.ReviewSnapshot{
		Submission: submission,
		Policy:     policy,
		Items:      items,
	})
	if !outcome.Changed {
		return submission.Status, nil
	}

	now := uc.Clock.Now().UTC()
	if err := uc.Submissions.UpdateSubmissionStatus(
		ctx, submission.SubmissionID, outcome.Status, submission.Version, now,
	); err != nil {
		return "", err
	}

	if err := uc.recordTransition(ctx, submission, outcome.Status, "", "reconciler", "recomputed from media items"); err != nil {
		return "", err
	}
	uc.notifyWatchers(ctx, submission, outcome.Status)

	logger.Info("submission status reconciled",
		"event", "submission_reconciled",
		"module", "content-review/review-service",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"old_status", string(submission.Status),
		"new_status", string(outcome.Status),
	)

	finalStatus := outcome.Status
	if outcome.ActivateNext {
		finalStatus, err = uc.settleChain(ctx, submission, outcome)
		if err != nil {
			return "", err
		}
	}
	return finalStatus, nil
}

// loadItemScope gathers the media items the recompute must see. Draft-like
// kinds span every sibling submission of the same creator, campaign, and
// kind; everything else only sees its own rows.
func (uc ReconcileUseCase) loadItemScope(ctx context.Context, submission entities.Submission) ([]entities.MediaItem, error) {
	if !submission.Kind.DraftLike() {
		return uc.Media.ListMediaBySubmission(ctx, submission.SubmissionID)
	}

	siblings, err := uc.Submissions.ListSubmissions(ctx, ports.SubmissionFilter{
		CampaignID: submission.CampaignID,
		CreatorID:  submission.CreatorID,
		Kind:       submission.Kind,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.Status.Terminal() && sibling.SubmissionID != submission.SubmissionID {
			continue
		}
		ids = append(ids, sibling.SubmissionID)
	}
	return uc.Media.ListMediaBySubmissions(ctx, ids)
}

// settleChain finishes an approved submission and wakes its dependents. A
// final_draft dependent is activated only when some item of the base needed
// revision; otherwise it completes vacuously and its own dependents wake
// instead, so posting follows straight after a clean first draft.
func (uc ReconcileUseCase) settleChain(
	ctx context.Context,
	base entities.Submission,
	outcome services.Outcome,
) (entities.SubmissionStatus, error) {
	logger := application.ResolveLogger(uc.Logger)

	dependents, err := uc.Dependencies.ListDependents(ctx, base.SubmissionID)
	if err != nil {
		return "", err
	}

	finalStatus := outcome.Status
	if len(dependents) == 0 {
		// Last in the chain: approval settles straight through to the
		// terminal state.
		terminal := entities.SubmissionStatusCompleted
		if base.Kind == entities.SubmissionKindPosting {
			terminal = entities.SubmissionStatusPosted
		}
		fresh, err := uc.Submissions.GetSubmission(ctx, base.SubmissionID)
		if err != nil {
			return "", err
		}
		now := uc.Clock.Now().UTC()
		if err := uc.Submissions.UpdateSubmissionStatus(
			ctx, base.SubmissionID, terminal, fresh.Version, now,
		); err != nil {
			return "", err
		}
		if err := uc.recordTransition(ctx, fresh, terminal, "", "reconciler", "last in dependency chain"); err != nil {
			return "", err
		}
		return terminal, nil
	}

	for _, edge := range dependents {
		dependent, err := uc.Submissions.GetSubmission(ctx, edge.DependentID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrSubmissionNotFound) {
				continue
			}
			return "", err
		}
		if dependent.Status != entities.SubmissionStatusNotStarted {
			continue
		}

		if dependent.Kind == entities.SubmissionKindFinalDraft && !outcome.NeededRevision {
			if err := uc.completeVacuously(ctx, dependent); err != nil {
				return "", err
			}
			continue
		}

		now := uc.Clock.Now().UTC()
		if err := uc.Submissions.UpdateSubmissionStatus(
			ctx, dependent.SubmissionID, entities.SubmissionStatusInProgress, dependent.Version, now,
		); err != nil {
			return "", err
		}
		if err := uc.recordTransition(ctx, dependent, entities.SubmissionStatusInProgress, "", "reconciler", "dependency satisfied"); err != nil {
			return "", err
		}
		if err := uc.emitActivation(ctx, dependent, now); err != nil {
			return "", err
		}

		logger.Info("dependent submission activated",
			"event", "submission_activated",
			"module", "content-review/review-service",
			"layer", "application",
			"submission_id", dependent.SubmissionID,
			"base_submission_id", base.SubmissionID,
			"kind", string(dependent.Kind),
		)
	}
	return finalStatus, nil
}

// completeVacuously closes a final_draft whose first draft never needed
// revision, then wakes whatever depended on it.
func (uc ReconcileUseCase) completeVacuously(ctx context.Context, dependent entities.Submission) error {
	now := uc.Clock.Now().UTC()
	if err := uc.Submissions.UpdateSubmissionStatus(
		ctx, dependent.SubmissionID, entities.SubmissionStatusCompleted, dependent.Version, now,
	); err != nil {
		return err
	}
	if err := uc.recordTransition(ctx, dependent, entities.SubmissionStatusCompleted, "", "reconciler", "skipped, first draft accepted without revision"); err != nil {
		return err
	}
	_, err := uc.settleChain(ctx, dependent, services.Outcome{
		Status:       entities.SubmissionStatusCompleted,
		ActivateNext: true,
	})
	if err != nil {
		return err
	}
	return nil
}

func (uc ReconcileUseCase) recordTransition(
	ctx context.Context,
	before entities.Submission,
	next entities.SubmissionStatus,
	actorID string,
	actorRole string,
	reason string,
) error {
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := uc.Clock.Now().UTC()
	if err := uc.Submissions.AppendAudit(ctx, entities.SubmissionAudit{
		AuditID:      auditID,
		SubmissionID: before.SubmissionID,
		OldStatus:    before.Status,
		NewStatus:    next,
		ActorID:      actorID,
		ActorRole:    actorRole,
		Reason:       reason,
		CreatedAt:    now,
	}); err != nil {
		return err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newReviewEnvelope(eventID, EventSubmissionStatusChanged, before.SubmissionID, now, map[string]any{
		"submission_id": before.SubmissionID,
		"campaign_id":   before.CampaignID,
		"creator_id":    before.CreatorID,
		"old_status":    string(before.Status),
		"new_status":    string(next),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc ReconcileUseCase) emitActivation(ctx context.Context, dependent entities.Submission, now time.Time) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newReviewEnvelope(eventID, EventSubmissionActivated, dependent.SubmissionID, now, map[string]any{
		"submission_id": dependent.SubmissionID,
		"campaign_id":   dependent.CampaignID,
		"creator_id":    dependent.CreatorID,
		"kind":          string(dependent.Kind),
	})
	if err != nil {
		return err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return err
	}
	// Realtime delivery is best-effort.
	_ = uc.Notifier.Notify(ctx, dependent.CreatorID, ports.Notification{
		Type:         EventSubmissionActivated,
		SubmissionID: dependent.SubmissionID,
		CampaignID:   dependent.CampaignID,
		Body:         string(entities.SubmissionStatusInProgress),
	})
	return nil
}

// notifyWatchers pushes the new status to the creator, every campaign
// reviewer, and superadmin observers. Delivery is best-effort; a dead
// connection never fails the reconcile.
func (uc ReconcileUseCase) notifyWatchers(ctx context.Context, submission entities.Submission, next entities.SubmissionStatus) {
	logger := application.ResolveLogger(uc.Logger)
	notification := ports.Notification{
		Type:         EventSubmissionStatusChanged,
		SubmissionID: submission.SubmissionID,
		CampaignID:   submission.CampaignID,
		Body:         string(next),
	}

	targets := []string{submission.CreatorID}
	if uc.Reviewers != nil {
		if reviewers, err := uc.Reviewers.ListReviewers(ctx, submission.CampaignID); err == nil {
			targets = append(targets, reviewers...)
		}
		if observers, err := uc.Reviewers.ListObservers(ctx); err == nil {
			targets = append(targets, observers...)
		}
	}
	for _, userID := range targets {
		if err := uc.Notifier.Notify(ctx, userID, notification); err != nil {
			logger.Debug("notify skipped",
				"event", "submission_notify_skipped",
				"module", "content-review/review-service",
				"layer", "application",
				"submission_id", submission.SubmissionID,
				"user_id", userID,
				"error", err.Error(),
			)
		}
	}
}
