package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "atelier/contexts/content-review/review-service/application"
	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"
)

type CreateSubmissionPlanCommand struct {
	CampaignID string
	CreatorID  string
	Plan       []entities.DeliverableStep
	DueDates   []*time.Time
}

// CreateSubmissionPlanUseCase batch-creates the submissions a newly accepted
// creator owes, wiring the dependency chain from the plan. The first
// unblocked step starts in in_progress, gated steps in not_started.
type CreateSubmissionPlanUseCase struct {
	Submissions  ports.SubmissionRepository
	Dependencies ports.DependencyRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

func (uc CreateSubmissionPlanUseCase) Execute(ctx context.Context, cmd CreateSubmissionPlanCommand) ([]entities.Submission, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	creatorID := strings.TrimSpace(cmd.CreatorID)
	if campaignID == "" || creatorID == "" || len(cmd.Plan) == 0 {
		return nil, domainerrors.ErrInvalidInput
	}

	existing, err := uc.Submissions.ListSubmissions(ctx, ports.SubmissionFilter{
		CampaignID: campaignID,
		CreatorID:  creatorID,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domainerrors.ErrDuplicateSubmissionPlan
	}

	now := uc.Clock.Now().UTC()
	created := make([]entities.Submission, 0, len(cmd.Plan))
	for i, step := range cmd.Plan {
		submissionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		status := entities.SubmissionStatusInProgress
		if step.DependsOn >= 0 {
			status = entities.SubmissionStatusNotStarted
		}
		var due *time.Time
		if i < len(cmd.DueDates) {
			due = cmd.DueDates[i]
		}
		submission := entities.Submission{
			SubmissionID: submissionID,
			CampaignID:   campaignID,
			CreatorID:    creatorID,
			Kind:         step.Kind,
			Status:       status,
			DueDate:      due,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if !submission.ValidateCreate() {
			return nil, domainerrors.ErrInvalidInput
		}
		if err := uc.Submissions.CreateSubmission(ctx, submission); err != nil {
			return nil, err
		}
		created = append(created, submission)
	}

	for i, step := range cmd.Plan {
		if step.DependsOn < 0 {
			continue
		}
		if step.DependsOn >= len(created) {
			return nil, domainerrors.ErrInvalidInput
		}
		dependencyID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		if err := uc.Dependencies.CreateDependency(ctx, entities.SubmissionDependency{
			DependencyID: dependencyID,
			DependentID:  created[i].SubmissionID,
			BaseID:       created[step.DependsOn].SubmissionID,
			CreatedAt:    now,
		}); err != nil {
			return nil, err
		}
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return nil, err
	}
	envelope, err := newReviewEnvelope(eventID, EventSubmissionPlanCreated, created[0].SubmissionID, now, map[string]any{
		"campaign_id":      campaignID,
		"creator_id":       creatorID,
		"submission_count": len(created),
	})
	if err != nil {
		return nil, err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return nil, err
	}

	logger.Info("submission plan created",
		"event", "submission_plan_created",
		"module", "content-review/review-service",
		"layer", "application",
		"campaign_id", campaignID,
		"creator_id", creatorID,
		"submission_count", len(created),
	)
	return created, nil
}

// DefaultDraftPlan is the standard first_draft -> final_draft -> posting
// chain.
func DefaultDraftPlan() []entities.DeliverableStep {
	return []entities.DeliverableStep{
		{Kind: entities.SubmissionKindFirstDraft, DependsOn: -1},
		{Kind: entities.SubmissionKindFinalDraft, DependsOn: 0},
		{Kind: entities.SubmissionKindPosting, DependsOn: 1},
	}
}
