package queries

import (
	"context"
	"log/slog"
	"strings"

	"atelier/contexts/content-review/review-service/domain/entities"
	"atelier/contexts/content-review/review-service/domain/services"
	"atelier/contexts/content-review/review-service/ports"
)

type ListSubmissionsQuery struct {
	CampaignID string
	CreatorID  string
	Status     string
	ViewerRole string
}

// SubmissionView pairs a submission with its media items and the status
// projected for the viewer's role.
type SubmissionView struct {
	Submission    entities.Submission
	Media         []entities.MediaItem
	Feedback      []entities.Feedback
	DisplayStatus string
}

type QueryUseCase struct {
	Submissions ports.SubmissionRepository
	Media       ports.MediaRepository
	Feedback    ports.FeedbackRepository
	Policies    ports.PolicyProvider
	Logger      *slog.Logger
}

func (uc QueryUseCase) GetSubmission(ctx context.Context, submissionID string, role string) (SubmissionView, error) {
	submission, err := uc.Submissions.GetSubmission(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return SubmissionView{}, err
	}
	return uc.buildView(ctx, submission, services.ViewerRole(role))
}

func (uc QueryUseCase) ListSubmissions(ctx context.Context, query ListSubmissionsQuery) ([]SubmissionView, error) {
	submissions, err := uc.Submissions.ListSubmissions(ctx, ports.SubmissionFilter{
		CampaignID: strings.TrimSpace(query.CampaignID),
		CreatorID:  strings.TrimSpace(query.CreatorID),
		Status:     entities.SubmissionStatus(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		return nil, err
	}

	views := make([]SubmissionView, 0, len(submissions))
	for _, submission := range submissions {
		view, err := uc.buildView(ctx, submission, services.ViewerRole(query.ViewerRole))
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (uc QueryUseCase) buildView(ctx context.Context, submission entities.Submission, role services.ViewerRole) (SubmissionView, error) {
	media, err := uc.Media.ListMediaBySubmission(ctx, submission.SubmissionID)
	if err != nil {
		return SubmissionView{}, err
	}
	feedback, err := uc.Feedback.ListFeedbackBySubmission(ctx, submission.SubmissionID)
	if err != nil {
		return SubmissionView{}, err
	}
	if role == services.RoleCreator {
		feedback = creatorVisible(feedback)
	}

	origin := entities.OriginExternal
	if uc.Policies != nil {
		if policy, err := uc.Policies.GetPolicy(ctx, submission.CampaignID); err == nil {
			origin = policy.Origin
		}
	}
	return SubmissionView{
		Submission:    submission,
		Media:         media,
		Feedback:      feedback,
		DisplayStatus: services.DisplayStatus(submission.Status, role, origin),
	}, nil
}

func creatorVisible(feedback []entities.Feedback) []entities.Feedback {
	visible := make([]entities.Feedback, 0, len(feedback))
	for _, item := range feedback {
		if item.VisibleToCreator {
			visible = append(visible, item)
		}
	}
	return visible
}
