package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"atelier/contexts/content-review/review-service/application/commands"
	"atelier/contexts/content-review/review-service/application/queries"
	"atelier/contexts/content-review/review-service/domain/entities"
	"atelier/contexts/content-review/review-service/ports"
	httptransport "atelier/contexts/content-review/review-service/transport/http"
)

type Handler struct {
	CreatePlan      commands.CreateSubmissionPlanUseCase
	UploadContent   commands.UploadContentUseCase
	ReviewerDecide  commands.ReviewerDecideUseCase
	ClientDecide    commands.ClientDecideUseCase
	ForwardFeedback commands.ForwardFeedbackUseCase
	EditFeedback    commands.EditFeedbackUseCase
	Withdraw        commands.WithdrawUseCase
	Reconcile       commands.ReconcileUseCase
	Queries         queries.QueryUseCase
	Logger          *slog.Logger
}

func (h Handler) CreatePlanHandler(
	ctx context.Context,
	campaignID string,
	req httptransport.CreatePlanRequest,
) (httptransport.CreatePlanResponse, error) {
	plan := make([]entities.DeliverableStep, 0, len(req.Plan))
	dueDates := make([]*time.Time, 0, len(req.Plan))
	for _, step := range req.Plan {
		plan = append(plan, entities.DeliverableStep{
			Kind:      entities.SubmissionKind(step.Kind),
			DependsOn: step.DependsOn,
		})
		dueDates = append(dueDates, parseOptionalTime(step.DueDate))
	}
	if len(plan) == 0 {
		plan = commands.DefaultDraftPlan()
		dueDates = make([]*time.Time, len(plan))
	}
	items, err := h.CreatePlan.Execute(ctx, commands.CreateSubmissionPlanCommand{
		CampaignID: campaignID,
		CreatorID:  req.CreatorID,
		Plan:       plan,
		DueDates:   dueDates,
	})
	if err != nil {
		return httptransport.CreatePlanResponse{}, err
	}
	result := make([]httptransport.SubmissionDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapSubmission(queries.SubmissionView{Submission: item}))
	}
	return httptransport.CreatePlanResponse{Items: result}, nil
}

func (h Handler) UploadContentHandler(
	ctx context.Context,
	creatorID string,
	submissionID string,
	req httptransport.UploadContentRequest,
) (httptransport.UploadAcceptedResponse, error) {
	files := make([]ports.StagedFile, 0, len(req.Files))
	for _, file := range req.Files {
		files = append(files, ports.StagedFile{
			Kind:      entities.MediaKind(file.Kind),
			LocalPath: file.LocalPath,
			MediaID:   file.MediaID,
		})
	}
	err := h.UploadContent.Execute(ctx, commands.UploadContentCommand{
		SubmissionID: submissionID,
		CreatorID:    creatorID,
		Caption:      req.Caption,
		RawFileLink:  req.RawFileLink,
		Files:        files,
	})
	if err != nil {
		return httptransport.UploadAcceptedResponse{}, err
	}
	return httptransport.UploadAcceptedResponse{
		SubmissionID: submissionID,
		Status:       "processing",
	}, nil
}

func (h Handler) ReviewerDecideHandler(
	ctx context.Context,
	reviewerID string,
	mediaID string,
	req httptransport.DecideRequest,
) (httptransport.DecideResponse, error) {
	status, err := h.ReviewerDecide.Execute(ctx, commands.ReviewerDecideCommand{
		MediaID:     mediaID,
		ReviewerID:  reviewerID,
		Approve:     req.Approve,
		Reject:      req.Reject,
		Feedback:    req.Feedback,
		ReasonCodes: req.ReasonCodes,
	})
	if err != nil {
		return httptransport.DecideResponse{}, err
	}
	return httptransport.DecideResponse{SubmissionStatus: string(status)}, nil
}

func (h Handler) ClientDecideHandler(
	ctx context.Context,
	clientID string,
	mediaID string,
	req httptransport.DecideRequest,
) (httptransport.DecideResponse, error) {
	status, err := h.ClientDecide.Execute(ctx, commands.ClientDecideCommand{
		MediaID:     mediaID,
		ClientID:    clientID,
		Approve:     req.Approve,
		Feedback:    req.Feedback,
		ReasonCodes: req.ReasonCodes,
	})
	if err != nil {
		return httptransport.DecideResponse{}, err
	}
	return httptransport.DecideResponse{SubmissionStatus: string(status)}, nil
}

func (h Handler) ForwardFeedbackHandler(
	ctx context.Context,
	reviewerID string,
	mediaID string,
	req httptransport.ForwardFeedbackRequest,
) (httptransport.DecideResponse, error) {
	status, err := h.ForwardFeedback.Execute(ctx, commands.ForwardFeedbackCommand{
		MediaID:      mediaID,
		ReviewerID:   reviewerID,
		ReviewerNote: req.ReviewerNote,
	})
	if err != nil {
		return httptransport.DecideResponse{}, err
	}
	return httptransport.DecideResponse{SubmissionStatus: string(status)}, nil
}

func (h Handler) EditFeedbackHandler(
	ctx context.Context,
	authorID string,
	feedbackID string,
	req httptransport.EditFeedbackRequest,
) error {
	return h.EditFeedback.Execute(ctx, commands.EditFeedbackCommand{
		FeedbackID: feedbackID,
		AuthorID:   authorID,
		Body:       req.Body,
	})
}

func (h Handler) WithdrawSubmissionHandler(
	ctx context.Context,
	actorID string,
	submissionID string,
	req httptransport.WithdrawRequest,
) error {
	return h.Withdraw.Execute(ctx, commands.WithdrawSubmissionCommand{
		SubmissionID: submissionID,
		ActorID:      actorID,
		Reason:       req.Reason,
	})
}

func (h Handler) WithdrawCreatorHandler(
	ctx context.Context,
	actorID string,
	campaignID string,
	creatorID string,
	req httptransport.WithdrawRequest,
) error {
	return h.Withdraw.WithdrawCreator(ctx, commands.WithdrawCreatorCommand{
		CampaignID: campaignID,
		CreatorID:  creatorID,
		ActorID:    actorID,
		Reason:     req.Reason,
	})
}

func (h Handler) GetSubmissionHandler(
	ctx context.Context,
	submissionID string,
	role string,
) (httptransport.GetSubmissionResponse, error) {
	view, err := h.Queries.GetSubmission(ctx, submissionID, role)
	if err != nil {
		return httptransport.GetSubmissionResponse{}, err
	}
	return httptransport.GetSubmissionResponse{Submission: mapSubmission(view)}, nil
}

func (h Handler) ListSubmissionsHandler(
	ctx context.Context,
	campaignID string,
	creatorID string,
	status string,
	role string,
) (httptransport.ListSubmissionsResponse, error) {
	views, err := h.Queries.ListSubmissions(ctx, queries.ListSubmissionsQuery{
		CampaignID: campaignID,
		CreatorID:  creatorID,
		Status:     status,
		ViewerRole: role,
	})
	if err != nil {
		return httptransport.ListSubmissionsResponse{}, err
	}
	result := make([]httptransport.SubmissionDTO, 0, len(views))
	for _, view := range views {
		result = append(result, mapSubmission(view))
	}
	return httptransport.ListSubmissionsResponse{Items: result}, nil
}

func (h Handler) ReconcileSubmissionHandler(
	ctx context.Context,
	submissionID string,
) (httptransport.DecideResponse, error) {
	status, err := h.Reconcile.Execute(ctx, submissionID)
	if err != nil {
		return httptransport.DecideResponse{}, err
	}
	return httptransport.DecideResponse{SubmissionStatus: string(status)}, nil
}

func mapSubmission(view queries.SubmissionView) httptransport.SubmissionDTO {
	item := view.Submission
	dto := httptransport.SubmissionDTO{
		SubmissionID:  item.SubmissionID,
		CampaignID:    item.CampaignID,
		CreatorID:     item.CreatorID,
		Kind:          string(item.Kind),
		Status:        string(item.Status),
		DisplayStatus: view.DisplayStatus,
		Caption:       item.Caption,
		RawFileLink:   item.RawFileLink,
		CreatedAt:     item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     item.UpdatedAt.Format(time.RFC3339),
		Media:         make([]httptransport.MediaItemDTO, 0, len(view.Media)),
		Feedback:      make([]httptransport.FeedbackDTO, 0, len(view.Feedback)),
	}
	if item.DueDate != nil {
		dto.DueDate = item.DueDate.Format(time.RFC3339)
	}
	for _, media := range view.Media {
		dto.Media = append(dto.Media, httptransport.MediaItemDTO{
			MediaID:       media.MediaID,
			SubmissionID:  media.SubmissionID,
			Kind:          string(media.Kind),
			URL:           media.URL,
			Status:        string(media.Status),
			FeedbackNote:  media.FeedbackNote,
			ReasonCodes:   media.ReasonCodes,
			RevisionCount: media.RevisionCount,
		})
	}
	for _, feedback := range view.Feedback {
		dto.Feedback = append(dto.Feedback, httptransport.FeedbackDTO{
			FeedbackID:       feedback.FeedbackID,
			AuthorRole:       string(feedback.AuthorRole),
			Body:             feedback.Body,
			MediaIDs:         feedback.MediaIDs,
			VisibleToCreator: feedback.VisibleToCreator,
			CreatedAt:        feedback.CreatedAt.Format(time.RFC3339),
		})
	}
	return dto
}

func parseOptionalTime(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil
	}
	return &parsed
}

