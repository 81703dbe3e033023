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

type UploadContentCommand struct {
	SubmissionID string
	CreatorID    string
	Caption      string
	RawFileLink  string
	Files        []ports.StagedFile
}

// UploadContentUseCase validates the submission accepts uploads, pairs
// resubmitted files with the media rows they replace, and hands the job to
// the ingestion pipeline. The response means "processing started", not "all
// files landed"; per-file outcomes arrive over the event sink.
type UploadContentUseCase struct {
	Submissions  ports.SubmissionRepository
	Media        ports.MediaRepository
	Policies     ports.PolicyProvider
	Dependencies ports.DependencyRepository
	Ingestion    ports.IngestionEnqueuer
	Logger       *slog.Logger
}

func (uc UploadContentUseCase) Execute(ctx context.Context, cmd UploadContentCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	submission, err := uc.Submissions.GetSubmission(ctx, strings.TrimSpace(cmd.SubmissionID))
	if err != nil {
		return err
	}
	if strings.TrimSpace(cmd.CreatorID) == "" || submission.CreatorID != strings.TrimSpace(cmd.CreatorID) {
		return domainerrors.ErrUnauthorizedActor
	}
	if !submission.Status.AcceptsUploads() {
		return domainerrors.ErrInvalidStateTransition
	}
	if err := uc.requireBasesAccepted(ctx, submission.SubmissionID); err != nil {
		return err
	}

	policy, err := uc.Policies.GetPolicy(ctx, submission.CampaignID)
	if err != nil {
		return err
	}

	existing, err := uc.Media.ListMediaBySubmission(ctx, submission.SubmissionID)
	if err != nil {
		return err
	}

	if err := uc.enforceVideoQuota(submission, policy, existing, cmd.Files); err != nil {
		return err
	}

	// A resubmission replaces flagged rows in place so feedback references
	// stay valid. Files are paired with flagged rows of the same kind in
	// upload order; leftovers become new rows.
	flaggedByKind := make(map[entities.MediaKind][]entities.MediaItem)
	for _, item := range existing {
		if item.Status == entities.MediaStatusRevisionRequested {
			flaggedByKind[item.Kind] = append(flaggedByKind[item.Kind], item)
		}
	}

	files := make([]ports.StagedFile, 0, len(cmd.Files))
	preserve := false
	for _, file := range cmd.Files {
		staged := file
		if queue := flaggedByKind[file.Kind]; len(queue) > 0 && staged.MediaID == "" {
			staged.MediaID = queue[0].MediaID
			flaggedByKind[file.Kind] = queue[1:]
			preserve = true
		}
		files = append(files, staged)
	}

	job := ports.IngestionRequest{
		SubmissionID:     submission.SubmissionID,
		CallerID:         submission.CreatorID,
		Caption:          strings.TrimSpace(cmd.Caption),
		RawFileLink:      strings.TrimSpace(cmd.RawFileLink),
		Files:            files,
		PreserveExisting: preserve,
	}
	if err := uc.Ingestion.EnqueueIngestion(ctx, job); err != nil {
		return err
	}

	logger.Info("content upload accepted",
		"event", "upload_accepted",
		"module", "content-review/review-service",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"creator_id", submission.CreatorID,
		"file_count", len(files),
		"resubmission", preserve,
	)
	return nil
}

// requireBasesAccepted holds a dependent submission closed until every base
// it chains on has reached an accepted terminal status. Without this check
// an upload would pull a gated submission out of not_started early.
func (uc UploadContentUseCase) requireBasesAccepted(ctx context.Context, submissionID string) error {
	edges, err := uc.Dependencies.ListBases(ctx, submissionID)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		base, err := uc.Submissions.GetSubmission(ctx, edge.BaseID)
		if err != nil {
			return err
		}
		if !base.Status.Accepted() {
			return domainerrors.ErrDependencyNotSatisfied
		}
	}
	return nil
}

func (uc UploadContentUseCase) enforceVideoQuota(
	submission entities.Submission,
	policy entities.ReviewPolicy,
	existing []entities.MediaItem,
	incoming []ports.StagedFile,
) error {
	if policy.VideoQuota <= 0 || submission.Kind != entities.SubmissionKindVideoUnit {
		return nil
	}
	current := 0
	for _, item := range existing {
		if item.Kind == entities.MediaKindVideo {
			current++
		}
	}
	adding := 0
	for _, file := range incoming {
		if file.Kind == entities.MediaKindVideo && file.MediaID == "" {
			adding++
		}
	}
	if current+adding > policy.VideoQuota {
		return domainerrors.ErrVideoQuotaExceeded
	}
	return nil
}
