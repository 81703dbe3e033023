package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"atelier/contexts/content-review/ingestion-service/domain/entities"
	domainerrors "atelier/contexts/content-review/ingestion-service/domain/errors"
	ingestports "atelier/contexts/content-review/ingestion-service/ports"
	reviewports "atelier/contexts/content-review/review-service/ports"
)

// Enqueuer is the review-facing half of the bridge: it satisfies the
// review-service ingestion port by translating upload requests into queue
// jobs. Uploaded files are moved under StagingDir before the job is
// queued, so the pipeline only ever reads and deletes paths it owns.
type Enqueuer struct {
	Queue      ingestports.JobQueue
	StagingDir string
	Clock      ingestports.Clock
	IDGen      ingestports.IDGenerator
}

func (e Enqueuer) EnqueueIngestion(ctx context.Context, request reviewports.IngestionRequest) error {
	jobID, err := e.IDGen.NewID(ctx)
	if err != nil {
		return err
	}

	files := make([]entities.StagedFile, 0, len(request.Files))
	for _, file := range request.Files {
		stagedPath, err := e.stage(request.SubmissionID, file.LocalPath)
		if err != nil {
			return err
		}
		files = append(files, entities.StagedFile{
			Kind:      entities.MediaKind(file.Kind),
			LocalPath: stagedPath,
			MediaID:   file.MediaID,
		})
	}

	job := entities.IngestionJob{
		JobID:        jobID,
		SubmissionID: request.SubmissionID,
		CallerID:     request.CallerID,
		Caption:      request.Caption,
		RawFileLink:  request.RawFileLink,
		Files:        files,
		EnqueuedAt:   e.Clock.Now().UTC(),
	}
	if !job.ValidateEnqueue() {
		return domainerrors.ErrInvalidJob
	}
	return e.Queue.Enqueue(ctx, job)
}

// stage moves an uploaded file into the submission's own staging
// directory. Only the base name of the caller path survives, so a crafted
// path can never steer the pipeline at a file outside the staging root.
func (e Enqueuer) stage(submissionID, callerPath string) (string, error) {
	base := filepath.Base(callerPath)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", domainerrors.ErrInvalidFile
	}
	dir := filepath.Join(e.StagingDir, submissionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("stage dir: %w", err)
	}
	stagedPath := filepath.Join(dir, base)
	if err := os.Rename(callerPath, stagedPath); err != nil {
		return "", fmt.Errorf("stage %s: %w", base, err)
	}
	return stagedPath, nil
}
