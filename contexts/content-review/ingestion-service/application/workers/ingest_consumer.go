package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"atelier/contexts/content-review/ingestion-service/application"
	"atelier/contexts/content-review/ingestion-service/domain/entities"
	domainerrors "atelier/contexts/content-review/ingestion-service/domain/errors"
	"atelier/contexts/content-review/ingestion-service/ports"
)

// IngestConsumer drains the job queue and lands each batch: transcode
// videos, upload artifacts, write media rows, then reconcile the
// submission. Files fail independently; one broken file never sinks its
// batch. A worker crash mid-job loses the job (at-most-once delivery) and
// the creator re-uploads.
type IngestConsumer struct {
	Queue      ports.JobQueue
	Transcoder ports.Transcoder
	Blobs      ports.BlobStore
	Review     ports.ReviewGateway
	Progress   ports.ProgressSink
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Run consumes jobs until the context is cancelled.
func (c IngestConsumer) Run(ctx context.Context) error {
	for {
		if err := c.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, domainerrors.ErrQueueClosed) {
				return nil
			}
			return err
		}
	}
}

// RunOnce blocks for one job and processes it fully.
func (c IngestConsumer) RunOnce(ctx context.Context) error {
	job, err := c.Queue.Dequeue(ctx)
	if err != nil {
		return err
	}
	c.process(ctx, job)
	return nil
}

func (c IngestConsumer) process(ctx context.Context, job entities.IngestionJob) {
	logger := application.ResolveLogger(c.Logger)
	defer cleanupStaged(job.Files)

	submission, err := c.Review.Submission(ctx, job.SubmissionID)
	if err != nil {
		logger.Error("ingest job dropped, submission lookup failed",
			"event", "ingest_job_dropped",
			"module", "content-review/ingestion-service",
			"layer", "worker",
			"job_id", job.JobID,
			"submission_id", job.SubmissionID,
			"error", err.Error(),
		)
		return
	}

	results := make([]entities.FileResult, 0, len(job.Files))
	total := len(job.Files)
	for index, file := range job.Files {
		// Mid-transcode fractions stream to the uploader scaled into the
		// batch, so a minutes-long video moves the bar continuously.
		fileIndex := index
		onProgress := func(fraction float64) {
			overall := (float64(fileIndex) + fraction) / float64(total)
			_ = c.Progress.Progress(ctx, job.CallerID, job.SubmissionID, overall)
		}
		result := c.processFile(ctx, job, file, onProgress)
		results = append(results, result)
		// Each finished file lands a boundary tick, success or not.
		fraction := float64(index+1) / float64(total)
		if err := c.Progress.Progress(ctx, job.CallerID, job.SubmissionID, fraction); err != nil {
			logger.Debug("progress update dropped",
				"event", "ingest_progress_dropped",
				"module", "content-review/ingestion-service",
				"layer", "worker",
				"submission_id", job.SubmissionID,
			)
		}
	}

	// Caption and raw file link land even when every file failed; the
	// creator's text is never lost to a broken upload.
	if err := c.Review.SetSubmissionContent(ctx, job.SubmissionID, job.Caption, job.RawFileLink); err != nil {
		logger.Error("persisting submission content failed",
			"event", "ingest_content_write_failed",
			"module", "content-review/ingestion-service",
			"layer", "worker",
			"submission_id", job.SubmissionID,
			"error", err.Error(),
		)
	}

	status, err := c.Review.Reconcile(ctx, job.SubmissionID)
	if err != nil {
		logger.Error("post-ingest reconcile failed",
			"event", "ingest_reconcile_failed",
			"module", "content-review/ingestion-service",
			"layer", "worker",
			"submission_id", job.SubmissionID,
			"error", err.Error(),
		)
	}

	succeeded, failed := tallyResults(results)
	c.notifyOutcome(ctx, job, submission, status, succeeded, failed)

	logger.Info("ingest job processed",
		"event", "ingest_job_processed",
		"module", "content-review/ingestion-service",
		"layer", "worker",
		"job_id", job.JobID,
		"submission_id", job.SubmissionID,
		"files_ok", succeeded,
		"files_failed", failed,
		"submission_status", status,
	)
}

func (c IngestConsumer) processFile(
	ctx context.Context,
	job entities.IngestionJob,
	file entities.StagedFile,
	onProgress func(fraction float64),
) entities.FileResult {
	logger := application.ResolveLogger(c.Logger)
	result := entities.FileResult{LocalPath: file.LocalPath, MediaID: file.MediaID}

	uploadPath := file.LocalPath
	if file.Kind.Transcoded() {
		output, err := c.Transcoder.Transcode(ctx, file.LocalPath, onProgress)
		if err != nil {
			logger.Error("transcode failed",
				"event", "ingest_transcode_failed",
				"module", "content-review/ingestion-service",
				"layer", "worker",
				"submission_id", job.SubmissionID,
				"path", file.LocalPath,
				"error", err.Error(),
			)
			result.Failed = true
			result.Error = domainerrors.ErrTranscodeFailed.Error()
			return result
		}
		uploadPath = output.Path
		defer removeQuietly(output.Path)
	}

	fileID := file.MediaID
	if fileID == "" {
		generated, err := c.IDGen.NewID(ctx)
		if err != nil {
			result.Failed = true
			result.Error = err.Error()
			return result
		}
		fileID = generated
	}
	key := objectKey(job.SubmissionID, fileID, uploadPath)

	url, err := c.Blobs.Upload(ctx, uploadPath, key)
	if err != nil {
		logger.Error("storage upload failed",
			"event", "ingest_upload_failed",
			"module", "content-review/ingestion-service",
			"layer", "worker",
			"submission_id", job.SubmissionID,
			"key", key,
			"error", err.Error(),
		)
		result.Failed = true
		result.Error = domainerrors.ErrUploadFailed.Error()
		return result
	}
	result.URL = url

	if file.MediaID != "" {
		if err := c.Review.ReplaceMedia(ctx, file.MediaID, url); err != nil {
			result.Failed = true
			result.Error = err.Error()
			return result
		}
		return result
	}

	mediaID, err := c.Review.AttachMedia(ctx, ports.MediaAttachment{
		SubmissionID: job.SubmissionID,
		Kind:         file.Kind,
		URL:          url,
	})
	if err != nil {
		result.Failed = true
		result.Error = err.Error()
		return result
	}
	result.MediaID = mediaID
	return result
}

func (c IngestConsumer) notifyOutcome(
	ctx context.Context,
	job entities.IngestionJob,
	submission ports.SubmissionInfo,
	status string,
	succeeded int,
	failed int,
) {
	body := fmt.Sprintf("%d of %d files processed", succeeded, succeeded+failed)
	notificationType := "content_processed"
	if failed > 0 {
		notificationType = "content_partially_failed"
	}
	_ = c.Progress.Notify(ctx, job.CallerID, notificationType, job.SubmissionID, body)

	if succeeded == 0 {
		return
	}
	watchers, err := c.Review.Watchers(ctx, submission.CampaignID)
	if err != nil {
		return
	}
	for _, watcher := range watchers {
		_ = c.Progress.Notify(ctx, watcher, "content_uploaded", job.SubmissionID, status)
	}
}

func tallyResults(results []entities.FileResult) (succeeded int, failed int) {
	for _, result := range results {
		if result.Failed {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}

func objectKey(submissionID string, fileID string, path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return fmt.Sprintf("submissions/%s/%s%s", submissionID, fileID, ext)
}

func cleanupStaged(files []entities.StagedFile) {
	for _, file := range files {
		removeQuietly(file.LocalPath)
	}
}

func removeQuietly(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	_ = os.Remove(path)
}
