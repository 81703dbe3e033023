package ports

import (
	"context"
	"time"

	"atelier/contexts/content-review/ingestion-service/domain/entities"
)

// JobQueue carries upload batches from the review surface to the ingest
// workers. Delivery is at most once: a job handed to a worker is gone from
// the queue, and a worker crash mid-job loses it. The creator recovers by
// re-uploading; the review state machine absorbs the retry.
type JobQueue interface {
	Enqueue(ctx context.Context, job entities.IngestionJob) error
	Dequeue(ctx context.Context) (entities.IngestionJob, error)
}

// Transcoder turns a staged video into the deliverable artifact.
// onProgress receives fractions in [0,1] while the transcode runs; a nil
// callback is legal and long transcodes simply report nothing.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath string, onProgress func(fraction float64)) (entities.TranscodeOutput, error)
}

// BlobStore persists a processed file and returns its public URL.
type BlobStore interface {
	Upload(ctx context.Context, localPath string, key string) (string, error)
}

// SubmissionInfo is the slice of the review aggregate the pipeline needs.
type SubmissionInfo struct {
	SubmissionID string
	CampaignID   string
	CreatorID    string
	Withdrawn    bool
}

type MediaAttachment struct {
	SubmissionID string
	Kind         entities.MediaKind
	URL          string
}

// ReviewGateway is the pipeline's writing surface into the review store.
// Media mutations go through here so item status and revision accounting
// stay owned by the review side.
type ReviewGateway interface {
	Submission(ctx context.Context, submissionID string) (SubmissionInfo, error)
	// SetSubmissionContent persists caption and raw file link. It applies
	// even when every file in the batch failed.
	SetSubmissionContent(ctx context.Context, submissionID string, caption string, rawFileLink string) error
	// AttachMedia creates a new pending media row and returns its id.
	AttachMedia(ctx context.Context, attachment MediaAttachment) (string, error)
	// ReplaceMedia points an existing row at the new artifact, resets it to
	// pending, and bumps its revision count.
	ReplaceMedia(ctx context.Context, mediaID string, url string) error
	// Reconcile recomputes the submission status after the batch landed.
	Reconcile(ctx context.Context, submissionID string) (string, error)
	// Watchers lists reviewer and observer user ids for the campaign.
	Watchers(ctx context.Context, campaignID string) ([]string, error)
}

// ProgressSink streams per-batch progress and terminal notifications to
// users. Both are best-effort.
type ProgressSink interface {
	Progress(ctx context.Context, userID string, submissionID string, fraction float64) error
	Notify(ctx context.Context, userID string, notificationType string, submissionID string, body string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
