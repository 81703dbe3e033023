package ports

import (
	"context"
	"time"

	"atelier/contexts/content-review/review-service/domain/entities"
	contractsv1 "atelier/contracts/gen/events/v1"
)

type SubmissionFilter struct {
	CampaignID string
	CreatorID  string
	Kind       entities.SubmissionKind
	Status     entities.SubmissionStatus
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission entities.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]entities.Submission, error)
	UpdateSubmission(ctx context.Context, submission entities.Submission) error
	// UpdateSubmissionStatus writes the reconciled status only when the row
	// still carries the expected version; ErrVersionConflict otherwise.
	UpdateSubmissionStatus(
		ctx context.Context,
		submissionID string,
		status entities.SubmissionStatus,
		expectedVersion int64,
		updatedAt time.Time,
	) error
	DeleteSubmission(ctx context.Context, submissionID string) error
	AppendAudit(ctx context.Context, audit entities.SubmissionAudit) error
}

type MediaRepository interface {
	CreateMediaItem(ctx context.Context, item entities.MediaItem) error
	GetMediaItem(ctx context.Context, mediaID string) (entities.MediaItem, error)
	ListMediaBySubmission(ctx context.Context, submissionID string) ([]entities.MediaItem, error)
	ListMediaBySubmissions(ctx context.Context, submissionIDs []string) ([]entities.MediaItem, error)
	UpdateMediaItem(ctx context.Context, item entities.MediaItem) error
	DeleteMediaBySubmission(ctx context.Context, submissionID string) error
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, feedback entities.Feedback) error
	GetFeedback(ctx context.Context, feedbackID string) (entities.Feedback, error)
	ListFeedbackBySubmission(ctx context.Context, submissionID string) ([]entities.Feedback, error)
	UpdateFeedback(ctx context.Context, feedback entities.Feedback) error
	DeleteFeedbackBySubmission(ctx context.Context, submissionID string) error
}

type DependencyRepository interface {
	CreateDependency(ctx context.Context, dependency entities.SubmissionDependency) error
	// ListDependents returns edges whose base is the given submission.
	ListDependents(ctx context.Context, baseID string) ([]entities.SubmissionDependency, error)
	// ListBases returns edges the given submission depends on.
	ListBases(ctx context.Context, dependentID string) ([]entities.SubmissionDependency, error)
	DeleteDependenciesFor(ctx context.Context, submissionID string) error
}

// PolicyProvider projects read-only review policy out of the campaign
// aggregate, which is owned elsewhere.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, campaignID string) (entities.ReviewPolicy, error)
}

// Notifier is the outbound event sink: realtime notifications and transcode
// progress, both best-effort.
type Notifier interface {
	Notify(ctx context.Context, userID string, event Notification) error
	Progress(ctx context.Context, userID string, submissionID string, fraction float64) error
}

type Notification struct {
	Type         string
	SubmissionID string
	CampaignID   string
	Body         string
}

// ReviewerDirectory lists who must hear about submission changes besides the
// creator: campaign reviewers and superadmin observers.
type ReviewerDirectory interface {
	ListReviewers(ctx context.Context, campaignID string) ([]string, error)
	ListObservers(ctx context.Context) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// IngestionEnqueuer hands a staged upload to the ingestion pipeline. The
// call returns once the job is queued, not once the files are processed.
type IngestionEnqueuer interface {
	EnqueueIngestion(ctx context.Context, job IngestionRequest) error
}

type StagedFile struct {
	Kind      entities.MediaKind
	LocalPath string
	// MediaID is set on resubmission so the worker updates the existing row
	// in place instead of creating a new one.
	MediaID string
}

type IngestionRequest struct {
	SubmissionID     string
	CallerID         string
	Caption          string
	RawFileLink      string
	Files            []StagedFile
	PreserveExisting bool
}
