package workers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"atelier/contexts/content-review/ingestion-service/adapters/memory"
	reviewbridge "atelier/contexts/content-review/ingestion-service/adapters/review"
	"atelier/contexts/content-review/ingestion-service/domain/entities"
	ingesterrors "atelier/contexts/content-review/ingestion-service/domain/errors"
	"atelier/contexts/content-review/ingestion-service/ports"
	reviewmemory "atelier/contexts/content-review/review-service/adapters/memory"
	"atelier/contexts/content-review/review-service/application/commands"
	reviewentities "atelier/contexts/content-review/review-service/domain/entities"
	reviewports "atelier/contexts/content-review/review-service/ports"
	platformqueue "atelier/internal/platform/queue"
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, reviewports.Notification) error { return nil }
func (noopNotifier) Progress(context.Context, string, string, float64) error        { return nil }

type ingestFixture struct {
	store      *reviewmemory.Store
	queue      *platformqueue.JobQueue
	transcoder *memory.Transcoder
	blobs      *memory.BlobStore
	progress   *memory.ProgressRecorder
	consumer   IngestConsumer
}

func newIngestFixture(failPaths map[string]bool) *ingestFixture {
	store := reviewmemory.NewStore([]reviewentities.Submission{{
		SubmissionID: "sub-1",
		CampaignID:   "camp-1",
		CreatorID:    "creator-1",
		Kind:         reviewentities.SubmissionKindFirstDraft,
		Status:       reviewentities.SubmissionStatusInProgress,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}})
	store.SeedPolicy(reviewentities.ReviewPolicy{CampaignID: "camp-1", Origin: reviewentities.OriginExternal})
	store.SeedReviewers("camp-1", []string{"reviewer-1"}, nil)

	reconcile := commands.ReconcileUseCase{
		Submissions:  store,
		Media:        store,
		Dependencies: store,
		Policies:     store,
		Outbox:       store,
		Notifier:     noopNotifier{},
		Reviewers:    store,
		Clock:        store,
		IDGen:        store,
	}
	bridge := reviewbridge.Bridge{
		Submissions: store,
		Media:       store,
		Reviewers:   store,
		Reconciler:  reconcile,
		Clock:       store,
		IDGen:       store,
	}

	fixture := &ingestFixture{
		store:      store,
		queue:      platformqueue.NewJobQueue(8, nil),
		transcoder: &memory.Transcoder{FailPaths: failPaths},
		blobs:      memory.NewBlobStore(),
		progress:   &memory.ProgressRecorder{},
	}
	fixture.consumer = IngestConsumer{
		Queue:      fixture.queue,
		Transcoder: fixture.transcoder,
		Blobs:      fixture.blobs,
		Review:     bridge,
		Progress:   fixture.progress,
		Clock:      memory.Clock{},
		IDGen:      &memory.IDGen{},
	}
	return fixture
}

func TestIngestBatchIsolatesFileFailures(t *testing.T) {
	ctx := context.Background()
	fixture := newIngestFixture(map[string]bool{"/tmp/stage/v2.mp4": true})

	job := entities.IngestionJob{
		JobID:        "job-1",
		SubmissionID: "sub-1",
		CallerID:     "creator-1",
		Caption:      "three takes",
		Files: []entities.StagedFile{
			{Kind: entities.MediaKindVideo, LocalPath: "/tmp/stage/v1.mp4"},
			{Kind: entities.MediaKindVideo, LocalPath: "/tmp/stage/v2.mp4"},
			{Kind: entities.MediaKindVideo, LocalPath: "/tmp/stage/v3.mp4"},
		},
		EnqueuedAt: time.Now().UTC(),
	}
	if err := fixture.queue.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := fixture.consumer.RunOnce(ctx); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	// File 2 fails transcode; files 1 and 3 still land.
	items, err := fixture.store.ListMediaBySubmission(ctx, "sub-1")
	if err != nil {
		t.Fatalf("list media: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 surviving media items, got %d", len(items))
	}
	for _, item := range items {
		if item.URL == "" || item.Status != reviewentities.MediaStatusPending {
			t.Fatalf("landed item should be pending with a url, got %+v", item)
		}
	}

	submission, err := fixture.store.GetSubmission(ctx, "sub-1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if submission.Status != reviewentities.SubmissionStatusPendingReview {
		t.Fatalf("partial batch with the required kind still enters review, got %s", submission.Status)
	}
	if submission.Caption != "three takes" {
		t.Fatalf("caption must persist, got %q", submission.Caption)
	}

	// Two surviving transcodes each tick mid-file, plus one boundary tick
	// per file. The failed file contributes its boundary only.
	updates := fixture.progress.ProgressUpdates()
	if len(updates) != 5 {
		t.Fatalf("expected 5 progress updates, got %d: %+v", len(updates), updates)
	}
	prev := 0.0
	for _, update := range updates {
		if update.Fraction < prev {
			t.Fatalf("progress must not rewind: %+v", updates)
		}
		prev = update.Fraction
	}
	if first := updates[0].Fraction; first <= 0 || first >= 1.0/3 {
		t.Fatalf("first tick should land mid first file, got %v", first)
	}
	last := updates[len(updates)-1]
	if last.UserID != "creator-1" || last.Fraction != 1 {
		t.Fatalf("final progress should reach 1 for the uploader, got %+v", last)
	}

	var creatorNotice, watcherNotice bool
	for _, notice := range fixture.progress.Notices() {
		if notice.UserID == "creator-1" && notice.Type == "content_partially_failed" {
			creatorNotice = true
		}
		if notice.UserID == "reviewer-1" && notice.Type == "content_uploaded" {
			watcherNotice = true
		}
	}
	if !creatorNotice {
		t.Fatalf("uploader should hear about the failed file: %+v", fixture.progress.Notices())
	}
	if !watcherNotice {
		t.Fatalf("reviewers should hear about landed content: %+v", fixture.progress.Notices())
	}
}

func TestIngestResubmissionReplacesRowInPlace(t *testing.T) {
	ctx := context.Background()
	fixture := newIngestFixture(nil)

	existing := reviewentities.MediaItem{
		MediaID:      "media-1",
		SubmissionID: "sub-1",
		Kind:         reviewentities.MediaKindVideo,
		URL:          "mem://media/old",
		Status:       reviewentities.MediaStatusRevisionRequested,
		FeedbackNote: "needs a new intro",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := fixture.store.CreateMediaItem(ctx, existing); err != nil {
		t.Fatalf("seed media: %v", err)
	}

	job := entities.IngestionJob{
		JobID:        "job-2",
		SubmissionID: "sub-1",
		CallerID:     "creator-1",
		Files: []entities.StagedFile{
			{Kind: entities.MediaKindVideo, LocalPath: "/tmp/stage/v1-take2.mp4", MediaID: "media-1"},
		},
		EnqueuedAt: time.Now().UTC(),
	}
	if err := fixture.queue.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := fixture.consumer.RunOnce(ctx); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	item, err := fixture.store.GetMediaItem(ctx, "media-1")
	if err != nil {
		t.Fatalf("get media: %v", err)
	}
	if item.Status != reviewentities.MediaStatusPending {
		t.Fatalf("resubmitted row should reset to pending, got %s", item.Status)
	}
	if item.RevisionCount != 1 {
		t.Fatalf("revision count should increment, got %d", item.RevisionCount)
	}
	if item.URL == "mem://media/old" {
		t.Fatalf("url should point at the new artifact")
	}

	items, err := fixture.store.ListMediaBySubmission(ctx, "sub-1")
	if err != nil {
		t.Fatalf("list media: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("replacement must not add rows, got %d", len(items))
	}
}

func TestIngestEnqueuerStagesUploadsUnderOwnRoot(t *testing.T) {
	ctx := context.Background()
	fixture := newIngestFixture(nil)
	uploadDir := t.TempDir()
	stagingDir := t.TempDir()
	enqueuer := reviewbridge.Enqueuer{
		Queue:      fixture.queue,
		StagingDir: stagingDir,
		Clock:      memory.Clock{},
		IDGen:      &memory.IDGen{},
	}

	video := filepath.Join(uploadDir, "v1.mp4")
	photo := filepath.Join(uploadDir, "p1.jpg")
	for _, path := range []string{video, photo} {
		if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
			t.Fatalf("write upload: %v", err)
		}
	}

	err := enqueuer.EnqueueIngestion(ctx, reviewports.IngestionRequest{
		SubmissionID: "sub-1",
		CallerID:     "creator-1",
		Caption:      "take one",
		Files: []reviewports.StagedFile{
			{Kind: reviewentities.MediaKindVideo, LocalPath: video},
			{Kind: reviewentities.MediaKindPhoto, LocalPath: photo},
		},
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	job, err := fixture.queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if job.SubmissionID != "sub-1" || len(job.Files) != 2 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Files[1].Kind != entities.MediaKindPhoto {
		t.Fatalf("kind should carry across, got %s", job.Files[1].Kind)
	}
	for _, file := range job.Files {
		want := filepath.Join(stagingDir, "sub-1")
		if filepath.Dir(file.LocalPath) != want {
			t.Fatalf("file should stage under %s, got %s", want, file.LocalPath)
		}
		if _, err := os.Stat(file.LocalPath); err != nil {
			t.Fatalf("staged file should exist: %v", err)
		}
	}
	// The original upload paths no longer exist; the pipeline owns the rest.
	if _, err := os.Stat(video); !os.IsNotExist(err) {
		t.Fatalf("upload should move out of the caller directory, got %v", err)
	}
}

func TestIngestEnqueuerRefusesUnstageablePaths(t *testing.T) {
	ctx := context.Background()
	fixture := newIngestFixture(nil)
	enqueuer := reviewbridge.Enqueuer{
		Queue:      fixture.queue,
		StagingDir: t.TempDir(),
		Clock:      memory.Clock{},
		IDGen:      &memory.IDGen{},
	}

	for _, path := range []string{"", ".", "..", "/", "/var/uploads/.."} {
		err := enqueuer.EnqueueIngestion(ctx, reviewports.IngestionRequest{
			SubmissionID: "sub-1",
			CallerID:     "creator-1",
			Files: []reviewports.StagedFile{
				{Kind: reviewentities.MediaKindVideo, LocalPath: path},
			},
		})
		if !errors.Is(err, ingesterrors.ErrInvalidFile) {
			t.Fatalf("path %q should be refused, got %v", path, err)
		}
	}

	// A missing source file fails the stage move, not the queue.
	err := enqueuer.EnqueueIngestion(ctx, reviewports.IngestionRequest{
		SubmissionID: "sub-1",
		CallerID:     "creator-1",
		Files: []reviewports.StagedFile{
			{Kind: reviewentities.MediaKindVideo, LocalPath: "/nonexistent/v1.mp4"},
		},
	})
	if err == nil {
		t.Fatalf("missing upload should fail to stage")
	}
}

func TestIngestPhotoSkipsTranscode(t *testing.T) {
	ctx := context.Background()
	fixture := newIngestFixture(nil)

	job := entities.IngestionJob{
		JobID:        "job-3",
		SubmissionID: "sub-1",
		CallerID:     "creator-1",
		Files: []entities.StagedFile{
			{Kind: entities.MediaKindPhoto, LocalPath: "/tmp/stage/p1.jpg"},
		},
		EnqueuedAt: time.Now().UTC(),
	}
	if err := fixture.queue.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := fixture.consumer.RunOnce(ctx); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	if calls := fixture.transcoder.Calls(); len(calls) != 0 {
		t.Fatalf("photos must bypass the transcoder, got calls %v", calls)
	}
	items, err := fixture.store.ListMediaBySubmission(ctx, "sub-1")
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one photo item, got %d (err %v)", len(items), err)
	}
}

var _ ports.JobQueue = (*platformqueue.JobQueue)(nil)
