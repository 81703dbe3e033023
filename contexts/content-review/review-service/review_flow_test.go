package reviewservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"atelier/contexts/content-review/review-service/adapters/memory"
	"atelier/contexts/content-review/review-service/application/commands"
	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"
	httptransport "atelier/contexts/content-review/review-service/transport/http"
)

type fakeNotifier struct {
	mu      sync.Mutex
	notices []ports.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, _ string, event ports.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, event)
	return nil
}

func (f *fakeNotifier) Progress(context.Context, string, string, float64) error {
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
}

func (f *fakePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, event := range f.events {
		types = append(types, event.EventType)
	}
	return types
}

type fakeSubscriber struct {
	handler func(context.Context, ports.EventEnvelope) error
}

func (f *fakeSubscriber) Subscribe(
	_ context.Context,
	_ string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	f.handler = handler
	return nil
}

// syncIngest stands in for the ingestion pipeline: it lands the staged
// files as media rows immediately and reconciles, so state machine tests
// need no queue.
type syncIngest struct {
	store     *memory.Store
	reconcile *commands.ReconcileUseCase
	seq       int
}

func (s *syncIngest) EnqueueIngestion(ctx context.Context, job ports.IngestionRequest) error {
	submission, err := s.store.GetSubmission(ctx, job.SubmissionID)
	if err != nil {
		return err
	}
	submission.Caption = job.Caption
	submission.RawFileLink = job.RawFileLink
	if err := s.store.UpdateSubmission(ctx, submission); err != nil {
		return err
	}
	for _, file := range job.Files {
		if file.MediaID != "" {
			item, err := s.store.GetMediaItem(ctx, file.MediaID)
			if err != nil {
				return err
			}
			item.Status = entities.MediaStatusPending
			item.URL = "https://cdn.test/" + file.LocalPath
			item.RevisionCount++
			if err := s.store.UpdateMediaItem(ctx, item); err != nil {
				return err
			}
			continue
		}
		s.seq++
		err := s.store.CreateMediaItem(ctx, entities.MediaItem{
			MediaID:      fmt.Sprintf("media-%d", s.seq),
			SubmissionID: job.SubmissionID,
			Kind:         file.Kind,
			URL:          "https://cdn.test/" + file.LocalPath,
			Status:       entities.MediaStatusPending,
			CreatedAt:    s.store.Now(),
			UpdatedAt:    s.store.Now(),
		})
		if err != nil {
			return err
		}
	}
	_, err = s.reconcile.Execute(ctx, job.SubmissionID)
	return err
}

type testEnv struct {
	module     Module
	ingest     *syncIngest
	notifier   *fakeNotifier
	publisher  *fakePublisher
	subscriber *fakeSubscriber
}

func newTestEnv(origin entities.CampaignOrigin) *testEnv {
	ingest := &syncIngest{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	subscriber := &fakeSubscriber{}
	module := NewInMemoryModule(nil, ingest, publisher, subscriber, notifier, nil)
	ingest.store = module.Store
	ingest.reconcile = &module.Reconcile

	module.Store.SeedPolicy(entities.ReviewPolicy{CampaignID: "camp-1", Origin: origin})
	module.Store.SeedReviewers("camp-1", []string{"reviewer-1"}, []string{"admin-1"})
	module.Store.SeedClient("camp-1", "client-1")
	return &testEnv{
		module:     module,
		ingest:     ingest,
		notifier:   notifier,
		publisher:  publisher,
		subscriber: subscriber,
	}
}

func (e *testEnv) createDefaultPlan(t *testing.T) map[entities.SubmissionKind]string {
	t.Helper()
	resp, err := e.module.Handler.CreatePlanHandler(context.Background(), "camp-1", httptransport.CreatePlanRequest{
		CreatorID: "creator-1",
	})
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	byKind := make(map[entities.SubmissionKind]string, len(resp.Items))
	for _, item := range resp.Items {
		byKind[entities.SubmissionKind(item.Kind)] = item.SubmissionID
	}
	return byKind
}

func (e *testEnv) status(t *testing.T, submissionID string) entities.SubmissionStatus {
	t.Helper()
	submission, err := e.module.Store.GetSubmission(context.Background(), submissionID)
	if err != nil {
		t.Fatalf("get submission %s: %v", submissionID, err)
	}
	return submission.Status
}

func (e *testEnv) upload(t *testing.T, submissionID string, files ...httptransport.StagedFileRequest) {
	t.Helper()
	_, err := e.module.Handler.UploadContentHandler(context.Background(), "creator-1", submissionID,
		httptransport.UploadContentRequest{Caption: "take one", Files: files},
	)
	if err != nil {
		t.Fatalf("upload to %s failed: %v", submissionID, err)
	}
}

func (e *testEnv) soleMediaID(t *testing.T, submissionID string) string {
	t.Helper()
	items, err := e.module.Store.ListMediaBySubmission(context.Background(), submissionID)
	if err != nil {
		t.Fatalf("list media: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one media item, got %d", len(items))
	}
	return items[0].MediaID
}

func TestDraftReviewLoopEndToEnd(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]
	finalDraft := plan[entities.SubmissionKindFinalDraft]
	posting := plan[entities.SubmissionKindPosting]

	if got := env.status(t, firstDraft); got != entities.SubmissionStatusInProgress {
		t.Fatalf("first draft should start in_progress, got %s", got)
	}
	if got := env.status(t, finalDraft); got != entities.SubmissionStatusNotStarted {
		t.Fatalf("final draft should start not_started, got %s", got)
	}

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	if got := env.status(t, firstDraft); got != entities.SubmissionStatusPendingReview {
		t.Fatalf("expected pending_review after upload, got %s", got)
	}

	mediaID := env.soleMediaID(t, firstDraft)

	// Reviewer forwards to the client.
	resp, err := env.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1", mediaID,
		httptransport.DecideRequest{Approve: true})
	if err != nil {
		t.Fatalf("reviewer approve failed: %v", err)
	}
	if resp.SubmissionStatus != string(entities.SubmissionStatusSentToClient) {
		t.Fatalf("expected sent_to_client, got %s", resp.SubmissionStatus)
	}

	// Client wants changes; feedback stays invisible to the creator until
	// the reviewer forwards it.
	resp, err = env.module.Handler.ClientDecideHandler(ctx, "client-1", mediaID,
		httptransport.DecideRequest{Approve: false, Feedback: "logo too small"})
	if err != nil {
		t.Fatalf("client decide failed: %v", err)
	}
	if resp.SubmissionStatus != string(entities.SubmissionStatusClientFeedback) {
		t.Fatalf("expected client_feedback, got %s", resp.SubmissionStatus)
	}

	resp, err = env.module.Handler.ForwardFeedbackHandler(ctx, "reviewer-1", mediaID,
		httptransport.ForwardFeedbackRequest{ReviewerNote: "make the logo bigger"})
	if err != nil {
		t.Fatalf("forward feedback failed: %v", err)
	}
	if resp.SubmissionStatus != string(entities.SubmissionStatusChangesRequired) {
		t.Fatalf("expected changes_required, got %s", resp.SubmissionStatus)
	}

	// Resubmission pairs with the flagged row in place.
	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v2.mp4"})
	if got := env.soleMediaID(t, firstDraft); got != mediaID {
		t.Fatalf("resubmission must reuse media row %s, got %s", mediaID, got)
	}
	revised, err := env.module.Store.GetMediaItem(ctx, mediaID)
	if err != nil {
		t.Fatalf("get media: %v", err)
	}
	if revised.RevisionCount != 1 || revised.Status != entities.MediaStatusPending {
		t.Fatalf("expected pending revision 1, got %s revision %d", revised.Status, revised.RevisionCount)
	}
	if got := env.status(t, firstDraft); got != entities.SubmissionStatusPendingReview {
		t.Fatalf("expected pending_review after resubmission, got %s", got)
	}

	// Second loop goes clean.
	if _, err := env.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1", mediaID,
		httptransport.DecideRequest{Approve: true}); err != nil {
		t.Fatalf("second reviewer approve failed: %v", err)
	}
	resp, err = env.module.Handler.ClientDecideHandler(ctx, "client-1", mediaID,
		httptransport.DecideRequest{Approve: true})
	if err != nil {
		t.Fatalf("client approve failed: %v", err)
	}
	if resp.SubmissionStatus != string(entities.SubmissionStatusClientApproved) {
		t.Fatalf("expected client_approved, got %s", resp.SubmissionStatus)
	}

	// The draft went through a revision, so the final draft activates
	// instead of completing vacuously.
	if got := env.status(t, finalDraft); got != entities.SubmissionStatusInProgress {
		t.Fatalf("final draft should activate, got %s", got)
	}
	if got := env.status(t, posting); got != entities.SubmissionStatusNotStarted {
		t.Fatalf("posting must stay gated behind the final draft, got %s", got)
	}
}

func TestCleanFirstDraftSkipsFinalDraft(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]
	finalDraft := plan[entities.SubmissionKindFinalDraft]
	posting := plan[entities.SubmissionKindPosting]

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	mediaID := env.soleMediaID(t, firstDraft)

	if _, err := env.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1", mediaID,
		httptransport.DecideRequest{Approve: true}); err != nil {
		t.Fatalf("reviewer approve failed: %v", err)
	}
	if _, err := env.module.Handler.ClientDecideHandler(ctx, "client-1", mediaID,
		httptransport.DecideRequest{Approve: true}); err != nil {
		t.Fatalf("client approve failed: %v", err)
	}

	// No revision round happened, so the final draft is unnecessary and the
	// posting step wakes directly.
	if got := env.status(t, finalDraft); got != entities.SubmissionStatusCompleted {
		t.Fatalf("final draft should complete vacuously, got %s", got)
	}
	if got := env.status(t, posting); got != entities.SubmissionStatusInProgress {
		t.Fatalf("posting should activate, got %s", got)
	}
}

func TestInternalOriginFinishesAtReviewerApproval(t *testing.T) {
	env := newTestEnv(entities.OriginInternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	mediaID := env.soleMediaID(t, firstDraft)

	resp, err := env.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1", mediaID,
		httptransport.DecideRequest{Approve: true})
	if err != nil {
		t.Fatalf("reviewer approve failed: %v", err)
	}
	if resp.SubmissionStatus != string(entities.SubmissionStatusApproved) {
		t.Fatalf("internal campaign should finish at approved, got %s", resp.SubmissionStatus)
	}
}

func TestUploadRejectedOutsideUploadStates(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]
	finalDraft := plan[entities.SubmissionKindFinalDraft]

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})

	_, err := env.module.Handler.UploadContentHandler(context.Background(), "creator-1", firstDraft,
		httptransport.UploadContentRequest{Files: []httptransport.StagedFileRequest{{Kind: "video", LocalPath: "v2.mp4"}}},
	)
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("upload during review must fail, got %v", err)
	}

	// A gated dependent rejects uploads until its base is accepted, even
	// though not_started is otherwise an upload state.
	_, err = env.module.Handler.UploadContentHandler(context.Background(), "creator-1", finalDraft,
		httptransport.UploadContentRequest{Files: []httptransport.StagedFileRequest{{Kind: "video", LocalPath: "v3.mp4"}}},
	)
	if !errors.Is(err, domainerrors.ErrDependencyNotSatisfied) {
		t.Fatalf("upload to a gated dependent must fail on its base, got %v", err)
	}
	if got := env.status(t, finalDraft); got != entities.SubmissionStatusNotStarted {
		t.Fatalf("gated dependent must stay not_started, got %s", got)
	}

	// Wrong creator.
	_, err = env.module.Handler.UploadContentHandler(context.Background(), "creator-2", firstDraft,
		httptransport.UploadContentRequest{Files: []httptransport.StagedFileRequest{{Kind: "video", LocalPath: "v4.mp4"}}},
	)
	if !errors.Is(err, domainerrors.ErrUnauthorizedActor) {
		t.Fatalf("expected unauthorized actor, got %v", err)
	}
}

func TestReviewerHardRejectIsTerminal(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	mediaID := env.soleMediaID(t, firstDraft)

	resp, err := env.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1", mediaID,
		httptransport.DecideRequest{Reject: true, Feedback: "off brief", ReasonCodes: []string{"brand"}})
	if err != nil {
		t.Fatalf("hard reject failed: %v", err)
	}
	if resp.SubmissionStatus != string(entities.SubmissionStatusRejected) {
		t.Fatalf("expected rejected, got %s", resp.SubmissionStatus)
	}

	rejected, err := env.module.Store.GetMediaItem(ctx, mediaID)
	if err != nil {
		t.Fatalf("get media: %v", err)
	}
	if rejected.Status != entities.MediaStatusRejected {
		t.Fatalf("expected media rejected, got %s", rejected.Status)
	}

	// Rejected is absorbing: no resubmission.
	_, err = env.module.Handler.UploadContentHandler(ctx, "creator-1", firstDraft,
		httptransport.UploadContentRequest{Files: []httptransport.StagedFileRequest{{Kind: "video", LocalPath: "v2.mp4"}}},
	)
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("upload after rejection must fail, got %v", err)
	}

	if err := env.module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay: %v", err)
	}
	found := false
	for _, eventType := range env.publisher.eventTypes() {
		if eventType == commands.EventSubmissionRejected {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in outbox, got %v", commands.EventSubmissionRejected, env.publisher.eventTypes())
	}

	// Approve and reject together are contradictory.
	env2 := newTestEnv(entities.OriginExternal)
	plan2 := env2.createDefaultPlan(t)
	env2.upload(t, plan2[entities.SubmissionKindFirstDraft], httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	_, err = env2.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1",
		env2.soleMediaID(t, plan2[entities.SubmissionKindFirstDraft]),
		httptransport.DecideRequest{Approve: true, Reject: true})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for approve+reject, got %v", err)
	}
}

func TestVideoQuotaEnforced(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	env.module.Store.SeedPolicy(entities.ReviewPolicy{
		CampaignID: "camp-1",
		Origin:     entities.OriginExternal,
		VideoQuota: 1,
	})

	resp, err := env.module.Handler.CreatePlanHandler(context.Background(), "camp-1", httptransport.CreatePlanRequest{
		CreatorID: "creator-1",
		Plan:      []httptransport.CreatePlanStepRequest{{Kind: string(entities.SubmissionKindVideoUnit), DependsOn: -1}},
	})
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	videoUnit := resp.Items[0].SubmissionID

	_, err = env.module.Handler.UploadContentHandler(context.Background(), "creator-1", videoUnit,
		httptransport.UploadContentRequest{Files: []httptransport.StagedFileRequest{
			{Kind: "video", LocalPath: "v1.mp4"},
			{Kind: "video", LocalPath: "v2.mp4"},
		}},
	)
	if !errors.Is(err, domainerrors.ErrVideoQuotaExceeded) {
		t.Fatalf("expected video quota violation, got %v", err)
	}

	env.upload(t, videoUnit, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	if got := env.status(t, videoUnit); got != entities.SubmissionStatusPendingReview {
		t.Fatalf("within-quota upload should enter review, got %s", got)
	}
}

func TestDuplicatePlanRejected(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	env.createDefaultPlan(t)

	_, err := env.module.Handler.CreatePlanHandler(context.Background(), "camp-1", httptransport.CreatePlanRequest{
		CreatorID: "creator-1",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateSubmissionPlan) {
		t.Fatalf("expected duplicate plan rejection, got %v", err)
	}
}

func TestWithdrawCascadesThroughDependents(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]
	finalDraft := plan[entities.SubmissionKindFinalDraft]
	posting := plan[entities.SubmissionKindPosting]

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})

	err := env.module.Handler.WithdrawSubmissionHandler(ctx, "reviewer-1", firstDraft,
		httptransport.WithdrawRequest{Reason: "creator dropped out"})
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	for _, id := range []string{firstDraft, finalDraft, posting} {
		if got := env.status(t, id); got != entities.SubmissionStatusWithdrawn {
			t.Fatalf("submission %s should be withdrawn, got %s", id, got)
		}
	}
	items, err := env.module.Store.ListMediaBySubmission(ctx, firstDraft)
	if err != nil {
		t.Fatalf("list media: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("withdrawal must delete media, found %d items", len(items))
	}
}

func TestCreatorAcceptedEventCreatesPlanOnce(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	if err := env.module.AcceptedConsumer.Start(ctx); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}
	if env.subscriber.handler == nil {
		t.Fatalf("consumer did not subscribe")
	}

	payload, _ := json.Marshal(map[string]string{"campaign_id": "camp-1", "creator_id": "creator-9"})
	event := ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: "creator.accepted",
		Data:      payload,
	}

	if err := env.subscriber.handler(ctx, event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	// Redelivery of the same event is absorbed by dedup.
	if err := env.subscriber.handler(ctx, event); err != nil {
		t.Fatalf("redelivery should be a no-op, got %v", err)
	}
	// A distinct event for the same pair hits the duplicate-plan guard.
	event.EventID = "evt-2"
	if err := env.subscriber.handler(ctx, event); err != nil {
		t.Fatalf("duplicate plan should be tolerated, got %v", err)
	}

	items, err := env.module.Store.ListSubmissions(ctx, ports.SubmissionFilter{
		CampaignID: "camp-1",
		CreatorID:  "creator-9",
	})
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected one three-step plan, got %d submissions", len(items))
	}
}

func TestOutboxRelayPublishesPendingOnce(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	env.createDefaultPlan(t)

	if err := env.module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	published := len(env.publisher.eventTypes())
	if published == 0 {
		t.Fatalf("plan creation should land in the outbox")
	}

	if err := env.module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(env.publisher.eventTypes()) != published {
		t.Fatalf("published rows must not be relayed twice")
	}
}

func TestDueDateEscalatorEmitsOverdue(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]

	submission, err := env.module.Store.GetSubmission(ctx, firstDraft)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	pastDue := time.Now().UTC().Add(-48 * time.Hour)
	submission.DueDate = &pastDue
	if err := env.module.Store.UpdateSubmission(ctx, submission); err != nil {
		t.Fatalf("update submission: %v", err)
	}

	// A submission that stays overdue escalates once, not once per cycle.
	for i := 0; i < 3; i++ {
		if err := env.module.DueDateEscalator.RunOnce(ctx); err != nil {
			t.Fatalf("escalator run failed: %v", err)
		}
	}
	if err := env.module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	overdue := 0
	for _, eventType := range env.publisher.eventTypes() {
		if eventType == "submission.overdue" {
			overdue++
		}
	}
	if overdue != 1 {
		t.Fatalf("expected exactly one submission.overdue, got %d in %v", overdue, env.publisher.eventTypes())
	}
}

func TestFeedbackVisibilityByRole(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	mediaID := env.soleMediaID(t, firstDraft)

	if _, err := env.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1", mediaID,
		httptransport.DecideRequest{Approve: true}); err != nil {
		t.Fatalf("reviewer approve failed: %v", err)
	}
	if _, err := env.module.Handler.ClientDecideHandler(ctx, "client-1", mediaID,
		httptransport.DecideRequest{Approve: false, Feedback: "redo the intro"}); err != nil {
		t.Fatalf("client decide failed: %v", err)
	}

	// Raw client feedback is reviewer-facing only.
	creatorView, err := env.module.Handler.GetSubmissionHandler(ctx, firstDraft, "creator")
	if err != nil {
		t.Fatalf("creator view failed: %v", err)
	}
	if len(creatorView.Submission.Feedback) != 0 {
		t.Fatalf("creator must not see unforwarded client feedback, got %d rows", len(creatorView.Submission.Feedback))
	}

	reviewerView, err := env.module.Handler.GetSubmissionHandler(ctx, firstDraft, "reviewer")
	if err != nil {
		t.Fatalf("reviewer view failed: %v", err)
	}
	if len(reviewerView.Submission.Feedback) != 1 {
		t.Fatalf("reviewer should see the client feedback, got %d rows", len(reviewerView.Submission.Feedback))
	}

	if _, err := env.module.Handler.ForwardFeedbackHandler(ctx, "reviewer-1", mediaID,
		httptransport.ForwardFeedbackRequest{ReviewerNote: "please redo the intro"}); err != nil {
		t.Fatalf("forward feedback failed: %v", err)
	}

	creatorView, err = env.module.Handler.GetSubmissionHandler(ctx, firstDraft, "creator")
	if err != nil {
		t.Fatalf("creator view failed: %v", err)
	}
	if len(creatorView.Submission.Feedback) != 1 {
		t.Fatalf("creator should see the forwarded note, got %d rows", len(creatorView.Submission.Feedback))
	}
}

func TestEditFeedbackAuthorOnly(t *testing.T) {
	env := newTestEnv(entities.OriginExternal)
	ctx := context.Background()
	plan := env.createDefaultPlan(t)
	firstDraft := plan[entities.SubmissionKindFirstDraft]

	env.upload(t, firstDraft, httptransport.StagedFileRequest{Kind: "video", LocalPath: "v1.mp4"})
	mediaID := env.soleMediaID(t, firstDraft)

	if _, err := env.module.Handler.ReviewerDecideHandler(ctx, "reviewer-1", mediaID,
		httptransport.DecideRequest{Approve: false, Feedback: "tighten the cut"}); err != nil {
		t.Fatalf("reviewer reject failed: %v", err)
	}

	rows, err := env.module.Store.ListFeedbackBySubmission(ctx, firstDraft)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one feedback row, got %d (err %v)", len(rows), err)
	}
	feedbackID := rows[0].FeedbackID

	err = env.module.Handler.EditFeedbackHandler(ctx, "client-1", feedbackID,
		httptransport.EditFeedbackRequest{Body: "hijacked"})
	if !errors.Is(err, domainerrors.ErrFeedbackNotEditable) {
		t.Fatalf("non-author edit must fail, got %v", err)
	}

	err = env.module.Handler.EditFeedbackHandler(ctx, "reviewer-1", feedbackID,
		httptransport.EditFeedbackRequest{Body: "tighten the cut, trim two seconds"})
	if err != nil {
		t.Fatalf("author edit failed: %v", err)
	}
	updated, err := env.module.Store.GetFeedback(ctx, feedbackID)
	if err != nil {
		t.Fatalf("get feedback: %v", err)
	}
	if updated.EditedAt == nil || updated.Body != "tighten the cut, trim two seconds" {
		t.Fatalf("edit did not stick: %+v", updated)
	}
}
