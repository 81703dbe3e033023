package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing every review-service port. It is
// the default wiring for tests and local runs; the mutex stands in for the
// row-level guarantees the postgres adapter gets from the database.
type Store struct {
	mu sync.RWMutex

	submissions  map[string]entities.Submission
	media        map[string]entities.MediaItem
	feedback     map[string]entities.Feedback
	dependencies map[string]entities.SubmissionDependency
	audits       []entities.SubmissionAudit
	policies     map[string]entities.ReviewPolicy
	reviewers    map[string][]string
	observers    []string
	clients      map[string]map[string]bool
	outbox       []outboxRow
	dedup        map[string]dedupRow
}

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRow struct {
	payloadHash string
	expiresAt   time.Time
}

func NewStore(seed []entities.Submission) *Store {
	submissions := make(map[string]entities.Submission, len(seed))
	for _, item := range seed {
		submissions[item.SubmissionID] = item
	}
	return &Store{
		submissions:  submissions,
		media:        make(map[string]entities.MediaItem),
		feedback:     make(map[string]entities.Feedback),
		dependencies: make(map[string]entities.SubmissionDependency),
		policies:     make(map[string]entities.ReviewPolicy),
		reviewers:    make(map[string][]string),
		clients:      make(map[string]map[string]bool),
		dedup:        make(map[string]dedupRow),
	}
}

// SeedPolicy registers the review policy for a campaign.
func (s *Store) SeedPolicy(policy entities.ReviewPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.CampaignID] = policy
}

// SeedReviewers registers campaign reviewers and superadmin observers.
func (s *Store) SeedReviewers(campaignID string, reviewers []string, observers []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewers[campaignID] = append([]string(nil), reviewers...)
	s.observers = append([]string(nil), observers...)
}

// SeedClient authorizes a client actor for a campaign.
func (s *Store) SeedClient(campaignID, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[campaignID] == nil {
		s.clients[campaignID] = make(map[string]bool)
	}
	s.clients[campaignID][clientID] = true
}

func (s *Store) CreateSubmission(_ context.Context, submission entities.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[submission.SubmissionID] = submission
	return nil
}

func (s *Store) GetSubmission(_ context.Context, submissionID string) (entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.submissions[strings.TrimSpace(submissionID)]
	if !exists {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return item, nil
}

func (s *Store) ListSubmissions(_ context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Submission, 0, len(s.submissions))
	for _, item := range s.submissions {
		if strings.TrimSpace(filter.CampaignID) != "" && item.CampaignID != strings.TrimSpace(filter.CampaignID) {
			continue
		}
		if strings.TrimSpace(filter.CreatorID) != "" && item.CreatorID != strings.TrimSpace(filter.CreatorID) {
			continue
		}
		if filter.Kind != "" && item.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateSubmission(_ context.Context, submission entities.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[submission.SubmissionID]; !exists {
		return domainerrors.ErrSubmissionNotFound
	}
	s.submissions[submission.SubmissionID] = submission
	return nil
}

func (s *Store) UpdateSubmissionStatus(
	_ context.Context,
	submissionID string,
	status entities.SubmissionStatus,
	expectedVersion int64,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.submissions[strings.TrimSpace(submissionID)]
	if !exists {
		return domainerrors.ErrSubmissionNotFound
	}
	if item.Version != expectedVersion {
		return domainerrors.ErrVersionConflict
	}
	item.Status = status
	item.Version++
	item.UpdatedAt = updatedAt.UTC()
	if status == entities.SubmissionStatusWithdrawn {
		withdrawnAt := updatedAt.UTC()
		item.WithdrawnAt = &withdrawnAt
	}
	s.submissions[item.SubmissionID] = item
	return nil
}

func (s *Store) DeleteSubmission(_ context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, strings.TrimSpace(submissionID))
	return nil
}

func (s *Store) AppendAudit(_ context.Context, audit entities.SubmissionAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, audit)
	return nil
}

// Audits returns a copy of the audit trail for assertions.
func (s *Store) Audits() []entities.SubmissionAudit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.SubmissionAudit(nil), s.audits...)
}

func (s *Store) CreateMediaItem(_ context.Context, item entities.MediaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[item.MediaID] = item
	return nil
}

func (s *Store) GetMediaItem(_ context.Context, mediaID string) (entities.MediaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.media[strings.TrimSpace(mediaID)]
	if !exists {
		return entities.MediaItem{}, domainerrors.ErrMediaItemNotFound
	}
	return item, nil
}

func (s *Store) ListMediaBySubmission(_ context.Context, submissionID string) ([]entities.MediaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mediaFor(map[string]bool{strings.TrimSpace(submissionID): true}), nil
}

func (s *Store) ListMediaBySubmissions(_ context.Context, submissionIDs []string) ([]entities.MediaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(submissionIDs))
	for _, id := range submissionIDs {
		wanted[strings.TrimSpace(id)] = true
	}
	return s.mediaFor(wanted), nil
}

func (s *Store) mediaFor(wanted map[string]bool) []entities.MediaItem {
	items := make([]entities.MediaItem, 0)
	for _, item := range s.media {
		if wanted[item.SubmissionID] {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].MediaID < items[j].MediaID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (s *Store) UpdateMediaItem(_ context.Context, item entities.MediaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.media[item.MediaID]; !exists {
		return domainerrors.ErrMediaItemNotFound
	}
	s.media[item.MediaID] = item
	return nil
}

func (s *Store) DeleteMediaBySubmission(_ context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.media {
		if item.SubmissionID == strings.TrimSpace(submissionID) {
			delete(s.media, id)
		}
	}
	return nil
}

func (s *Store) CreateFeedback(_ context.Context, feedback entities.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[feedback.FeedbackID] = feedback
	return nil
}

func (s *Store) GetFeedback(_ context.Context, feedbackID string) (entities.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.feedback[strings.TrimSpace(feedbackID)]
	if !exists {
		return entities.Feedback{}, domainerrors.ErrFeedbackNotFound
	}
	return item, nil
}

func (s *Store) ListFeedbackBySubmission(_ context.Context, submissionID string) ([]entities.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Feedback, 0)
	for _, item := range s.feedback {
		if item.SubmissionID == strings.TrimSpace(submissionID) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateFeedback(_ context.Context, feedback entities.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.feedback[feedback.FeedbackID]; !exists {
		return domainerrors.ErrFeedbackNotFound
	}
	s.feedback[feedback.FeedbackID] = feedback
	return nil
}

func (s *Store) DeleteFeedbackBySubmission(_ context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.feedback {
		if item.SubmissionID == strings.TrimSpace(submissionID) {
			delete(s.feedback, id)
		}
	}
	return nil
}

func (s *Store) CreateDependency(_ context.Context, dependency entities.SubmissionDependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dependencies[dependency.DependencyID] = dependency
	return nil
}

func (s *Store) ListDependents(_ context.Context, baseID string) ([]entities.SubmissionDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.SubmissionDependency, 0)
	for _, edge := range s.dependencies {
		if edge.BaseID == strings.TrimSpace(baseID) {
			items = append(items, edge)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListBases(_ context.Context, dependentID string) ([]entities.SubmissionDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.SubmissionDependency, 0)
	for _, edge := range s.dependencies {
		if edge.DependentID == strings.TrimSpace(dependentID) {
			items = append(items, edge)
		}
	}
	return items, nil
}

func (s *Store) DeleteDependenciesFor(_ context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, edge := range s.dependencies {
		if edge.BaseID == strings.TrimSpace(submissionID) || edge.DependentID == strings.TrimSpace(submissionID) {
			delete(s.dependencies, id)
		}
	}
	return nil
}

func (s *Store) GetPolicy(_ context.Context, campaignID string) (entities.ReviewPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, exists := s.policies[strings.TrimSpace(campaignID)]
	if !exists {
		return entities.ReviewPolicy{}, domainerrors.ErrPolicyNotFound
	}
	return policy, nil
}

func (s *Store) ListReviewers(_ context.Context, campaignID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.reviewers[strings.TrimSpace(campaignID)]...), nil
}

func (s *Store) ListObservers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.observers...), nil
}

func (s *Store) IsClientFor(_ context.Context, clientID string, campaignID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[strings.TrimSpace(campaignID)][strings.TrimSpace(clientID)], nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     uuid.NewString(),
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.outbox {
		if row.message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.dedup[eventID]; exists {
		return true, nil
	}
	s.dedup[eventID] = dedupRow{payloadHash: payloadHash, expiresAt: expiresAt}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
