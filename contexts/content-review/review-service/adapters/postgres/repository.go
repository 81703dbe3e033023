package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateSubmission(ctx context.Context, submission entities.Submission) error {
	row := submissionModelFromEntity(submission)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateSubmissionPlan
		}
		return err
	}
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	var row submissionModel
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.Submission{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSubmissions(ctx context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	tx := r.db.WithContext(ctx).Model(&submissionModel{})
	if strings.TrimSpace(filter.CampaignID) != "" {
		tx = tx.Where("campaign_id = ?", strings.TrimSpace(filter.CampaignID))
	}
	if strings.TrimSpace(filter.CreatorID) != "" {
		tx = tx.Where("creator_id = ?", strings.TrimSpace(filter.CreatorID))
	}
	if filter.Kind != "" {
		tx = tx.Where("kind = ?", string(filter.Kind))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []submissionModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateSubmission(ctx context.Context, submission entities.Submission) error {
	row := submissionModelFromEntity(submission)
	result := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Where("submission_id = ?", row.SubmissionID).
		Updates(map[string]any{
			"caption":       row.Caption,
			"raw_file_link": row.RawFileLink,
			"due_date":      row.DueDate,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSubmissionNotFound
	}
	return nil
}

// UpdateSubmissionStatus is the optimistic write at the heart of the
// reconcile cycle: the status lands only if nobody bumped the version since
// the caller's read.
func (r *Repository) UpdateSubmissionStatus(
	ctx context.Context,
	submissionID string,
	status entities.SubmissionStatus,
	expectedVersion int64,
	updatedAt time.Time,
) error {
	updates := map[string]any{
		"status":     string(status),
		"version":    expectedVersion + 1,
		"updated_at": updatedAt.UTC(),
	}
	if status == entities.SubmissionStatusWithdrawn {
		updates["withdrawn_at"] = updatedAt.UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Where("version = ?", expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&submissionModel{}).
			Where("submission_id = ?", strings.TrimSpace(submissionID)).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrSubmissionNotFound
		}
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) DeleteSubmission(ctx context.Context, submissionID string) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Delete(&submissionModel{}).
		Error
}

func (r *Repository) AppendAudit(ctx context.Context, audit entities.SubmissionAudit) error {
	row := auditModel{
		AuditID:      strings.TrimSpace(audit.AuditID),
		SubmissionID: strings.TrimSpace(audit.SubmissionID),
		OldStatus:    string(audit.OldStatus),
		NewStatus:    string(audit.NewStatus),
		ActorID:      strings.TrimSpace(audit.ActorID),
		ActorRole:    strings.TrimSpace(audit.ActorRole),
		Reason:       strings.TrimSpace(audit.Reason),
		CreatedAt:    audit.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) CreateMediaItem(ctx context.Context, item entities.MediaItem) error {
	row := mediaModelFromEntity(item)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetMediaItem(ctx context.Context, mediaID string) (entities.MediaItem, error) {
	var row mediaModel
	err := r.db.WithContext(ctx).
		Where("media_id = ?", strings.TrimSpace(mediaID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MediaItem{}, domainerrors.ErrMediaItemNotFound
		}
		return entities.MediaItem{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListMediaBySubmission(ctx context.Context, submissionID string) ([]entities.MediaItem, error) {
	return r.listMedia(ctx, []string{strings.TrimSpace(submissionID)})
}

func (r *Repository) ListMediaBySubmissions(ctx context.Context, submissionIDs []string) ([]entities.MediaItem, error) {
	return r.listMedia(ctx, submissionIDs)
}

func (r *Repository) listMedia(ctx context.Context, submissionIDs []string) ([]entities.MediaItem, error) {
	if len(submissionIDs) == 0 {
		return nil, nil
	}
	var rows []mediaModel
	if err := r.db.WithContext(ctx).
		Where("submission_id IN ?", submissionIDs).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.MediaItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateMediaItem(ctx context.Context, item entities.MediaItem) error {
	row := mediaModelFromEntity(item)
	result := r.db.WithContext(ctx).
		Model(&mediaModel{}).
		Where("media_id = ?", row.MediaID).
		Updates(map[string]any{
			"url":            row.URL,
			"status":         row.Status,
			"feedback_note":  row.FeedbackNote,
			"reason_codes":   row.ReasonCodes,
			"revision_count": row.RevisionCount,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMediaItemNotFound
	}
	return nil
}

func (r *Repository) DeleteMediaBySubmission(ctx context.Context, submissionID string) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Delete(&mediaModel{}).
		Error
}

func (r *Repository) CreateFeedback(ctx context.Context, feedback entities.Feedback) error {
	row, err := feedbackModelFromEntity(feedback)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetFeedback(ctx context.Context, feedbackID string) (entities.Feedback, error) {
	var row feedbackModel
	err := r.db.WithContext(ctx).
		Where("feedback_id = ?", strings.TrimSpace(feedbackID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Feedback{}, domainerrors.ErrFeedbackNotFound
		}
		return entities.Feedback{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListFeedbackBySubmission(ctx context.Context, submissionID string) ([]entities.Feedback, error) {
	var rows []feedbackModel
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Feedback, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) UpdateFeedback(ctx context.Context, feedback entities.Feedback) error {
	row, err := feedbackModelFromEntity(feedback)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&feedbackModel{}).
		Where("feedback_id = ?", row.FeedbackID).
		Updates(map[string]any{
			"body":      row.Body,
			"edited_at": row.EditedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrFeedbackNotFound
	}
	return nil
}

func (r *Repository) DeleteFeedbackBySubmission(ctx context.Context, submissionID string) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Delete(&feedbackModel{}).
		Error
}

func (r *Repository) CreateDependency(ctx context.Context, dependency entities.SubmissionDependency) error {
	row := dependencyModel{
		DependencyID: strings.TrimSpace(dependency.DependencyID),
		DependentID:  strings.TrimSpace(dependency.DependentID),
		BaseID:       strings.TrimSpace(dependency.BaseID),
		CreatedAt:    dependency.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListDependents(ctx context.Context, baseID string) ([]entities.SubmissionDependency, error) {
	return r.listDependencies(ctx, "base_id", baseID)
}

func (r *Repository) ListBases(ctx context.Context, dependentID string) ([]entities.SubmissionDependency, error) {
	return r.listDependencies(ctx, "dependent_id", dependentID)
}

func (r *Repository) listDependencies(ctx context.Context, column, id string) ([]entities.SubmissionDependency, error) {
	var rows []dependencyModel
	if err := r.db.WithContext(ctx).
		Where(column+" = ?", strings.TrimSpace(id)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.SubmissionDependency, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.SubmissionDependency{
			DependencyID: row.DependencyID,
			DependentID:  row.DependentID,
			BaseID:       row.BaseID,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) DeleteDependenciesFor(ctx context.Context, submissionID string) error {
	return r.db.WithContext(ctx).
		Where("base_id = ? OR dependent_id = ?", strings.TrimSpace(submissionID), strings.TrimSpace(submissionID)).
		Delete(&dependencyModel{}).
		Error
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
