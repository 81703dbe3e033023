package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"atelier/contexts/content-review/review-service/domain/entities"
)

type submissionModel struct {
	SubmissionID string     `gorm:"column:submission_id;primaryKey"`
	CampaignID   string     `gorm:"column:campaign_id"`
	CreatorID    string     `gorm:"column:creator_id"`
	Kind         string     `gorm:"column:kind"`
	Status       string     `gorm:"column:status"`
	Caption      string     `gorm:"column:caption"`
	RawFileLink  string     `gorm:"column:raw_file_link"`
	DueDate      *time.Time `gorm:"column:due_date"`
	Version      int64      `gorm:"column:version"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	WithdrawnAt  *time.Time `gorm:"column:withdrawn_at"`
}

func (submissionModel) TableName() string {
	return "submissions"
}

func submissionModelFromEntity(item entities.Submission) submissionModel {
	return submissionModel{
		SubmissionID: strings.TrimSpace(item.SubmissionID),
		CampaignID:   strings.TrimSpace(item.CampaignID),
		CreatorID:    strings.TrimSpace(item.CreatorID),
		Kind:         string(item.Kind),
		Status:       string(item.Status),
		Caption:      item.Caption,
		RawFileLink:  strings.TrimSpace(item.RawFileLink),
		DueDate:      normalizeOptionalTime(item.DueDate),
		Version:      item.Version,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
		WithdrawnAt:  normalizeOptionalTime(item.WithdrawnAt),
	}
}

func (m submissionModel) toEntity() entities.Submission {
	return entities.Submission{
		SubmissionID: m.SubmissionID,
		CampaignID:   m.CampaignID,
		CreatorID:    m.CreatorID,
		Kind:         entities.SubmissionKind(m.Kind),
		Status:       entities.SubmissionStatus(m.Status),
		Caption:      m.Caption,
		RawFileLink:  m.RawFileLink,
		DueDate:      normalizeOptionalTime(m.DueDate),
		Version:      m.Version,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		WithdrawnAt:  normalizeOptionalTime(m.WithdrawnAt),
	}
}

type mediaModel struct {
	MediaID       string    `gorm:"column:media_id;primaryKey"`
	SubmissionID  string    `gorm:"column:submission_id"`
	Kind          string    `gorm:"column:kind"`
	URL           string    `gorm:"column:url"`
	Status        string    `gorm:"column:status"`
	FeedbackNote  string    `gorm:"column:feedback_note"`
	ReasonCodes   []byte    `gorm:"column:reason_codes"`
	RevisionCount int       `gorm:"column:revision_count"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (mediaModel) TableName() string {
	return "media_items"
}

func mediaModelFromEntity(item entities.MediaItem) mediaModel {
	reasons, _ := json.Marshal(item.ReasonCodes)
	return mediaModel{
		MediaID:       strings.TrimSpace(item.MediaID),
		SubmissionID:  strings.TrimSpace(item.SubmissionID),
		Kind:          string(item.Kind),
		URL:           strings.TrimSpace(item.URL),
		Status:        string(item.Status),
		FeedbackNote:  item.FeedbackNote,
		ReasonCodes:   reasons,
		RevisionCount: item.RevisionCount,
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m mediaModel) toEntity() entities.MediaItem {
	var reasons []string
	if len(m.ReasonCodes) > 0 {
		_ = json.Unmarshal(m.ReasonCodes, &reasons)
	}
	return entities.MediaItem{
		MediaID:       m.MediaID,
		SubmissionID:  m.SubmissionID,
		Kind:          entities.MediaKind(m.Kind),
		URL:           m.URL,
		Status:        entities.MediaItemStatus(m.Status),
		FeedbackNote:  m.FeedbackNote,
		ReasonCodes:   reasons,
		RevisionCount: m.RevisionCount,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type feedbackModel struct {
	FeedbackID       string     `gorm:"column:feedback_id;primaryKey"`
	SubmissionID     string     `gorm:"column:submission_id"`
	AuthorID         string     `gorm:"column:author_id"`
	AuthorRole       string     `gorm:"column:author_role"`
	Body             string     `gorm:"column:body"`
	MediaIDs         []byte     `gorm:"column:media_ids"`
	ReasonCodes      []byte     `gorm:"column:reason_codes"`
	VisibleToCreator bool       `gorm:"column:visible_to_creator"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	EditedAt         *time.Time `gorm:"column:edited_at"`
}

func (feedbackModel) TableName() string {
	return "submission_feedback"
}

func feedbackModelFromEntity(item entities.Feedback) (feedbackModel, error) {
	mediaIDs, err := json.Marshal(item.MediaIDs)
	if err != nil {
		return feedbackModel{}, err
	}
	reasons, err := json.Marshal(item.ReasonCodes)
	if err != nil {
		return feedbackModel{}, err
	}
	return feedbackModel{
		FeedbackID:       strings.TrimSpace(item.FeedbackID),
		SubmissionID:     strings.TrimSpace(item.SubmissionID),
		AuthorID:         strings.TrimSpace(item.AuthorID),
		AuthorRole:       string(item.AuthorRole),
		Body:             item.Body,
		MediaIDs:         mediaIDs,
		ReasonCodes:      reasons,
		VisibleToCreator: item.VisibleToCreator,
		CreatedAt:        item.CreatedAt.UTC(),
		EditedAt:         normalizeOptionalTime(item.EditedAt),
	}, nil
}

func (m feedbackModel) toEntity() (entities.Feedback, error) {
	var mediaIDs []string
	if len(m.MediaIDs) > 0 {
		if err := json.Unmarshal(m.MediaIDs, &mediaIDs); err != nil {
			return entities.Feedback{}, err
		}
	}
	var reasons []string
	if len(m.ReasonCodes) > 0 {
		if err := json.Unmarshal(m.ReasonCodes, &reasons); err != nil {
			return entities.Feedback{}, err
		}
	}
	return entities.Feedback{
		FeedbackID:       m.FeedbackID,
		SubmissionID:     m.SubmissionID,
		AuthorID:         m.AuthorID,
		AuthorRole:       entities.FeedbackAuthorRole(m.AuthorRole),
		Body:             m.Body,
		MediaIDs:         mediaIDs,
		ReasonCodes:      reasons,
		VisibleToCreator: m.VisibleToCreator,
		CreatedAt:        m.CreatedAt.UTC(),
		EditedAt:         normalizeOptionalTime(m.EditedAt),
	}, nil
}

type dependencyModel struct {
	DependencyID string    `gorm:"column:dependency_id;primaryKey"`
	DependentID  string    `gorm:"column:dependent_id"`
	BaseID       string    `gorm:"column:base_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (dependencyModel) TableName() string {
	return "submission_dependencies"
}

type auditModel struct {
	AuditID      string    `gorm:"column:audit_id;primaryKey"`
	SubmissionID string    `gorm:"column:submission_id"`
	OldStatus    string    `gorm:"column:old_status"`
	NewStatus    string    `gorm:"column:new_status"`
	ActorID      string    `gorm:"column:actor_id"`
	ActorRole    string    `gorm:"column:actor_role"`
	Reason       string    `gorm:"column:reason"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (auditModel) TableName() string {
	return "submission_audits"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "review_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "review_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
