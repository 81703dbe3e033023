package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"atelier/contexts/content-review/review-service/domain/entities"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
)

type policyModel struct {
	CampaignID        string `gorm:"column:campaign_id;primaryKey"`
	Origin            string `gorm:"column:origin"`
	RequirePhoto      bool   `gorm:"column:require_photo"`
	RequireRawFootage bool   `gorm:"column:require_raw_footage"`
	VideoQuota        int    `gorm:"column:video_quota"`
}

func (policyModel) TableName() string {
	return "review_policies"
}

type campaignMemberModel struct {
	CampaignID string `gorm:"column:campaign_id"`
	UserID     string `gorm:"column:user_id"`
	Role       string `gorm:"column:role"`
}

func (campaignMemberModel) TableName() string {
	return "campaign_members"
}

// Directory serves the campaign projections the review core reads:
// policy, reviewer roster, and client membership. Rows are maintained by
// consumers of campaign events, never written from this context.
type Directory struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDirectory(db *gorm.DB, logger *slog.Logger) *Directory {
	return &Directory{db: db, logger: logger}
}

func (d *Directory) GetPolicy(ctx context.Context, campaignID string) (entities.ReviewPolicy, error) {
	var row policyModel
	err := d.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ReviewPolicy{}, domainerrors.ErrPolicyNotFound
	}
	if err != nil {
		return entities.ReviewPolicy{}, err
	}
	return entities.ReviewPolicy{
		CampaignID:        row.CampaignID,
		Origin:            entities.CampaignOrigin(row.Origin),
		RequirePhoto:      row.RequirePhoto,
		RequireRawFootage: row.RequireRawFootage,
		VideoQuota:        row.VideoQuota,
	}, nil
}

func (d *Directory) ListReviewers(ctx context.Context, campaignID string) ([]string, error) {
	return d.listMembers(ctx, strings.TrimSpace(campaignID), "reviewer")
}

func (d *Directory) ListObservers(ctx context.Context) ([]string, error) {
	var rows []campaignMemberModel
	err := d.db.WithContext(ctx).
		Where("role = ?", "observer").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return memberIDs(rows), nil
}

func (d *Directory) IsClientFor(ctx context.Context, clientID string, campaignID string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&campaignMemberModel{}).
		Where("campaign_id = ? AND user_id = ? AND role = ?", strings.TrimSpace(campaignID), strings.TrimSpace(clientID), "client").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *Directory) listMembers(ctx context.Context, campaignID string, role string) ([]string, error) {
	var rows []campaignMemberModel
	err := d.db.WithContext(ctx).
		Where("campaign_id = ? AND role = ?", campaignID, role).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return memberIDs(rows), nil
}

func memberIDs(rows []campaignMemberModel) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids
}
