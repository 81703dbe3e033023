package review

import (
	"context"
	"strings"

	ingestentities "atelier/contexts/content-review/ingestion-service/domain/entities"
	ingestports "atelier/contexts/content-review/ingestion-service/ports"
	"atelier/contexts/content-review/review-service/application/commands"
	reviewentities "atelier/contexts/content-review/review-service/domain/entities"
	reviewports "atelier/contexts/content-review/review-service/ports"
)

// Bridge implements the pipeline's review gateway over the review-service
// repositories. This is the only place ingestion code touches review rows,
// so ownership of status and revision accounting stays in one spot.
type Bridge struct {
	Submissions reviewports.SubmissionRepository
	Media       reviewports.MediaRepository
	Reviewers   reviewports.ReviewerDirectory
	Reconciler  commands.ReconcileUseCase
	Clock       reviewports.Clock
	IDGen       reviewports.IDGenerator
}

func (b Bridge) Submission(ctx context.Context, submissionID string) (ingestports.SubmissionInfo, error) {
	submission, err := b.Submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return ingestports.SubmissionInfo{}, err
	}
	return ingestports.SubmissionInfo{
		SubmissionID: submission.SubmissionID,
		CampaignID:   submission.CampaignID,
		CreatorID:    submission.CreatorID,
		Withdrawn:    submission.Status == reviewentities.SubmissionStatusWithdrawn,
	}, nil
}

func (b Bridge) SetSubmissionContent(ctx context.Context, submissionID string, caption string, rawFileLink string) error {
	submission, err := b.Submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	submission.Caption = strings.TrimSpace(caption)
	submission.RawFileLink = strings.TrimSpace(rawFileLink)
	submission.UpdatedAt = b.Clock.Now().UTC()
	return b.Submissions.UpdateSubmission(ctx, submission)
}

func (b Bridge) AttachMedia(ctx context.Context, attachment ingestports.MediaAttachment) (string, error) {
	mediaID, err := b.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	now := b.Clock.Now().UTC()
	item := reviewentities.MediaItem{
		MediaID:      mediaID,
		SubmissionID: attachment.SubmissionID,
		Kind:         mapKind(attachment.Kind),
		URL:          attachment.URL,
		Status:       reviewentities.MediaStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := b.Media.CreateMediaItem(ctx, item); err != nil {
		return "", err
	}
	return mediaID, nil
}

func (b Bridge) ReplaceMedia(ctx context.Context, mediaID string, url string) error {
	item, err := b.Media.GetMediaItem(ctx, mediaID)
	if err != nil {
		return err
	}
	item.URL = url
	item.Status = reviewentities.MediaStatusPending
	item.RevisionCount++
	item.UpdatedAt = b.Clock.Now().UTC()
	return b.Media.UpdateMediaItem(ctx, item)
}

func (b Bridge) Reconcile(ctx context.Context, submissionID string) (string, error) {
	status, err := b.Reconciler.Execute(ctx, submissionID)
	return string(status), err
}

func (b Bridge) Watchers(ctx context.Context, campaignID string) ([]string, error) {
	reviewers, err := b.Reviewers.ListReviewers(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	observers, err := b.Reviewers.ListObservers(ctx)
	if err != nil {
		return reviewers, nil
	}
	return append(reviewers, observers...), nil
}

func mapKind(kind ingestentities.MediaKind) reviewentities.MediaKind {
	switch kind {
	case ingestentities.MediaKindPhoto:
		return reviewentities.MediaKindPhoto
	case ingestentities.MediaKindRawFootage:
		return reviewentities.MediaKindRawFootage
	}
	return reviewentities.MediaKindVideo
}
