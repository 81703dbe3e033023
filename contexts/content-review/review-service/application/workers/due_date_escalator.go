package workers

import (
	"context"
	"log/slog"
	"time"

	application "atelier/contexts/content-review/review-service/application"
	"atelier/contexts/content-review/review-service/application/commands"
	"atelier/contexts/content-review/review-service/domain/entities"
	"atelier/contexts/content-review/review-service/ports"
)

// DueDateEscalator flags submissions past their due date that have not yet
// reached review, emitting an overdue event for each. It never mutates
// submission status; escalation is an observability concern. Each
// submission escalates at most once: the dedup store keeps the marker so
// repeated cycles stay quiet.
type DueDateEscalator struct {
	Submissions ports.SubmissionRepository
	Outbox      ports.OutboxWriter
	Notifier    ports.Notifier
	Dedup       ports.EventDedupStore
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Disabled    bool
	Logger      *slog.Logger
}

const overdueMarkerTTL = 90 * 24 * time.Hour

func (j DueDateEscalator) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		logger.Info("due date escalator disabled by feature flag",
			"event", "due_date_escalator_disabled",
			"module", "content-review/review-service",
			"layer", "worker",
		)
		return nil
	}
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	overdue := 0
	for _, status := range []entities.SubmissionStatus{
		entities.SubmissionStatusNotStarted,
		entities.SubmissionStatusInProgress,
		entities.SubmissionStatusChangesRequired,
	} {
		items, err := j.Submissions.ListSubmissions(ctx, ports.SubmissionFilter{
			Status: status,
		})
		if err != nil {
			logger.Error("due date escalator list failed",
				"event", "due_date_escalator_list_failed",
				"module", "content-review/review-service",
				"layer", "worker",
				"error", err.Error(),
			)
			return err
		}
		for _, submission := range items {
			if submission.DueDate == nil || submission.DueDate.After(now) {
				continue
			}
			// The marker key is the submission, not a fresh UUID, so a
			// submission that stays overdue across cycles emits once.
			alreadyEscalated, err := j.Dedup.ReserveEvent(ctx,
				"overdue-"+submission.SubmissionID,
				hashPayload([]byte(submission.SubmissionID)),
				now.Add(overdueMarkerTTL),
			)
			if err != nil {
				return err
			}
			if alreadyEscalated {
				continue
			}
			eventID, err := j.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			envelope, err := overdueEnvelope(eventID, submission.SubmissionID, submission.CampaignID, now)
			if err != nil {
				return err
			}
			if err := j.Outbox.AppendOutbox(ctx, envelope); err != nil {
				return err
			}
			_ = j.Notifier.Notify(ctx, submission.CreatorID, ports.Notification{
				Type:         commands.EventSubmissionOverdue,
				SubmissionID: submission.SubmissionID,
				CampaignID:   submission.CampaignID,
				Body:         "submission past due date",
			})
			overdue++
		}
	}

	if overdue > 0 {
		logger.Info("due date escalator cycle completed",
			"event", "due_date_escalator_completed",
			"module", "content-review/review-service",
			"layer", "worker",
			"overdue_count", overdue,
		)
	}
	return nil
}
