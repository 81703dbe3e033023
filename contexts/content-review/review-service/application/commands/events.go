package commands

import (
	"encoding/json"
	"time"

	"atelier/contexts/content-review/review-service/ports"
)

const (
	EventSubmissionStatusChanged = "submission.status_changed"
	EventSubmissionActivated     = "submission.activated"
	EventSubmissionWithdrawn     = "submission.withdrawn"
	EventSubmissionRejected      = "submission.rejected"
	EventSubmissionOverdue       = "submission.overdue"
	EventSubmissionPlanCreated   = "submission.plan_created"
	EventMediaItemDecided        = "media_item.decided"
	EventFeedbackForwarded       = "feedback.forwarded"
)

func newReviewEnvelope(
	eventID string,
	eventType string,
	submissionID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "review-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "submission_id",
		PartitionKey:     submissionID,
		Data:             payload,
	}, nil
}
