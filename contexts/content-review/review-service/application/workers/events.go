package workers

import (
	"encoding/json"
	"time"

	"atelier/contexts/content-review/review-service/ports"
)

func overdueEnvelope(eventID, submissionID, campaignID string, occurredAt time.Time) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(map[string]any{
		"submission_id": submissionID,
		"campaign_id":   campaignID,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "submission.overdue",
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "review-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "submission_id",
		PartitionKey:     submissionID,
		Data:             payload,
	}, nil
}
