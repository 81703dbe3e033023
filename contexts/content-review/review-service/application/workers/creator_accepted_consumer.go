package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "atelier/contexts/content-review/review-service/application"
	"atelier/contexts/content-review/review-service/application/commands"
	domainerrors "atelier/contexts/content-review/review-service/domain/errors"
	"atelier/contexts/content-review/review-service/ports"
)

const (
	creatorAcceptedTopic           = "creator.accepted"
	defaultCreatorAcceptedConsumer = "review-service-creator-accepted-cg"
)

// CreatorAcceptedConsumer batch-creates the submission plan when a pitch or
// agreement is accepted elsewhere in the product.
type CreatorAcceptedConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	CreatePlan    commands.CreateSubmissionPlanUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c CreatorAcceptedConsumer) Start(ctx context.Context) error {
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultCreatorAcceptedConsumer
	}
	return c.Subscriber.Subscribe(ctx, creatorAcceptedTopic, group, c.handleCreatorAccepted)
}

func (c CreatorAcceptedConsumer) handleCreatorAccepted(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(c.dedupTTL()))
	if err != nil {
		logger.Error("creator.accepted dedupe failed",
			"event", "creator_accepted_dedupe_failed",
			"module", "content-review/review-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("creator.accepted already processed",
			"event", "creator_accepted_replayed",
			"module", "content-review/review-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		CampaignID string `json:"campaign_id"`
		CreatorID  string `json:"creator_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode creator.accepted payload: %w", err)
	}
	if strings.TrimSpace(payload.CampaignID) == "" || strings.TrimSpace(payload.CreatorID) == "" {
		return fmt.Errorf("creator.accepted payload missing campaign_id or creator_id")
	}

	_, err = c.CreatePlan.Execute(ctx, commands.CreateSubmissionPlanCommand{
		CampaignID: payload.CampaignID,
		CreatorID:  payload.CreatorID,
		Plan:       commands.DefaultDraftPlan(),
	})
	if errors.Is(err, domainerrors.ErrDuplicateSubmissionPlan) {
		// A replay that slipped past dedup; the plan already exists.
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("creator accepted event consumed",
		"event", "creator_accepted_consumed",
		"module", "content-review/review-service",
		"layer", "worker",
		"event_id", event.EventID,
		"campaign_id", payload.CampaignID,
		"creator_id", payload.CreatorID,
	)
	return nil
}

func (c CreatorAcceptedConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
