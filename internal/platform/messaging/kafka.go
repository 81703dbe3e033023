package messaging

import (
	"context"
	"log/slog"
	"sync"

	"atelier/contexts/content-review/review-service/ports"
)

// Kafka is the event bus adapter behind the outbox relay and the intake
// consumers. Current implementation is in-process while runtime wiring is
// finalized for external brokers, but it keeps broker semantics: an event
// is delivered once per consumer group, and a re-subscribe under the same
// group replaces the previous member.
type Kafka struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan ports.EventEnvelope
	logger *slog.Logger
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		groups: make(map[string]map[string]chan ports.EventEnvelope),
		logger: logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	k.mu.RLock()
	targets := make([]chan ports.EventEnvelope, 0, len(k.groups[topic]))
	for _, ch := range k.groups[topic] {
		targets = append(targets, ch)
	}
	k.mu.RUnlock()

	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case target <- event:
		default:
			if k.logger != nil {
				k.logger.Warn("dropping event for lagging consumer group",
					"event", "kafka_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"event_id", event.EventID,
				)
			}
		}
	}

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "kafka_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"groups", len(targets),
		)
	}
	return nil
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	ch := make(chan ports.EventEnvelope, 128)

	k.mu.Lock()
	byGroup, ok := k.groups[topic]
	if !ok {
		byGroup = make(map[string]chan ports.EventEnvelope)
		k.groups[topic] = byGroup
	}
	if previous, exists := byGroup[consumerGroup]; exists {
		close(previous)
	}
	byGroup[consumerGroup] = ch
	k.mu.Unlock()

	go k.consume(ctx, topic, consumerGroup, ch, handler)
	return nil
}

func (k *Kafka) consume(
	ctx context.Context,
	topic string,
	consumerGroup string,
	ch chan ports.EventEnvelope,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	for {
		select {
		case <-ctx.Done():
			k.dropGroup(topic, consumerGroup, ch)
			return
		case event, ok := <-ch:
			if !ok {
				// replaced by a newer member of the same group
				return
			}
			if err := handler(ctx, event); err != nil && k.logger != nil {
				k.logger.Error("consumer handler failed",
					"event", "kafka_consume_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", consumerGroup,
					"event_id", event.EventID,
					"event_type", event.EventType,
					"error", err.Error(),
				)
			}
		}
	}
}

func (k *Kafka) dropGroup(topic string, consumerGroup string, ch chan ports.EventEnvelope) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if current, exists := k.groups[topic][consumerGroup]; exists && current == ch {
		delete(k.groups[topic], consumerGroup)
	}
}
