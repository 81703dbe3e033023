package realtime

import (
	"context"
	"log/slog"
	"sync"

	"atelier/contexts/content-review/review-service/ports"
)

// Event is one realtime message for a user: either a notification or a
// transcode progress tick (Progress set, Notification zero).
type Event struct {
	Notification ports.Notification
	SubmissionID string
	Progress     float64
	IsProgress   bool
}

// Hub is the in-process realtime fanout. One channel per user,
// last-writer-wins: a reconnect replaces the previous channel, so progress
// for a submission streams to wherever the uploader connected last.
// Delivery is best-effort; a full channel drops the event.
type Hub struct {
	mu       sync.Mutex
	channels map[string]chan Event
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]chan Event),
		logger:   logger,
	}
}

// Subscribe registers the user's event channel, replacing any previous one.
func (h *Hub) Subscribe(userID string) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if previous, exists := h.channels[userID]; exists {
		close(previous)
	}
	ch := make(chan Event, 64)
	h.channels[userID] = ch
	return ch
}

// Unsubscribe removes the user's channel if it is still the registered one.
func (h *Hub) Unsubscribe(userID string, ch <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	current, exists := h.channels[userID]
	if !exists || (<-chan Event)(current) != ch {
		return
	}
	close(current)
	delete(h.channels, userID)
}

func (h *Hub) Notify(_ context.Context, userID string, event ports.Notification) error {
	h.send(userID, Event{Notification: event, SubmissionID: event.SubmissionID})
	return nil
}

func (h *Hub) Progress(_ context.Context, userID string, submissionID string, fraction float64) error {
	h.send(userID, Event{SubmissionID: submissionID, Progress: fraction, IsProgress: true})
	return nil
}

// send is non-blocking, so holding the mutex across it is cheap and keeps
// Subscribe from closing the channel between lookup and send.
func (h *Hub) send(userID string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, exists := h.channels[userID]
	if !exists {
		return
	}
	select {
	case ch <- event:
	default:
		if h.logger != nil {
			h.logger.Debug("dropping realtime event for slow consumer",
				"event", "realtime_event_drop",
				"module", "internal/platform/realtime",
				"layer", "platform",
				"user_id", userID,
			)
		}
	}
}

// IngestSink adapts the hub to the ingestion pipeline's progress port.
type IngestSink struct {
	Hub *Hub
}

func (s IngestSink) Progress(ctx context.Context, userID string, submissionID string, fraction float64) error {
	return s.Hub.Progress(ctx, userID, submissionID, fraction)
}

func (s IngestSink) Notify(ctx context.Context, userID string, notificationType string, submissionID string, body string) error {
	return s.Hub.Notify(ctx, userID, ports.Notification{
		Type:         notificationType,
		SubmissionID: submissionID,
		Body:         body,
	})
}
