package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"atelier/contexts/content-review/review-service/ports"
)

type recorder struct {
	mu     sync.Mutex
	events []ports.EventEnvelope
	seen   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 16)}
}

func (r *recorder) handle(_ context.Context, event ports.EventEnvelope) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.seen <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestKafkaDeliversOncePerGroup(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := newRecorder()
	intake := newRecorder()
	if err := bus.Subscribe(ctx, "review.events", "relay-cg", relay.handle); err != nil {
		t.Fatalf("subscribe relay: %v", err)
	}
	if err := bus.Subscribe(ctx, "review.events", "intake-cg", intake.handle); err != nil {
		t.Fatalf("subscribe intake: %v", err)
	}

	event := ports.EventEnvelope{EventID: "evt-1", EventType: "submission.approved"}
	if err := bus.Publish(ctx, "review.events", event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	relay.wait(t)
	intake.wait(t)
	if relay.count() != 1 || intake.count() != 1 {
		t.Fatalf("expected one delivery per group, got relay=%d intake=%d", relay.count(), intake.count())
	}
}

func TestKafkaResubscribeReplacesGroupMember(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	old := newRecorder()
	replacement := newRecorder()
	if err := bus.Subscribe(ctx, "review.events", "relay-cg", old.handle); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Subscribe(ctx, "review.events", "relay-cg", replacement.handle); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}

	if err := bus.Publish(ctx, "review.events", ports.EventEnvelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	replacement.wait(t)
	if old.count() != 0 {
		t.Fatalf("replaced member received %d events", old.count())
	}
}

func TestKafkaPublishWithoutSubscribersSucceeds(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	if err := bus.Publish(context.Background(), "review.events", ports.EventEnvelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
