package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/liwesley02/otter-consolidator/internal/consolidator"
	"github.com/liwesley02/otter-consolidator/pkg/event"
)

// MockSubscriber implements events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MockPublisher implements events.Publisher for testing
type MockPublisher struct {
	PublishedEvents []struct {
		Topic string
		Data  []byte
	}
	PublishFunc func(ctx context.Context, topic string, data []byte) error
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.PublishedEvents = append(m.PublishedEvents, struct {
		Topic string
		Data  []byte
	}{topic, data})
	return nil
}

func testConsolidatorEngine() *consolidator.Engine {
	return consolidator.NewEngine(consolidator.Options{Capacity: 5},
		consolidator.NewItemMatcher(), consolidator.NewCategoryClassifier(nil), apt.NewNoopLogger())
}

func TestNewSnapshotSubscriber(t *testing.T) {
	s := NewSnapshotSubscriber(&MockSubscriber{}, testConsolidatorEngine(), apt.NewNoopLogger())
	if s == nil {
		t.Error("NewSnapshotSubscriber() returned nil")
	}
}

func TestSnapshotSubscriberStart(t *testing.T) {
	tests := []struct {
		name          string
		subscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
		wantErr       bool
	}{
		{
			name: "success",
			subscribeFunc: func(ctx context.Context, topic string, handler events.HandlerFunc) error {
				if topic != event.OrderSnapshotsTopic {
					t.Errorf("Subscribe topic = %v, want %v", topic, event.OrderSnapshotsTopic)
				}
				return nil
			},
			wantErr: false,
		},
		{
			name: "subscribeError",
			subscribeFunc: func(ctx context.Context, topic string, handler events.HandlerFunc) error {
				return errors.New("subscription failed")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &MockSubscriber{SubscribeFunc: tt.subscribeFunc}
			s := NewSnapshotSubscriber(sub, testConsolidatorEngine(), apt.NewNoopLogger())

			err := s.Start(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSnapshotSubscriberStartNilSubscriber(t *testing.T) {
	s := NewSnapshotSubscriber(nil, testConsolidatorEngine(), apt.NewNoopLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Errorf("Start() with nil subscriber error = %v, want nil", err)
	}
}

func TestSnapshotSubscriberHandleEvent(t *testing.T) {
	engine := testConsolidatorEngine()

	var captured events.HandlerFunc
	sub := &MockSubscriber{
		SubscribeFunc: func(ctx context.Context, topic string, handler events.HandlerFunc) error {
			captured = handler
			return nil
		},
	}

	s := NewSnapshotSubscriber(sub, engine, apt.NewNoopLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	placed := time.Date(2026, 3, 1, 11, 50, 0, 0, time.UTC)
	evt := event.OrderSnapshotEvent{
		EventType:  event.EventOrderSnapshotCaptured,
		OccurredAt: time.Now(),
		Source:     "scraper",
		Orders: []event.SnapshotOrder{
			{
				PlatformID:   "A1",
				CustomerName: "Maya R",
				PlacedAt:     &placed,
				Items:        []event.SnapshotItem{{Name: "Pork Dumplings", Quantity: 2}},
			},
		},
	}
	payload, _ := json.Marshal(evt)

	if err := captured(context.Background(), payload); err != nil {
		t.Fatalf("handleEvent() error = %v", err)
	}

	if !engine.BatchAt(0).HasOrder("a1_maya-r") {
		t.Error("snapshot order not assigned to a batch")
	}
}

func TestSnapshotSubscriberHandleEventMalformedPayload(t *testing.T) {
	engine := testConsolidatorEngine()

	var captured events.HandlerFunc
	sub := &MockSubscriber{
		SubscribeFunc: func(ctx context.Context, topic string, handler events.HandlerFunc) error {
			captured = handler
			return nil
		},
	}

	s := NewSnapshotSubscriber(sub, engine, apt.NewNoopLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Malformed payloads are logged and dropped, never returned as errors
	// that would trigger redelivery.
	if err := captured(context.Background(), []byte("{not json")); err != nil {
		t.Errorf("handleEvent() with malformed payload error = %v, want nil", err)
	}
}

func TestSnapshotSubscriberIgnoresUnknownEventType(t *testing.T) {
	engine := testConsolidatorEngine()

	var captured events.HandlerFunc
	sub := &MockSubscriber{
		SubscribeFunc: func(ctx context.Context, topic string, handler events.HandlerFunc) error {
			captured = handler
			return nil
		},
	}

	s := NewSnapshotSubscriber(sub, engine, apt.NewNoopLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	evt := event.OrderSnapshotEvent{
		EventType: "order.something.else",
		Orders: []event.SnapshotOrder{
			{PlatformID: "A1", CustomerName: "Maya R", Items: []event.SnapshotItem{{Name: "Thai Tea"}}},
		},
	}
	payload, _ := json.Marshal(evt)

	if err := captured(context.Background(), payload); err != nil {
		t.Fatalf("handleEvent() error = %v", err)
	}
	if engine.BatchAt(0).OrderCount() != 0 {
		t.Error("unknown event type should not reach the engine")
	}
}

func TestBatchNotifierPublishesLifecycleEvents(t *testing.T) {
	publisher := &MockPublisher{}
	notifier := NewBatchNotifier(publisher, apt.NewNoopLogger())

	engine := testConsolidatorEngine()
	engine.SetNotifier(notifier)

	engine.AssignOrders([]*consolidator.Order{
		{ID: "a", CustomerName: "Maya R", WaitTime: 5, Items: []consolidator.OrderItem{{Name: "Thai Tea", Quantity: 1}}},
	})

	if len(publisher.PublishedEvents) == 0 {
		t.Fatal("no events published on assignment")
	}

	var evt event.BatchEvent
	if err := json.Unmarshal(publisher.PublishedEvents[0].Data, &evt); err != nil {
		t.Fatalf("cannot unmarshal published event: %v", err)
	}
	if publisher.PublishedEvents[0].Topic != event.BatchesTopic {
		t.Errorf("published topic = %q, want %q", publisher.PublishedEvents[0].Topic, event.BatchesTopic)
	}
	if evt.EventType != event.EventBatchOrderAssigned {
		t.Errorf("event type = %q, want %q", evt.EventType, event.EventBatchOrderAssigned)
	}
	if evt.OrderID != "a" {
		t.Errorf("event OrderID = %q, want %q", evt.OrderID, "a")
	}
}

func TestBatchNotifierNilPublisher(t *testing.T) {
	notifier := NewBatchNotifier(nil, apt.NewNoopLogger())

	// Must not panic.
	notifier.BatchCreated(&consolidator.Batch{})
	notifier.BatchLocked(&consolidator.Batch{})
}

func TestBatchNotifierPublishError(t *testing.T) {
	publisher := &MockPublisher{
		PublishFunc: func(ctx context.Context, topic string, data []byte) error {
			return errors.New("nats down")
		},
	}
	notifier := NewBatchNotifier(publisher, apt.NewNoopLogger())

	// Publish failures are logged, never propagated to the engine.
	notifier.BatchLocked(&consolidator.Batch{Number: 1})
}
