package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/liwesley02/otter-consolidator/internal/consolidator"
	"github.com/liwesley02/otter-consolidator/pkg/event"
)

// SnapshotSubscriber feeds order snapshots from the message bus into the
// consolidation engine. Each snapshot is the complete set of currently
// visible orders; the engine reconciles against it.
type SnapshotSubscriber struct {
	subscriber events.Subscriber
	engine     *consolidator.Engine
	logger     apt.Logger
}

func NewSnapshotSubscriber(
	subscriber events.Subscriber,
	engine *consolidator.Engine,
	logger apt.Logger,
) *SnapshotSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SnapshotSubscriber{
		subscriber: subscriber,
		engine:     engine,
		logger:     logger,
	}
}

func (s *SnapshotSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Info("No subscriber configured, snapshot ingest over NATS disabled")
		return nil
	}

	s.logger.Infof("Starting SnapshotSubscriber for topic: %s", event.OrderSnapshotsTopic)

	if err := s.subscriber.Subscribe(ctx, event.OrderSnapshotsTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderSnapshotsTopic, err)
	}

	return nil
}

func (s *SnapshotSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderSnapshotEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal snapshot event: %v", err)
		return nil
	}

	if evt.EventType != event.EventOrderSnapshotCaptured {
		s.logger.Infof("Unknown event type: %s", evt.EventType)
		return nil
	}

	orders := make([]*consolidator.Order, 0, len(evt.Orders))
	for _, rec := range evt.Orders {
		orders = append(orders, consolidator.OrderFromFeed(rec, s.engine.Matcher(), s.engine.Classifier()))
	}

	s.engine.AssignOrders(orders)
	s.logger.Debug("snapshot reconciled", "orders", len(orders), "source", evt.Source)

	return nil
}
