package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/liwesley02/otter-consolidator/internal/consolidator"
	"github.com/liwesley02/otter-consolidator/pkg/event"
)

// BatchNotifier publishes batch lifecycle events so dashboards and other
// services can react without polling. Publishing is fire and forget; the
// engine must never block on the bus.
type BatchNotifier struct {
	publisher events.Publisher
	logger    apt.Logger
}

func NewBatchNotifier(publisher events.Publisher, logger apt.Logger) *BatchNotifier {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BatchNotifier{
		publisher: publisher,
		logger:    logger,
	}
}

func (n *BatchNotifier) BatchCreated(batch *consolidator.Batch) {
	n.publish(event.BatchEvent{
		EventType:  event.EventBatchCreated,
		OccurredAt: time.Now().UTC(),
		BatchID:    batch.ID.String(),
		BatchNum:   batch.Number,
		Capacity:   batch.Capacity,
		OrderCount: batch.OrderCount(),
	})
}

func (n *BatchNotifier) BatchLocked(batch *consolidator.Batch) {
	n.publish(event.BatchEvent{
		EventType:  event.EventBatchLocked,
		OccurredAt: time.Now().UTC(),
		BatchID:    batch.ID.String(),
		BatchNum:   batch.Number,
		Capacity:   batch.Capacity,
		OrderCount: batch.OrderCount(),
		Locked:     true,
	})
}

func (n *BatchNotifier) OrderAssigned(batch *consolidator.Batch, order *consolidator.Order) {
	n.publish(event.BatchEvent{
		EventType:    event.EventBatchOrderAssigned,
		OccurredAt:   time.Now().UTC(),
		BatchID:      batch.ID.String(),
		BatchNum:     batch.Number,
		Capacity:     batch.Capacity,
		OrderCount:   batch.OrderCount(),
		Locked:       batch.Locked,
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
	})
}

func (n *BatchNotifier) OrderCompleted(batch *consolidator.Batch, order *consolidator.Order) {
	n.publish(event.BatchEvent{
		EventType:    event.EventBatchOrderCompleted,
		OccurredAt:   time.Now().UTC(),
		BatchID:      batch.ID.String(),
		BatchNum:     batch.Number,
		Capacity:     batch.Capacity,
		OrderCount:   batch.OrderCount(),
		Locked:       batch.Locked,
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
	})
}

func (n *BatchNotifier) publish(evt event.BatchEvent) {
	if n.publisher == nil {
		return
	}

	payload, _ := json.Marshal(evt)
	if err := n.publisher.Publish(context.Background(), event.BatchesTopic, payload); err != nil {
		n.logger.Errorf("Failed to publish %s event: %v", evt.EventType, err)
	}
}
