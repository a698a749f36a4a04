package event

import "time"

const (
	BatchesTopic             = "consolidator.batches"
	EventBatchCreated        = "consolidator.batch.created"
	EventBatchLocked         = "consolidator.batch.locked"
	EventBatchOrderAssigned  = "consolidator.batch.order_assigned"
	EventBatchOrderCompleted = "consolidator.batch.order_completed"
)

// BatchEvent announces a batch lifecycle change to the dashboard backend.
type BatchEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	BatchID    string    `json:"batch_id"`
	BatchNum   int       `json:"batch_number"`
	Capacity   int       `json:"capacity"`
	OrderCount int       `json:"order_count"`
	Locked     bool      `json:"locked"`

	// Set on order_assigned / order_completed events.
	OrderID      string `json:"order_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}
