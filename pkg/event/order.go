package event

import "time"

const (
	OrderSnapshotsTopic        = "orders.snapshots"
	EventOrderSnapshotCaptured = "order.snapshot.captured"
)

// OrderSnapshotEvent carries one full scrape of the currently visible
// orders. It is a complete snapshot, never a diff: an order absent from it
// is treated as completed by the consolidator.
type OrderSnapshotEvent struct {
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Source     string          `json:"source,omitempty"`
	Orders     []SnapshotOrder `json:"orders"`
}

// SnapshotOrder is one scraped customer order as the feed delivers it. The
// scraper is noisy; every field except PlatformID is best-effort.
type SnapshotOrder struct {
	PlatformID     string     `json:"platform_id"`
	OrderNumber    string     `json:"order_number,omitempty"`
	CustomerName   string     `json:"customer_name,omitempty"`
	RestaurantName string     `json:"restaurant_name,omitempty"`
	PlacedAt       *time.Time `json:"placed_at,omitempty"`
	WaitTime       int        `json:"wait_time,omitempty"` // minutes elapsed; higher = older
	Items          []SnapshotItem `json:"items"`
}

// SnapshotItem is one scraped line item. Size and modifiers may also be
// embedded in Name as a trailing parenthetical; the consolidator normalizes
// either form to the same identity.
type SnapshotItem struct {
	Name             string   `json:"name"`
	Size             string   `json:"size,omitempty"`
	Quantity         int      `json:"quantity,omitempty"`
	RiceSubstitution string   `json:"rice_substitution,omitempty"`
	Modifiers        []string `json:"modifiers,omitempty"`
	IsMealComponent  bool     `json:"is_meal_component,omitempty"`
}
