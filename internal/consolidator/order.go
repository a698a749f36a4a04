package consolidator

import (
	"strings"
	"time"

	"github.com/liwesley02/otter-consolidator/pkg/event"
)

// OrderItem is one normalized line item. It is built once at the feed
// boundary so the engine never branches on raw scrape shapes.
type OrderItem struct {
	Name             string   `json:"name" bson:"name"`
	BaseName         string   `json:"base_name" bson:"base_name"`
	Size             string   `json:"size" bson:"size"`
	Category         string   `json:"category" bson:"category"`
	CategoryInfo     Category `json:"category_info" bson:"category_info"`
	RiceSubstitution string   `json:"rice_substitution,omitempty" bson:"rice_substitution,omitempty"`
	Modifiers        []string `json:"modifiers,omitempty" bson:"modifiers,omitempty"`
	Quantity         int      `json:"quantity" bson:"quantity"`
	IsMealComponent  bool     `json:"is_meal_component,omitempty" bson:"is_meal_component,omitempty"`
}

// Order is one scraped customer order. It is created when first seen in a
// snapshot, refreshed in place on later snapshots, marked completed when
// absent, and purged from its batch after the retention window.
type Order struct {
	ID             string      `json:"id" bson:"_id"`
	Number         string      `json:"number,omitempty" bson:"number,omitempty"`
	CustomerName   string      `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	RestaurantName string      `json:"restaurant_name,omitempty" bson:"restaurant_name,omitempty"`
	PlacedAt       time.Time   `json:"placed_at,omitzero" bson:"placed_at,omitempty"`
	WaitTime       int         `json:"wait_time,omitempty" bson:"wait_time,omitempty"`
	Items          []OrderItem `json:"items" bson:"items"`
	Completed      bool        `json:"completed" bson:"completed"`
	CompletedAt    time.Time   `json:"completed_at,omitzero" bson:"completed_at,omitempty"`
	AddedAt        time.Time   `json:"added_at,omitzero" bson:"added_at,omitempty"`
}

// DeriveOrderID builds a stable order identity from the platform order id
// and the customer name, so repeated scrapes of the same order converge on
// one record even when the platform recycles short order numbers.
func DeriveOrderID(platformID, customerName string) string {
	id := slugify(platformID)
	customer := slugify(customerName)
	if id == "" {
		return customer
	}
	if customer == "" {
		return id
	}
	return id + "_" + customer
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}

// MarkCompleted flags the order completed. Idempotent: the first call wins
// and completion is never reversed.
func (o *Order) MarkCompleted(now time.Time) bool {
	if o.Completed {
		return false
	}
	o.Completed = true
	o.CompletedAt = now
	return true
}

// Refresh updates the mutable scrape fields from a newer record of the same
// order. Completion state and batch bookkeeping survive the refresh.
func (o *Order) Refresh(latest *Order) {
	if latest == nil || latest.ID != o.ID {
		return
	}
	o.WaitTime = latest.WaitTime
	if !latest.PlacedAt.IsZero() {
		o.PlacedAt = latest.PlacedAt
	}
	if latest.Number != "" {
		o.Number = latest.Number
	}
	if latest.CustomerName != "" {
		o.CustomerName = latest.CustomerName
	}
	if latest.RestaurantName != "" {
		o.RestaurantName = latest.RestaurantName
	}
	if len(latest.Items) > 0 {
		o.Items = latest.Items
	}
}

// ElapsedMinutes returns how long the order has been waiting, preferring a
// fresh computation from PlacedAt over the scraped wait time.
func (o *Order) ElapsedMinutes(now time.Time) int {
	if !o.PlacedAt.IsZero() {
		return int(now.Sub(o.PlacedAt) / time.Minute)
	}
	return o.WaitTime
}

// OrderFromFeed converts one scraped order record into a normalized Order.
// Missing quantities default to 1, missing sizes to the no-size sentinel,
// and meal components skip classification (the composite dish owns them).
func OrderFromFeed(rec event.SnapshotOrder, matcher *ItemMatcher, classifier *CategoryClassifier) *Order {
	o := &Order{
		ID:             DeriveOrderID(rec.PlatformID, rec.CustomerName),
		Number:         rec.OrderNumber,
		CustomerName:   rec.CustomerName,
		RestaurantName: rec.RestaurantName,
		WaitTime:       rec.WaitTime,
		Items:          make([]OrderItem, 0, len(rec.Items)),
	}
	if rec.PlacedAt != nil {
		o.PlacedAt = *rec.PlacedAt
	}

	for _, raw := range rec.Items {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}

		base, embedded := matcher.ExtractModifiers(name)
		modifiers := append([]string(nil), embedded...)
		modifiers = append(modifiers, raw.Modifiers...)

		size := strings.TrimSpace(raw.Size)
		if size == "" {
			size = matcher.ExtractSize(name)
		}
		if size == "" {
			size = NoSize
		}

		quantity := raw.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		item := OrderItem{
			Name:             name,
			BaseName:         base,
			Size:             size,
			RiceSubstitution: strings.TrimSpace(raw.RiceSubstitution),
			Modifiers:        modifiers,
			Quantity:         quantity,
			IsMealComponent:  raw.IsMealComponent,
		}
		if !item.IsMealComponent {
			item.CategoryInfo = classifier.Classify(name)
			item.Category = item.CategoryInfo.Top
		}

		o.Items = append(o.Items, item)
	}

	return o
}
