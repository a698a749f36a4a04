package consolidator

import (
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// BatchItem aggregates identical line items (same identity key) across the
// orders of one batch. OrderIDs lists the contributing orders and guards
// against counting the same order twice within a reconciliation pass.
type BatchItem struct {
	Key              string   `json:"key"`
	Name             string   `json:"name"`
	FullName         string   `json:"full_name"`
	Size             string   `json:"size"`
	Category         string   `json:"category"`
	CategoryInfo     Category `json:"category_info"`
	RiceSubstitution string   `json:"rice_substitution,omitempty"`
	Modifiers        []string `json:"modifiers,omitempty"`
	OrderIDs         []string `json:"order_ids"`
	TotalQuantity    int      `json:"total_quantity"`
	BatchQuantity    int      `json:"batch_quantity"`
}

func (bi *BatchItem) hasContribution(orderID string) bool {
	for _, id := range bi.OrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

// contribute adds an order's quantity to the aggregate, once per order.
func (bi *BatchItem) contribute(orderID string, quantity int) bool {
	if bi.hasContribution(orderID) {
		return false
	}
	bi.OrderIDs = append(bi.OrderIDs, orderID)
	bi.TotalQuantity += quantity
	bi.BatchQuantity += quantity
	return true
}

// Batch is a capacity-bounded bucket of orders assigned together. Once the
// order count reaches capacity the batch locks: no further orders join and
// its aggregated items are never cleared by later reconciliation passes.
type Batch struct {
	ID        uuid.UUID `json:"id"`
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`

	orders      map[string]*Order
	orderIDs    []string // assignment order
	items       map[string]*BatchItem
	newOrderIDs map[string]struct{}
}

func newBatch(number, capacity int, now time.Time) *Batch {
	return &Batch{
		ID:          apt.GenerateNewID(),
		Number:      number,
		Name:        fmt.Sprintf("Batch %d", number),
		Capacity:    capacity,
		CreatedAt:   now,
		orders:      make(map[string]*Order),
		items:       make(map[string]*BatchItem),
		newOrderIDs: make(map[string]struct{}),
	}
}

func (b *Batch) OrderCount() int {
	return len(b.orders)
}

func (b *Batch) HasOrder(orderID string) bool {
	_, ok := b.orders[orderID]
	return ok
}

func (b *Batch) Order(orderID string) *Order {
	return b.orders[orderID]
}

// Orders returns the batch's orders in assignment order.
func (b *Batch) Orders() []*Order {
	result := make([]*Order, 0, len(b.orderIDs))
	for _, id := range b.orderIDs {
		if o := b.orders[id]; o != nil {
			result = append(result, o)
		}
	}
	return result
}

// OrderIDs returns the order ids in assignment order.
func (b *Batch) OrderIDs() []string {
	return append([]string(nil), b.orderIDs...)
}

func (b *Batch) hasCapacity() bool {
	return !b.Locked && len(b.orders) < b.Capacity
}

// addOrder places a new order into the batch and locks the batch the
// instant it reaches capacity.
func (b *Batch) addOrder(o *Order, now time.Time) {
	if b.HasOrder(o.ID) {
		return
	}
	o.AddedAt = now
	b.orders[o.ID] = o
	b.orderIDs = append(b.orderIDs, o.ID)
	b.newOrderIDs[o.ID] = struct{}{}
	if len(b.orders) >= b.Capacity {
		b.Locked = true
	}
}

func (b *Batch) removeOrder(orderID string) {
	if !b.HasOrder(orderID) {
		return
	}
	delete(b.orders, orderID)
	delete(b.newOrderIDs, orderID)
	for i, id := range b.orderIDs {
		if id == orderID {
			b.orderIDs = append(b.orderIDs[:i], b.orderIDs[i+1:]...)
			break
		}
	}
}

func (b *Batch) Item(key string) *BatchItem {
	return b.items[key]
}

// Items returns the batch's aggregated items in unspecified order; the
// projection layer applies display ordering.
func (b *Batch) Items() []*BatchItem {
	result := make([]*BatchItem, 0, len(b.items))
	for _, item := range b.items {
		result = append(result, item)
	}
	return result
}

func (b *Batch) ItemCount() int {
	return len(b.items)
}

// TotalQuantity sums the aggregated quantity across the batch's items.
func (b *Batch) TotalQuantity() int {
	total := 0
	for _, item := range b.items {
		total += item.BatchQuantity
	}
	return total
}

func (b *Batch) clearItems() {
	b.items = make(map[string]*BatchItem)
}

// upsertItem returns the aggregate for key, creating it from the given
// representative item if absent.
func (b *Batch) upsertItem(key string, item OrderItem) *BatchItem {
	if existing, ok := b.items[key]; ok {
		return existing
	}
	name := item.BaseName
	if name == "" {
		name = item.Name
	}
	created := &BatchItem{
		Key:              key,
		Name:             name,
		FullName:         item.Name,
		Size:             item.Size,
		Category:         item.Category,
		CategoryInfo:     item.CategoryInfo,
		RiceSubstitution: item.RiceSubstitution,
		Modifiers:        append([]string(nil), item.Modifiers...),
	}
	b.items[key] = created
	return created
}

// IsNewOrder reports whether the order is still inside its highlight window.
func (b *Batch) IsNewOrder(orderID string) bool {
	_, ok := b.newOrderIDs[orderID]
	return ok
}

func (b *Batch) clearNewOrder(orderID string) {
	delete(b.newOrderIDs, orderID)
}

// NewOrderIDs returns the ids currently flagged for highlighting.
func (b *Batch) NewOrderIDs() []string {
	result := make([]string, 0, len(b.newOrderIDs))
	for _, id := range b.orderIDs {
		if _, ok := b.newOrderIDs[id]; ok {
			result = append(result, id)
		}
	}
	return result
}
