package consolidator

import (
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
)

// Urgency buckets derived from the oldest non-completed order in a batch.
const (
	UrgencyNormal  = "normal"
	UrgencyWarning = "warning"
	UrgencyUrgent  = "urgent"
)

const (
	urgentAfterMinutes  = 15
	warningAfterMinutes = 8

	// DefaultRetention is how long a completed order stays visible in its
	// batch before cleanup purges it.
	DefaultRetention = 30 * time.Second

	// newOrderHighlight is how long a freshly assigned order keeps its
	// highlight flag.
	newOrderHighlight = 30 * time.Second

	// DefaultCapacity is the max order count per batch when no setting is
	// configured.
	DefaultCapacity = 5
)

// Notifier receives batch lifecycle callbacks. Implementations must not call
// back into the engine; they run while the engine lock is held.
type Notifier interface {
	BatchCreated(b *Batch)
	BatchLocked(b *Batch)
	OrderAssigned(b *Batch, o *Order)
	OrderCompleted(b *Batch, o *Order)
}

// Options configures a new Engine. Zero values fall back to defaults.
type Options struct {
	Capacity  int
	Retention time.Duration
	Clock     func() time.Time
}

// Engine is the batch assignment state machine. It ingests full order
// snapshots on every refresh and reconciles them against existing batch
// state: absence marks completion, new orders are placed FIFO into the
// oldest unlocked batch with free capacity, and placement is permanent.
//
// The engine is the sole writer of its own state; the mutex only guards
// against the HTTP handler and the snapshot subscriber reading/writing from
// different goroutines.
type Engine struct {
	mu         sync.RWMutex
	matcher    *ItemMatcher
	classifier *CategoryClassifier
	logger     apt.Logger
	notifier   Notifier

	batches    []*Batch
	current    int
	nextNumber int
	capacity   int
	retention  time.Duration
	now        func() time.Time
}

// NewEngine creates an engine with one empty batch ready for assignment.
func NewEngine(opts Options, matcher *ItemMatcher, classifier *CategoryClassifier, logger apt.Logger) *Engine {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if matcher == nil {
		matcher = NewItemMatcher()
	}
	if classifier == nil {
		classifier = NewCategoryClassifier(nil)
	}

	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	e := &Engine{
		matcher:    matcher,
		classifier: classifier,
		logger:     logger,
		nextNumber: 1,
		capacity:   capacity,
		retention:  retention,
		now:        clock,
	}
	e.createBatchLocked()
	return e
}

// SetNotifier attaches a lifecycle notifier. Called once during wiring.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = n
}

// SetCapacity changes the capacity used for batches created from now on.
// Existing batches keep the capacity they were created with.
func (e *Engine) SetCapacity(capacity int) {
	if capacity <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capacity = capacity
}

// Capacity returns the capacity applied to newly created batches.
func (e *Engine) Capacity() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.capacity
}

// Retention returns the completed-order retention window.
func (e *Engine) Retention() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.retention
}

// Matcher exposes the engine's item matcher for boundary normalization.
func (e *Engine) Matcher() *ItemMatcher {
	return e.matcher
}

// Classifier exposes the engine's category classifier.
func (e *Engine) Classifier() *CategoryClassifier {
	return e.classifier
}

// AssignOrders reconciles a full snapshot against the batch state. It is
// idempotent: running it twice on the same snapshot yields identical
// assignments and aggregate quantities.
func (e *Engine) AssignOrders(orders []*Order) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.logger.Debug("assigning orders to batches", "count", len(orders))

	// Absence from the snapshot is the completion signal.
	present := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if o != nil {
			present[o.ID] = struct{}{}
		}
	}
	for _, batch := range e.batches {
		for _, existing := range batch.Orders() {
			if _, ok := present[existing.ID]; ok {
				continue
			}
			if existing.MarkCompleted(now) {
				e.logger.Info("order completed", "order_id", existing.ID, "batch", batch.Number)
				if e.notifier != nil {
					e.notifier.OrderCompleted(batch, existing)
				}
			}
		}
	}

	// Oldest first: timestamp when both sides have one, otherwise higher
	// wait time sorts earlier. Only new orders care; assigned orders keep
	// their batch regardless.
	sorted := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if o != nil {
			sorted = append(sorted, o)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.PlacedAt.IsZero() && !b.PlacedAt.IsZero() {
			return a.PlacedAt.Before(b.PlacedAt)
		}
		return a.WaitTime > b.WaitTime
	})

	// Locked batches keep their frozen item view; unlocked ones are rebuilt
	// from their (stable) order membership below.
	for _, batch := range e.batches {
		if !batch.Locked {
			batch.clearItems()
		}
	}

	for _, o := range sorted {
		batch := e.findBatchWithOrder(o.ID)
		if batch != nil {
			batch.Order(o.ID).Refresh(o)
		} else {
			batch = e.batchForOrderLocked()
			batch.addOrder(o, now)
			e.logger.Info("order assigned", "order_id", o.ID, "batch", batch.Number)
			if e.notifier != nil {
				e.notifier.OrderAssigned(batch, o)
				if batch.Locked {
					e.notifier.BatchLocked(batch)
				}
			}
		}

		// The per-aggregate contributor guard makes this a no-op for orders
		// already counted, locked batches included, so re-running the pass
		// never inflates quantities.
		e.aggregateOrderItems(batch, batch.Order(o.ID))
	}
}

func (e *Engine) aggregateOrderItems(batch *Batch, o *Order) {
	if o == nil {
		return
	}
	for _, item := range o.Items {
		key := e.matcher.GenerateItemKey(item.Name, item.Size, item.Category, item.RiceSubstitution)
		aggregate := batch.upsertItem(key, item)
		aggregate.contribute(o.ID, item.Quantity)
	}
}

func (e *Engine) findBatchWithOrder(orderID string) *Batch {
	for _, batch := range e.batches {
		if batch.HasOrder(orderID) {
			return batch
		}
	}
	return nil
}

// batchForOrderLocked picks the destination for a new order: the current
// batch when it still has room, else the first unlocked batch with free
// capacity, else a freshly created batch.
func (e *Engine) batchForOrderLocked() *Batch {
	if current := e.batches[e.current]; current.hasCapacity() {
		return current
	}
	for _, batch := range e.batches {
		if batch.hasCapacity() {
			return batch
		}
	}
	return e.createBatchLocked()
}

func (e *Engine) createBatchLocked() *Batch {
	batch := newBatch(e.nextNumber, e.capacity, e.now())
	e.nextNumber++
	e.batches = append(e.batches, batch)
	e.current = len(e.batches) - 1
	e.logger.Info("created new batch", "number", batch.Number, "capacity", batch.Capacity)
	if e.notifier != nil {
		e.notifier.BatchCreated(batch)
	}
	return batch
}

// CreateNewBatch appends a new batch and makes it current. Existing batches
// are never removed or reordered.
func (e *Engine) CreateNewBatch() *Batch {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createBatchLocked()
}

// CurrentBatch returns the batch new orders are routed to first.
func (e *Engine) CurrentBatch() *Batch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.batches[e.current]
}

// Batches returns all batches in creation order.
func (e *Engine) Batches() []*Batch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Batch(nil), e.batches...)
}

// BatchAt returns the batch at the given index, or nil when out of range.
func (e *Engine) BatchAt(index int) *Batch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.batches) {
		return nil
	}
	return e.batches[index]
}

// BatchCount returns the number of batches ever created.
func (e *Engine) BatchCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.batches)
}

// MarkOrderCompleted completes an order on an explicit external signal,
// ahead of the next snapshot. Idempotent; false when the order is unknown.
func (e *Engine) MarkOrderCompleted(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.findBatchWithOrder(orderID)
	if batch == nil {
		return false
	}
	o := batch.Order(orderID)
	if o.MarkCompleted(e.now()) {
		e.logger.Info("order completed via external signal", "order_id", orderID, "batch", batch.Number)
		if e.notifier != nil {
			e.notifier.OrderCompleted(batch, o)
		}
	}
	return true
}

// Tick runs the time-based maintenance: purging completed orders past the
// retention window and expiring highlight flags. Callers drive it from a
// periodic timer; tests call it directly with a chosen now. Locked batches
// that drain during the purge are returned as archive records, once each.
func (e *Engine) Tick(now time.Time) []BatchArchive {
	e.mu.Lock()
	defer e.mu.Unlock()

	var drained []BatchArchive
	for _, batch := range e.batches {
		before := batch.OrderCount()
		memberIDs := batch.OrderIDs()

		for _, id := range memberIDs {
			o := batch.Order(id)
			if o == nil {
				continue
			}
			if o.Completed && !o.CompletedAt.IsZero() && now.Sub(o.CompletedAt) > e.retention {
				batch.removeOrder(id)
				e.logger.Debug("purged completed order", "order_id", id, "batch", batch.Number)
				continue
			}
			if batch.IsNewOrder(id) && !o.AddedAt.IsZero() && now.Sub(o.AddedAt) > newOrderHighlight {
				batch.clearNewOrder(id)
			}
		}

		if batch.Locked && before > 0 && batch.OrderCount() == 0 {
			e.logger.Info("batch drained", "number", batch.Number)
			drained = append(drained, BatchArchive{
				BatchID:    batch.ID.String(),
				Number:     batch.Number,
				Capacity:   batch.Capacity,
				OrderCount: before,
				ItemCount:  batch.ItemCount(),
				Quantity:   batch.TotalQuantity(),
				CreatedAt:  batch.CreatedAt,
				ArchivedAt: now,
				OrderIDs:   memberIDs,
			})
		}
	}
	return drained
}

// BatchUrgency derives the urgency bucket from the oldest non-completed
// order in the batch.
func (e *Engine) BatchUrgency(b *Batch) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.batchUrgencyLocked(b)
}

func (e *Engine) batchUrgencyLocked(b *Batch) string {
	if b == nil {
		return UrgencyNormal
	}
	now := e.now()
	maxElapsed := 0
	for _, o := range b.Orders() {
		if o.Completed {
			continue
		}
		if elapsed := o.ElapsedMinutes(now); elapsed > maxElapsed {
			maxElapsed = elapsed
		}
	}
	switch {
	case maxElapsed >= urgentAfterMinutes:
		return UrgencyUrgent
	case maxElapsed >= warningAfterMinutes:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}
