package consolidator

import (
	"sort"
	"time"
)

// CategoryGroup is one category bucket of a batch's items, sorted by
// aggregate quantity descending. Hierarchical families also carry protein
// sub-groups; their Items slice then holds only items without a
// sub-category.
type CategoryGroup struct {
	Category  string      `json:"category"`
	Name      string      `json:"name"`
	Items     []BatchItem `json:"items"`
	SubGroups []SubGroup  `json:"sub_groups,omitempty"`
}

// SubGroup is one protein sub-bucket inside a hierarchical category.
type SubGroup struct {
	Sub   string      `json:"sub"`
	Name  string      `json:"name"`
	Items []BatchItem `json:"items"`
}

// BatchSummary is the renderer-facing view of one batch.
type BatchSummary struct {
	ID          string    `json:"id"`
	Number      int       `json:"number"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Locked      bool      `json:"locked"`
	Urgency     string    `json:"urgency"`
	CreatedAt   time.Time `json:"created_at"`
	OrderCount  int       `json:"order_count"`
	ItemCount   int       `json:"item_count"`
	Quantity    int       `json:"quantity"`
	Orders      []Order   `json:"orders"`
	NewOrderIDs []string  `json:"new_order_ids,omitempty"`
}

// Stats aggregates engine-wide counters for the dashboard.
type Stats struct {
	TotalBatches     int `json:"total_batches"`
	ActiveBatches    int `json:"active_batches"`
	LockedBatches    int `json:"locked_batches"`
	CurrentBatchSize int `json:"current_batch_size"`
	TotalQuantity    int `json:"total_quantity"`
}

// BatchSummaries returns renderer views of every batch. Returned structures
// are copies; mutating them never touches engine state.
func (e *Engine) BatchSummaries() []BatchSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]BatchSummary, 0, len(e.batches))
	for _, b := range e.batches {
		result = append(result, e.summarizeLocked(b))
	}
	return result
}

// BatchSummaryAt returns the view of one batch. Out-of-range indexes yield
// an empty summary, never an error.
func (e *Engine) BatchSummaryAt(index int) BatchSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.batches) {
		return BatchSummary{}
	}
	return e.summarizeLocked(e.batches[index])
}

func (e *Engine) summarizeLocked(b *Batch) BatchSummary {
	orders := b.Orders()
	copied := make([]Order, 0, len(orders))
	for _, o := range orders {
		copied = append(copied, *o)
	}
	return BatchSummary{
		ID:          b.ID.String(),
		Number:      b.Number,
		Name:        b.Name,
		Capacity:    b.Capacity,
		Locked:      b.Locked,
		Urgency:     e.batchUrgencyLocked(b),
		CreatedAt:   b.CreatedAt,
		OrderCount:  b.OrderCount(),
		ItemCount:   b.ItemCount(),
		Quantity:    b.TotalQuantity(),
		Orders:      copied,
		NewOrderIDs: b.NewOrderIDs(),
	}
}

// BatchByCategory groups a batch's items by category, nesting the
// hierarchical families by protein sub-category. Groups follow DisplayOrder;
// items sort by aggregate quantity descending. An out-of-range index yields
// an empty slice.
func (e *Engine) BatchByCategory(index int) []CategoryGroup {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if index < 0 || index >= len(e.batches) {
		return []CategoryGroup{}
	}
	batch := e.batches[index]

	groups := make(map[string]*CategoryGroup)
	subGroups := make(map[string]map[string]*SubGroup)

	for _, item := range batch.Items() {
		category := item.Category
		if category == "" {
			category = CategoryUncategorized
		}

		group, ok := groups[category]
		if !ok {
			group = &CategoryGroup{Category: category, Name: e.classifier.DisplayName(category)}
			groups[category] = group
		}

		if IsHierarchical(category) && item.CategoryInfo.Sub != "" {
			subs, ok := subGroups[category]
			if !ok {
				subs = make(map[string]*SubGroup)
				subGroups[category] = subs
			}
			sub, ok := subs[item.CategoryInfo.Sub]
			if !ok {
				sub = &SubGroup{Sub: item.CategoryInfo.Sub, Name: item.CategoryInfo.SubName}
				subs[item.CategoryInfo.Sub] = sub
			}
			sub.Items = append(sub.Items, *item)
			continue
		}

		group.Items = append(group.Items, *item)
	}

	for category, subs := range subGroups {
		group := groups[category]
		keys := make([]string, 0, len(subs))
		for k := range subs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sortByQuantity(subs[k].Items)
			group.SubGroups = append(group.SubGroups, *subs[k])
		}
	}

	result := make([]CategoryGroup, 0, len(groups))
	for _, category := range orderedCategories(groups) {
		group := groups[category]
		sortByQuantity(group.Items)
		result = append(result, *group)
	}
	return result
}

// SizeGroup is one bucket of the fixed-order size catalog projection.
type SizeGroup struct {
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	Items []BatchItem `json:"items"`
}

// sizeBucketOrder is the fixed catalog of size buckets. Unknown sizes (rice
// substitutions used as sizes) get their own buckets appended after it.
var sizeBucketOrder = []string{"small", "medium", "large", "regular", NoSize}

var sizeBucketNames = map[string]string{
	"small":   "Small",
	"medium":  "Medium",
	"large":   "Large",
	"regular": "Regular",
	NoSize:    "No Size",
}

// BatchBySizeGroups groups a batch's items by size into the fixed ordered
// bucket catalog, unknown sizes appended last, items sorted by quantity
// descending within each bucket.
func (e *Engine) BatchBySizeGroups(index int) []SizeGroup {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if index < 0 || index >= len(e.batches) {
		return []SizeGroup{}
	}
	batch := e.batches[index]

	buckets := make(map[string]*SizeGroup)
	for _, item := range batch.Items() {
		// A rice substitution takes over the size slot, same as in the
		// identity key.
		size := item.Size
		if item.RiceSubstitution != "" {
			size = item.RiceSubstitution
		}
		key := e.matcher.SizeGroupKey(size)
		bucket, ok := buckets[key]
		if !ok {
			name, known := sizeBucketNames[key]
			if !known {
				name = size
			}
			bucket = &SizeGroup{Key: key, Name: name}
			buckets[key] = bucket
		}
		bucket.Items = append(bucket.Items, *item)
	}

	result := make([]SizeGroup, 0, len(buckets))
	appendBucket := func(key string) {
		if bucket, ok := buckets[key]; ok {
			sortByQuantity(bucket.Items)
			result = append(result, *bucket)
			delete(buckets, key)
		}
	}
	for _, key := range sizeBucketOrder {
		appendBucket(key)
	}
	remaining := make([]string, 0, len(buckets))
	for key := range buckets {
		remaining = append(remaining, key)
	}
	sort.Strings(remaining)
	for _, key := range remaining {
		appendBucket(key)
	}
	return result
}

// Stats returns engine-wide aggregate counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{TotalBatches: len(e.batches)}
	for _, b := range e.batches {
		if b.Locked {
			s.LockedBatches++
		} else {
			s.ActiveBatches++
		}
		s.TotalQuantity += b.TotalQuantity()
	}
	s.CurrentBatchSize = e.batches[e.current].ItemCount()
	return s
}

func sortByQuantity(items []BatchItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].BatchQuantity > items[j].BatchQuantity
	})
}

// orderedCategories yields the group keys in DisplayOrder, then any unknown
// categories alphabetically.
func orderedCategories(groups map[string]*CategoryGroup) []string {
	result := make([]string, 0, len(groups))
	seen := make(map[string]struct{})
	for _, key := range DisplayOrder {
		if _, ok := groups[key]; ok {
			result = append(result, key)
			seen[key] = struct{}{}
		}
	}
	rest := make([]string, 0)
	for key := range groups {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(result, rest...)
}
