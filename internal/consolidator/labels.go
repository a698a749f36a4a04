package consolidator

import (
	"strings"
	"time"
)

// Label is one printable kitchen/bag label entry.
type Label struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Size     string   `json:"size,omitempty"`
	Notes    []string `json:"notes,omitempty"`
}

// OrderLabels groups the labels belonging to one customer order.
type OrderLabels struct {
	OrderID      string  `json:"order_id"`
	OrderNumber  string  `json:"order_number,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
	Labels       []Label `json:"labels"`
}

// LabelSheet is the printable payload for one batch.
type LabelSheet struct {
	BatchID        string        `json:"batch_id"`
	BatchNumber    int           `json:"batch_number"`
	RestaurantName string        `json:"restaurant_name,omitempty"`
	GeneratedAt    time.Time     `json:"generated_at"`
	TotalLabels    int           `json:"total_labels"`
	Orders         []OrderLabels `json:"orders"`
}

// mealComponents lists the composite dishes that print as several component
// labels instead of one.
var mealComponents = map[string][]string{
	"bowl of rice meal": {"Small Rice Bowl", "Dumplings", "Dessert"},
	"bao out":           {"Bao 1", "Bao 2", "Dumplings", "Dessert"},
}

// separateItemPrefixes mark modifiers that represent a distinct physical
// item (a drink, a side) and therefore print as their own label.
var separateItemPrefixes = []string{
	"choice of side:", "choice of drink:", "side addition:", "dessert choice:",
	"extra dessert:", "drink choice:", "add a drink:", "side choice:",
	"add dessert:", "extra side:", "extra drink:", "add side:", "add drink:", "add on:",
}

// LabelBuilder flattens batch state into printable label payloads.
type LabelBuilder struct {
	matcher *ItemMatcher
}

func NewLabelBuilder(matcher *ItemMatcher) *LabelBuilder {
	if matcher == nil {
		matcher = NewItemMatcher()
	}
	return &LabelBuilder{matcher: matcher}
}

// BatchLabels builds the label sheet for the batch at index. Out-of-range
// indexes yield an empty sheet.
func (e *Engine) BatchLabels(index int, builder *LabelBuilder) LabelSheet {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if builder == nil {
		builder = NewLabelBuilder(e.matcher)
	}
	if index < 0 || index >= len(e.batches) {
		return LabelSheet{GeneratedAt: e.now()}
	}
	return builder.build(e.batches[index], e.now())
}

func (b *LabelBuilder) build(batch *Batch, now time.Time) LabelSheet {
	sheet := LabelSheet{
		BatchID:     batch.ID.String(),
		BatchNumber: batch.Number,
		GeneratedAt: now,
	}

	for _, o := range batch.Orders() {
		if o.Completed {
			continue
		}
		if sheet.RestaurantName == "" && o.RestaurantName != "" {
			sheet.RestaurantName = o.RestaurantName
		}

		entry := OrderLabels{
			OrderID:      o.ID,
			OrderNumber:  o.Number,
			CustomerName: o.CustomerName,
		}
		for _, item := range o.Items {
			entry.Labels = append(entry.Labels, b.itemLabels(item)...)
		}
		if len(entry.Labels) > 0 {
			sheet.Orders = append(sheet.Orders, entry)
			for _, l := range entry.Labels {
				sheet.TotalLabels += l.Quantity
			}
		}
	}

	return sheet
}

// itemLabels expands one order item into its printable labels: composite
// meals decompose into component labels, add-on modifiers split into
// separate labels, and the remaining modifiers print as notes.
func (b *LabelBuilder) itemLabels(item OrderItem) []Label {
	name := item.BaseName
	if name == "" {
		name = item.Name
	}

	if components, ok := mealComponents[b.matcher.Normalize(name)]; ok {
		labels := make([]Label, 0, len(components))
		for _, component := range components {
			labels = append(labels, Label{
				Name:     component,
				Quantity: item.Quantity,
				Notes:    []string{"part of " + name},
			})
		}
		return labels
	}

	main := Label{
		Name:     name,
		Quantity: item.Quantity,
	}
	if item.Size != "" && item.Size != NoSize {
		main.Size = item.Size
	}
	if item.RiceSubstitution != "" {
		main.Notes = append(main.Notes, "sub: "+item.RiceSubstitution)
	}

	labels := []Label{main}
	for _, mod := range item.Modifiers {
		if addOn, ok := splitAddOnModifier(mod); ok {
			labels = append(labels, Label{Name: addOn, Quantity: item.Quantity})
			continue
		}
		labels[0].Notes = append(labels[0].Notes, mod)
	}
	return labels
}

// splitAddOnModifier detects "add drink: Thai Tea" style modifiers and
// returns the add-on item name.
func splitAddOnModifier(modifier string) (string, bool) {
	trimmed := strings.TrimSpace(modifier)
	lower := strings.ToLower(trimmed)
	for _, prefix := range separateItemPrefixes {
		if strings.HasPrefix(lower, prefix) {
			name := strings.TrimSpace(trimmed[len(prefix):])
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}
