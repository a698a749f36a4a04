package consolidator

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/liwesley02/otter-consolidator/pkg/event"
)

// DemoSnapshot is a realistic feed capture used to exercise the full
// pipeline without a live scraper: mixed sizes, urban bowls with rice
// substitutions, a meal, and duplicate items across customers.
func DemoSnapshot(now time.Time) event.OrderSnapshotEvent {
	placed := func(minutesAgo int) *time.Time {
		t := now.Add(-time.Duration(minutesAgo) * time.Minute)
		return &t
	}

	return event.OrderSnapshotEvent{
		EventType:  event.EventOrderSnapshotCaptured,
		OccurredAt: now,
		Source:     "demo",
		Orders: []event.SnapshotOrder{
			{
				PlatformID:     "demo-1001",
				OrderNumber:    "1001",
				CustomerName:   "Maya R",
				RestaurantName: "Bowls of Rice",
				PlacedAt:       placed(12),
				Items: []event.SnapshotItem{
					{Name: "Small Crispy Chicken Rice Bowl", Quantity: 1},
					{Name: "Pork Dumplings", Quantity: 1, Modifiers: []string{"Extra Sauce"}},
				},
			},
			{
				PlatformID:     "demo-1002",
				OrderNumber:    "1002",
				CustomerName:   "Devon K",
				RestaurantName: "Bowls of Rice",
				PlacedAt:       placed(9),
				Items: []event.SnapshotItem{
					{Name: "Steak Urban Bowl", Quantity: 1, RiceSubstitution: "Garlic Butter Fried Rice"},
					{Name: "Thai Tea", Size: "Large", Quantity: 2},
				},
			},
			{
				PlatformID:     "demo-1003",
				OrderNumber:    "1003",
				CustomerName:   "Priya S",
				RestaurantName: "Bowls of Rice",
				PlacedAt:       placed(5),
				Items: []event.SnapshotItem{
					{Name: "Small Crispy Chicken Rice Bowl", Quantity: 2},
					{Name: "Bowl of Rice Meal", Quantity: 1, Modifiers: []string{"Choice of Side: Pork Dumplings"}},
				},
			},
			{
				PlatformID:     "demo-1004",
				OrderNumber:    "1004",
				CustomerName:   "Alex T",
				RestaurantName: "Bowls of Rice",
				PlacedAt:       placed(2),
				Items: []event.SnapshotItem{
					{Name: "Large Grilled Salmon Rice Bowl", Quantity: 1},
					{Name: "Crab Rangoon", Quantity: 1},
					{Name: "Cucumber Lime Refresher", Size: "Medium", Quantity: 1},
				},
			},
		},
	}
}

// ApplyDemoSeeds feeds a demo snapshot into the engine so the batching
// surfaces have data on a fresh start.
func ApplyDemoSeeds(engine *Engine, logger apt.Logger) error {
	snapshot := DemoSnapshot(time.Now())

	orders := make([]*Order, 0, len(snapshot.Orders))
	for _, rec := range snapshot.Orders {
		orders = append(orders, OrderFromFeed(rec, engine.Matcher(), engine.Classifier()))
	}

	engine.AssignOrders(orders)
	logger.Info("Demo orders seeded", "orders", len(orders))
	return nil
}

// DemoSeedingFunc returns an apt lifecycle OnStart-compatible function for demo seeding.
func DemoSeedingFunc(engine *Engine, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		if err := ApplyDemoSeeds(engine, logger); err != nil {
			logger.Errorf("Demo seeding failed (non-fatal): %v", err)
		}
		return nil
	}
}
