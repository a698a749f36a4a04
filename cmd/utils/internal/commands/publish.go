package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/liwesley02/otter-consolidator/internal/consolidator"
	"github.com/liwesley02/otter-consolidator/pkg"
	"github.com/liwesley02/otter-consolidator/pkg/event"
)

// PublishDemo publishes a built-in demo snapshot to the snapshot topic so a
// running consolidator picks it up the same way it would a live feed capture.
func PublishDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	snapshot := consolidator.DemoSnapshot(time.Now().UTC())
	return publishSnapshot(ctx, config, logger, snapshot)
}

// PublishSnapshot reads a snapshot event from a JSON file and publishes it.
func PublishSnapshot(ctx context.Context, config *apt.Config, logger apt.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot file: %w", err)
	}

	var snapshot event.OrderSnapshotEvent
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("parse snapshot file: %w", err)
	}
	if snapshot.EventType == "" {
		snapshot.EventType = event.EventOrderSnapshotCaptured
	}
	if snapshot.OccurredAt.IsZero() {
		snapshot.OccurredAt = time.Now().UTC()
	}

	return publishSnapshot(ctx, config, logger, snapshot)
}

func publishSnapshot(ctx context.Context, config *apt.Config, logger apt.Logger, snapshot event.OrderSnapshotEvent) error {
	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer publisher.Close()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := publisher.Publish(ctx, event.OrderSnapshotsTopic, payload); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	logger.Info("Snapshot published", "topic", event.OrderSnapshotsTopic, "orders", len(snapshot.Orders))
	return nil
}
