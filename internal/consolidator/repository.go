package consolidator

import (
	"context"
	"time"
)

// Settings is the persisted consolidator configuration. MaxWaveCapacity is
// the legacy field name kept for documents written by older versions.
type Settings struct {
	MaxBatchCapacity int       `json:"max_batch_capacity" bson:"max_batch_capacity"`
	MaxWaveCapacity  int       `json:"max_wave_capacity,omitempty" bson:"max_wave_capacity,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitzero" bson:"updated_at,omitempty"`
}

// EffectiveCapacity resolves the configured capacity, honoring the legacy
// alias, falling back to the default.
func (s *Settings) EffectiveCapacity() int {
	if s == nil {
		return DefaultCapacity
	}
	if s.MaxBatchCapacity > 0 {
		return s.MaxBatchCapacity
	}
	if s.MaxWaveCapacity > 0 {
		return s.MaxWaveCapacity
	}
	return DefaultCapacity
}

type SettingsRepository interface {
	Load(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// BatchArchive is the persisted summary of a batch, written when the batch
// drains so the dashboard can show history across restarts.
type BatchArchive struct {
	BatchID    string    `json:"batch_id" bson:"_id"`
	Number     int       `json:"number" bson:"number"`
	Capacity   int       `json:"capacity" bson:"capacity"`
	OrderCount int       `json:"order_count" bson:"order_count"`
	ItemCount  int       `json:"item_count" bson:"item_count"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	ArchivedAt time.Time `json:"archived_at" bson:"archived_at"`
	OrderIDs   []string  `json:"order_ids" bson:"order_ids"`
}

type BatchArchiveRepository interface {
	Archive(ctx context.Context, a *BatchArchive) error
	List(ctx context.Context, limit int) ([]BatchArchive, error)
}
