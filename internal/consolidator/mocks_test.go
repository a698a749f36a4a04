package consolidator

import (
	"context"
)

// MockNotifier records engine lifecycle notifications for assertions.
type MockNotifier struct {
	CreatedCalls   []*Batch
	LockedCalls    []*Batch
	AssignedCalls  []string
	CompletedCalls []string
}

func (m *MockNotifier) BatchCreated(b *Batch) {
	m.CreatedCalls = append(m.CreatedCalls, b)
}

func (m *MockNotifier) BatchLocked(b *Batch) {
	m.LockedCalls = append(m.LockedCalls, b)
}

func (m *MockNotifier) OrderAssigned(b *Batch, o *Order) {
	m.AssignedCalls = append(m.AssignedCalls, o.ID)
}

func (m *MockNotifier) OrderCompleted(b *Batch, o *Order) {
	m.CompletedCalls = append(m.CompletedCalls, o.ID)
}

// MockSettingsRepo is a mock implementation of SettingsRepository for testing
type MockSettingsRepo struct {
	LoadFunc func(ctx context.Context) (*Settings, error)
	SaveFunc func(ctx context.Context, s *Settings) error
	Saved    []*Settings
}

func (m *MockSettingsRepo) Load(ctx context.Context) (*Settings, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil, nil
}

func (m *MockSettingsRepo) Save(ctx context.Context, s *Settings) error {
	m.Saved = append(m.Saved, s)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	return nil
}

// MockArchiveRepo is a mock implementation of BatchArchiveRepository for testing
type MockArchiveRepo struct {
	ArchiveFunc func(ctx context.Context, a *BatchArchive) error
	ListFunc    func(ctx context.Context, limit int) ([]BatchArchive, error)
	Archived    []*BatchArchive
}

func (m *MockArchiveRepo) Archive(ctx context.Context, a *BatchArchive) error {
	m.Archived = append(m.Archived, a)
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, a)
	}
	return nil
}

func (m *MockArchiveRepo) List(ctx context.Context, limit int) ([]BatchArchive, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return []BatchArchive{}, nil
}
