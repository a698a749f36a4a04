package consolidator

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
)

const maintenanceInterval = 5 * time.Second

// Maintainer drives the engine's periodic maintenance: retention purges,
// highlight expiry, and archiving of drained batches. It implements the
// Start/Stop lifecycle contract.
type Maintainer struct {
	engine      *Engine
	archiveRepo BatchArchiveRepository
	reporter    *DashboardReporter
	logger      apt.Logger
	interval    time.Duration
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewMaintainer(
	engine *Engine,
	archiveRepo BatchArchiveRepository,
	reporter *DashboardReporter,
	logger apt.Logger,
) *Maintainer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Maintainer{
		engine:      engine,
		archiveRepo: archiveRepo,
		reporter:    reporter,
		logger:      logger,
		interval:    maintenanceInterval,
	}
}

func (m *Maintainer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(runCtx)
	m.logger.Info("Maintenance loop started", "interval", m.interval.String())
	return nil
}

func (m *Maintainer) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	return nil
}

func (m *Maintainer) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.sweep(ctx, now)
		}
	}
}

func (m *Maintainer) sweep(ctx context.Context, now time.Time) {
	drained := m.engine.Tick(now)
	if len(drained) == 0 {
		return
	}

	if m.archiveRepo != nil {
		for i := range drained {
			if err := m.archiveRepo.Archive(ctx, &drained[i]); err != nil {
				m.logger.Errorf("Failed to archive batch %d: %v", drained[i].Number, err)
			}
		}
	}

	if m.reporter != nil {
		m.reporter.ReportDrained(ctx, drained)
	}
}
