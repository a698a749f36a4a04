package consolidator

import (
	"context"

	"github.com/appetiteclub/apt"
)

// DashboardReporter pushes drained batch reports to the dashboard service.
// Nil when no dashboard is configured; callers treat it as optional.
type DashboardReporter struct {
	client *apt.ServiceClient
	logger apt.Logger
}

func NewDashboardReporter(config *apt.Config, logger apt.Logger) *DashboardReporter {
	dashURL, _ := config.GetString("services.dashboard.url")
	if dashURL == "" {
		return nil
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &DashboardReporter{
		client: apt.NewServiceClient(dashURL),
		logger: logger,
	}
}

// ReportDrained sends one report per drained batch. Failures are logged and
// skipped; the dashboard is a consumer, not a dependency.
func (r *DashboardReporter) ReportDrained(ctx context.Context, archives []BatchArchive) {
	for i := range archives {
		if _, err := r.client.Create(ctx, "batch-reports", archives[i]); err != nil {
			r.logger.Errorf("Failed to report batch %d to dashboard: %v", archives[i].Number, err)
		}
	}
}
