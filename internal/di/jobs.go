package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clientstate"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/config"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/positions"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/scheduler"
)

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	StateCleanup     scheduler.Job
	PositionsRefresh scheduler.Job
}

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{
		StateCleanup:     clientstate.NewCleanupJob(container.StateRepo, log),
		PositionsRefresh: positions.NewRefreshJob(container.Reconciler, cfg.HTTPTimeout*4, log),
	}

	if err := container.Scheduler.AddJob(cfg.StateCleanupCron, instances.StateCleanup); err != nil {
		return nil, err
	}
	if err := container.Scheduler.AddJob(cfg.PositionsRefreshCron, instances.PositionsRefresh); err != nil {
		return nil, err
	}

	return instances, nil
}
