package di

import (
	"fmt"

	"github.com/aristath/portfolio-monitor/internal/clientdata"
	"github.com/aristath/portfolio-monitor/internal/config"
	"github.com/aristath/portfolio-monitor/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers background jobs. The
// scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	if container.CacheRepo != nil {
		instances.CacheCleanup = clientdata.NewCleanupJob(container.CacheRepo, log)
		if err := container.Scheduler.AddJob(cfg.CacheCleanupSchedule, instances.CacheCleanup); err != nil {
			return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
		}
	}

	return instances, nil
}
