// Package di wires the application's dependencies.
package di

import (
	"github.com/aristath/portfolio-monitor/internal/clientdata"
	"github.com/aristath/portfolio-monitor/internal/clients/yahoo"
	"github.com/aristath/portfolio-monitor/internal/database"
	"github.com/aristath/portfolio-monitor/internal/modules/charts"
	"github.com/aristath/portfolio-monitor/internal/modules/monitor"
	"github.com/aristath/portfolio-monitor/internal/modules/pricing"
	"github.com/aristath/portfolio-monitor/internal/scheduler"
)

// Container holds every long-lived component. Both the HTTP server and the
// CLI are built from one.
type Container struct {
	// Storage
	CacheDB   *database.DB
	CacheRepo *clientdata.Repository

	// Clients
	YahooClient *yahoo.Client

	// Services
	PriceProvider  *pricing.CachedProvider
	ChartsService  *charts.Service
	MonitorService *monitor.Service

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the scheduled jobs for manual triggering.
type JobInstances struct {
	CacheCleanup scheduler.Job
}
