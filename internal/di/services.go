package di

import (
	"fmt"
	"time"

	"github.com/aristath/portfolio-monitor/internal/clients/yahoo"
	"github.com/aristath/portfolio-monitor/internal/config"
	"github.com/aristath/portfolio-monitor/internal/modules/charts"
	"github.com/aristath/portfolio-monitor/internal/modules/monitor"
	"github.com/aristath/portfolio-monitor/internal/modules/pricing"
	"github.com/rs/zerolog"
)

// InitializeServices builds the Yahoo client, the cached price provider and
// the services on top of it.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	opts := []yahoo.ClientOption{
		yahoo.WithRateLimit(cfg.YahooRateLimit),
		yahoo.WithTimeout(cfg.YahooTimeout),
	}
	if cfg.YahooBaseURL != "" {
		opts = append(opts, yahoo.WithBaseURL(cfg.YahooBaseURL))
	}
	container.YahooClient = yahoo.NewClient(log, opts...)

	// A nil repository disables caching; the provider accepts that.
	var cache pricing.Cache
	if container.CacheRepo != nil {
		cache = container.CacheRepo
	}
	container.PriceProvider = pricing.NewCachedProvider(
		container.YahooClient,
		cache,
		cfg.HistoryCacheTTL,
		cfg.QuoteCacheTTL,
		log,
	)

	container.ChartsService = charts.NewService(charts.DefaultSMAPeriod, log)

	container.MonitorService = monitor.NewService(container.PriceProvider, monitor.Defaults{
		Holdings:     cfg.DefaultHoldings,
		StopLoss:     cfg.DefaultStopLoss,
		LookbackDays: cfg.DefaultLookbackDays,
		Now:          time.Now,
	}, log)

	return nil
}
