// Package main is the entry point for the portfolio monitor HTTP server.
// It serves the dashboard, the JSON check API and chart images.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/portfolio-monitor/internal/config"
	"github.com/aristath/portfolio-monitor/internal/di"
	monitorhandlers "github.com/aristath/portfolio-monitor/internal/modules/monitor/handlers"
	"github.com/aristath/portfolio-monitor/internal/server"
	"github.com/aristath/portfolio-monitor/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Drop whatever expired while the process was down
	if err := container.Scheduler.RunNow(jobs.CacheCleanup); err != nil {
		log.Warn().Err(err).Msg("Initial cache cleanup failed")
	}
	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		CacheDB:   container.CacheDB,
		Cache:     container.CacheRepo,
		Scheduler: container.Scheduler,
		Monitor: monitorhandlers.NewHandler(
			container.MonitorService,
			container.ChartsService,
			cfg.DisplayCurrency,
			log,
		),
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Version: version,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	printBanner(cfg, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	printShutdownBanner(log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
