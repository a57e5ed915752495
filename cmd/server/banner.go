package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aristath/portfolio-monitor/internal/config"
	"github.com/rs/zerolog"
	"github.com/ternarybob/banner"
)

// printBanner writes the startup banner to stderr.
func printBanner(cfg *config.Config, log zerolog.Logger) {
	serviceURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	cache := cfg.CacheDBPath
	if cache == "" {
		cache = "in-memory"
	}
	portfolio := cfg.PortfolioFile
	if portfolio == "" {
		portfolio = "built-in"
	}

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
	fmt.Fprintf(os.Stderr, "%s  PORTFOLIO MONITOR%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s  Stop-loss checks for a small equity portfolio%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	kvPad := 16
	kvLines := [][2]string{
		{"Version", version},
		{"Service URL", serviceURL},
		{"Cache", cache},
		{"Portfolio", portfolio},
		{"Holdings", strconv.Itoa(len(cfg.DefaultHoldings))},
		{"Currency", cfg.DisplayCurrency},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	log.Info().
		Str("version", version).
		Str("service_url", serviceURL).
		Str("cache", cache).
		Str("portfolio", portfolio).
		Msg("Application started")
}

// printShutdownBanner writes the shutdown banner to stderr.
func printShutdownBanner(log zerolog.Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 42) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  PORTFOLIO MONITOR SHUTTING DOWN%s\n", banner.ColorBold+banner.ColorWhite, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	log.Info().Msg("Application shutting down")
}
