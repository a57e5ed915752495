package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aristath/portfolio-monitor/internal/config"
	"github.com/aristath/portfolio-monitor/internal/di"
	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/monitor"
	"github.com/aristath/portfolio-monitor/pkg/logger"
)

// holdingsFlag collects repeated -h TICKER=AMOUNT[:STOPLOSS] values.
type holdingsFlag []string

func (h *holdingsFlag) String() string { return strings.Join(*h, ",") }

func (h *holdingsFlag) Set(v string) error {
	*h = append(*h, v)
	return nil
}

// requestFlags are shared by every command that runs a check.
type requestFlags struct {
	holdings holdingsFlag
	start    string
	end      string
}

func (r *requestFlags) register(f *flag.FlagSet) {
	f.Var(&r.holdings, "h", "Holding as TICKER=AMOUNT[:STOPLOSS], repeatable. Defaults to the configured portfolio.")
	f.StringVar(&r.start, "start", "", "Start date (YYYY-MM-DD). Defaults to the lookback window.")
	f.StringVar(&r.end, "end", "", "End date (YYYY-MM-DD). Defaults to today.")
}

// build turns the flags into a request, filling gaps from defaults.
func (r *requestFlags) build(d monitor.Defaults) (monitor.Request, error) {
	start, end, err := monitor.ParseWindow(r.start, r.end, d)
	if err != nil {
		return monitor.Request{}, err
	}

	req := monitor.Request{Start: start, End: end}
	if len(r.holdings) == 0 {
		req.Holdings = append([]domain.Holding(nil), d.Holdings...)
		return req, req.Validate()
	}

	for _, raw := range r.holdings {
		h, err := monitor.ParseHoldingFlag(raw, d.StopLoss)
		if err != nil {
			return monitor.Request{}, err
		}
		req.Holdings = append(req.Holdings, h)
	}
	return req, req.Validate()
}

// setup loads configuration and wires the container. Logs go to stderr so
// stdout carries only the report.
func setup() (*config.Config, *di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := "warn"
	if *verbose {
		level = cfg.LogLevel
	}
	log := logger.New(logger.Config{
		Level:  level,
		Pretty: true,
		Output: os.Stderr,
	})

	container, _, err := di.Wire(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, container, nil
}
