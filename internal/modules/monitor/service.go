// Package monitor runs a portfolio check end to end: validate the
// submission, fetch prices, evaluate.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/evaluation"
	"github.com/aristath/portfolio-monitor/internal/modules/pricing"
	"github.com/aristath/portfolio-monitor/internal/modules/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrPriceSource wraps provider failures that are not about the portfolio
// itself, such as the upstream API being unreachable.
var ErrPriceSource = errors.New("price source unavailable")

// Evaluation is the outcome of one check.
type Evaluation struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Start     time.Time          `json:"start"`
	End       time.Time          `json:"end"`
	Portfolio domain.Portfolio   `json:"portfolio"`
	Result    *evaluation.Result `json:"result"`

	// StaleQuotes lists tickers whose current price came from an expired
	// cache entry because the live quote failed.
	StaleQuotes []string `json:"stale_quotes,omitempty"`
}

// ReportInput prepares the evaluation for the report renderer.
func (e *Evaluation) ReportInput(currency string) report.Input {
	return report.Input{
		Portfolio:   e.Portfolio,
		Currency:    currency,
		Start:       e.Start,
		End:         e.End,
		Result:      e.Result,
		StaleQuotes: e.StaleQuotes,
	}
}

// Service orchestrates price retrieval and evaluation
type Service struct {
	provider pricing.Provider
	defaults Defaults
	log      zerolog.Logger
}

// NewService creates a new monitor service
func NewService(provider pricing.Provider, defaults Defaults, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		defaults: defaults,
		log:      log.With().Str("service", "monitor").Logger(),
	}
}

// Defaults returns the defaults applied to incomplete submissions.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

// DefaultRequest is the configured portfolio over the default window.
func (s *Service) DefaultRequest() Request {
	start, end := s.defaults.Window()
	return Request{
		Holdings: append([]domain.Holding(nil), s.defaults.Holdings...),
		Start:    start,
		End:      end,
	}
}

// Check evaluates one submission. Each call is independent; nothing is
// shared with other checks except the provider's cache.
func (s *Service) Check(ctx context.Context, req Request) (*Evaluation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	portfolio, limits := domain.SplitHoldings(req.Holdings)
	if err := portfolio.Validate(); err != nil {
		return nil, err
	}
	tickers := portfolio.Tickers()

	started := time.Now()
	table, err := s.provider.History(ctx, tickers, req.Start, req.End)
	if err != nil {
		return nil, s.providerError(ctx, err)
	}

	quotes, err := s.provider.Snapshot(ctx, tickers)
	if err != nil {
		return nil, s.providerError(ctx, err)
	}

	result, err := evaluation.Evaluate(portfolio, limits, table, quotes.Prices)
	if err != nil {
		s.log.Info().
			Err(err).
			Strs("tickers", tickers).
			Str("kind", domain.KindName(err)).
			Msg("Evaluation rejected")
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	ev := &Evaluation{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Start:       req.Start,
		End:         req.End,
		Portfolio:   portfolio,
		Result:      result,
		StaleQuotes: quotes.Stale,
	}

	s.log.Info().
		Str("evaluation_id", ev.ID).
		Int("holdings", len(portfolio)).
		Int("rows", table.Len()).
		Int("alerts", len(result.Alerts)).
		Int("failures", len(result.Failures)).
		Strs("stale_quotes", quotes.Stale).
		Dur("duration", time.Since(started)).
		Msg("Portfolio evaluated")

	return ev, nil
}

func (s *Service) providerError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.log.Error().Err(err).Msg("Price retrieval failed")
	return fmt.Errorf("%w: %w", ErrPriceSource, err)
}
