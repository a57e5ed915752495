// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"math"
	"strings"
)

// MaxHoldings is the largest number of holdings a single submission may carry.
const MaxHoldings = 20

// Holding is one line of user input: how much was invested in a ticker and
// at which drawdown percentage a stop-loss alert should fire.
type Holding struct {
	Ticker          string  `json:"ticker" toml:"ticker"`
	InvestedAmount  float64 `json:"invested_amount" toml:"invested_amount"`
	StopLossPercent float64 `json:"stop_loss_percent" toml:"stop_loss_percent"`
}

// Allocation is the dollar amount invested in a ticker at the base date.
type Allocation struct {
	Ticker         string  `json:"ticker"`
	InvestedAmount float64 `json:"invested_amount"`
}

// Portfolio is an ordered set of allocations with unique tickers.
// Iteration order is the order the user entered the holdings.
type Portfolio []Allocation

// StopLossLimits maps ticker to drawdown percentage threshold.
type StopLossLimits map[string]float64

// Tickers returns the portfolio tickers in order.
func (p Portfolio) Tickers() []string {
	tickers := make([]string, len(p))
	for i, a := range p {
		tickers[i] = a.Ticker
	}
	return tickers
}

// TotalInvested returns the sum of all allocations.
func (p Portfolio) TotalInvested() float64 {
	total := 0.0
	for _, a := range p {
		total += a.InvestedAmount
	}
	return total
}

// Validate checks ticker uniqueness and non-negative amounts.
func (p Portfolio) Validate() error {
	if len(p) == 0 {
		return NewError(ErrConfiguration, "", "portfolio has no holdings")
	}
	seen := make(map[string]bool, len(p))
	for _, a := range p {
		if a.Ticker == "" {
			return NewError(ErrConfiguration, "", "holding with empty ticker")
		}
		if seen[a.Ticker] {
			return NewError(ErrConfiguration, a.Ticker, "duplicate ticker")
		}
		seen[a.Ticker] = true
		if err := ValidateAmount(a.Ticker, a.InvestedAmount); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the amount and stop-loss of a single holding.
func (h Holding) Validate() error {
	if err := ValidateAmount(h.Ticker, h.InvestedAmount); err != nil {
		return err
	}
	return ValidateStopLoss(h.Ticker, h.StopLossPercent)
}

// ValidateAmount rejects negative and non-finite invested amounts.
func ValidateAmount(ticker string, amount float64) error {
	if !IsFinite(amount) {
		return NewError(ErrConfiguration, ticker,
			fmt.Sprintf("invested amount must be a finite number, got %v", amount))
	}
	if amount < 0 {
		return NewError(ErrConfiguration, ticker,
			fmt.Sprintf("invested amount must not be negative, got %v", amount))
	}
	return nil
}

// ValidateStopLoss rejects stop-loss percentages outside [0, 100], NaN included.
func ValidateStopLoss(ticker string, percent float64) error {
	if !IsFinite(percent) || percent < 0 || percent > 100 {
		return NewError(ErrConfiguration, ticker,
			fmt.Sprintf("stop-loss percent must be between 0 and 100, got %v", percent))
	}
	return nil
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// SplitHoldings separates collected holdings into the portfolio allocations
// and the stop-loss limits the evaluator consumes.
func SplitHoldings(holdings []Holding) (Portfolio, StopLossLimits) {
	portfolio := make(Portfolio, 0, len(holdings))
	limits := make(StopLossLimits, len(holdings))
	for _, h := range holdings {
		portfolio = append(portfolio, Allocation{Ticker: h.Ticker, InvestedAmount: h.InvestedAmount})
		limits[h.Ticker] = h.StopLossPercent
	}
	return portfolio, limits
}
