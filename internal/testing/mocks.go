package testing

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
)

// MockPriceProvider serves fixed closes and quotes. Closes are laid out one
// per day from the requested start date; tickers missing from Closes or
// Quotes are simply absent from the results.
type MockPriceProvider struct {
	Closes map[string][]float64
	Quotes domain.PriceSnapshot
	// Stale is reported as the tickers priced from an expired cache entry.
	Stale []string
	Err   error

	mu           sync.Mutex
	historyCalls int
	lastTickers  []string
}

// History implements the price provider interface.
func (m *MockPriceProvider) History(_ context.Context, tickers []string, start, _ time.Time) (domain.PriceTable, error) {
	m.mu.Lock()
	m.historyCalls++
	m.lastTickers = append([]string(nil), tickers...)
	m.mu.Unlock()

	if m.Err != nil {
		return domain.PriceTable{}, m.Err
	}

	b := domain.NewPriceTableBuilder()
	for _, t := range tickers {
		b.Add(t, DailyPoints(start, m.Closes[t]))
	}
	return b.Build(), nil
}

// Snapshot implements the price provider interface.
func (m *MockPriceProvider) Snapshot(_ context.Context, tickers []string) (domain.Quotes, error) {
	if m.Err != nil {
		return domain.Quotes{}, m.Err
	}

	out := make(domain.PriceSnapshot, len(tickers))
	for _, t := range tickers {
		if p, ok := m.Quotes[t]; ok {
			out[t] = p
		}
	}
	return domain.Quotes{Prices: out, Stale: m.Stale}, nil
}

// HistoryCalls returns how many times History was called.
func (m *MockPriceProvider) HistoryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyCalls
}

// LastTickers returns the tickers of the most recent History call.
func (m *MockPriceProvider) LastTickers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTickers
}
