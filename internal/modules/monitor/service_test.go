package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
	testingpkg "github.com/aristath/portfolio-monitor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(p *testingpkg.MockPriceProvider) *Service {
	return NewService(p, testDefaults(), zerolog.New(nil).Level(zerolog.Disabled))
}

func window() (time.Time, time.Time) {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
}

func TestCheck(t *testing.T) {
	provider := &testingpkg.MockPriceProvider{
		Closes: map[string][]float64{"A": {100, 100}},
		Quotes: domain.PriceSnapshot{"A": 89},
	}
	start, end := window()

	ev, err := newTestService(provider).Check(context.Background(), Request{
		Holdings: []domain.Holding{{Ticker: "A", InvestedAmount: 1000, StopLossPercent: 10}},
		Start:    start,
		End:      end,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, []string{"A"}, provider.LastTickers())
	assert.Equal(t, domain.Portfolio{{Ticker: "A", InvestedAmount: 1000}}, ev.Portfolio)
	assert.Equal(t, []float64{1000, 1000}, ev.Result.Values())
	require.Len(t, ev.Result.Alerts, 1)

	in := ev.ReportInput("EUR")
	assert.Equal(t, "EUR", in.Currency)
	assert.Equal(t, start, in.Start)
}

func TestCheck_StaleQuotesReachReport(t *testing.T) {
	provider := &testingpkg.MockPriceProvider{
		Closes: map[string][]float64{"A": {100, 100}},
		Quotes: domain.PriceSnapshot{"A": 95},
		Stale:  []string{"A"},
	}
	start, end := window()

	ev, err := newTestService(provider).Check(context.Background(), Request{
		Holdings: []domain.Holding{{Ticker: "A", InvestedAmount: 1000, StopLossPercent: 10}},
		Start:    start,
		End:      end,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, ev.StaleQuotes)
	assert.Equal(t, []string{"A"}, ev.ReportInput("EUR").StaleQuotes)
}

func TestCheck_DataUnavailable(t *testing.T) {
	provider := &testingpkg.MockPriceProvider{
		Closes: map[string][]float64{"B": {100, 101}},
		Quotes: domain.PriceSnapshot{"A": 1, "B": 1},
	}
	start, end := window()

	_, err := newTestService(provider).Check(context.Background(), Request{
		Holdings: []domain.Holding{
			{Ticker: "A", InvestedAmount: 1000, StopLossPercent: 10},
			{Ticker: "B", InvestedAmount: 1000, StopLossPercent: 10},
		},
		Start: start,
		End:   end,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"A"}, de.Tickers)
}

func TestCheck_DuplicateTickersRejectedBeforeFetch(t *testing.T) {
	provider := &testingpkg.MockPriceProvider{}
	start, end := window()

	_, err := newTestService(provider).Check(context.Background(), Request{
		Holdings: []domain.Holding{{Ticker: "A"}, {Ticker: "A"}},
		Start:    start,
		End:      end,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Zero(t, provider.HistoryCalls())
}

func TestCheck_InvalidStopLossRejectedBeforeFetch(t *testing.T) {
	provider := &testingpkg.MockPriceProvider{}
	start, end := window()

	_, err := newTestService(provider).Check(context.Background(), Request{
		Holdings: []domain.Holding{{Ticker: "A", InvestedAmount: 1000, StopLossPercent: 150}},
		Start:    start,
		End:      end,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Zero(t, provider.HistoryCalls())
}

func TestCheck_ProviderFailure(t *testing.T) {
	provider := &testingpkg.MockPriceProvider{Err: errors.New("connection refused")}
	start, end := window()

	_, err := newTestService(provider).Check(context.Background(), Request{
		Holdings: []domain.Holding{{Ticker: "A", InvestedAmount: 1, StopLossPercent: 10}},
		Start:    start,
		End:      end,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPriceSource))
}

func TestCheck_Cancelled(t *testing.T) {
	provider := &testingpkg.MockPriceProvider{Err: errors.New("request aborted")}
	start, end := window()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(provider).Check(ctx, Request{
		Holdings: []domain.Holding{{Ticker: "A", InvestedAmount: 1, StopLossPercent: 10}},
		Start:    start,
		End:      end,
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDefaultRequest(t *testing.T) {
	s := newTestService(&testingpkg.MockPriceProvider{})
	req := s.DefaultRequest()

	assert.Len(t, req.Holdings, 2)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), req.End)

	req.Holdings[0].Ticker = "CHANGED"
	assert.Equal(t, "AAPL", s.Defaults().Holdings[0].Ticker)
}
