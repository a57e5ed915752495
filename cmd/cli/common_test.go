package main

import (
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefaults() monitor.Defaults {
	return monitor.Defaults{
		Holdings:     []domain.Holding{{Ticker: "SAP.DE", InvestedAmount: 2250, StopLossPercent: 10}},
		StopLoss:     10,
		LookbackDays: 365,
		Now:          func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) },
	}
}

func TestRequestFlags_Repeated(t *testing.T) {
	var rf requestFlags
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	rf.register(fs)

	require.NoError(t, fs.Parse([]string{"-h", "AAPL=3000:8", "-h", "msft=2250", "-start", "2024-01-01"}))

	req, err := rf.build(testDefaults())
	require.NoError(t, err)
	assert.Equal(t, []domain.Holding{
		{Ticker: "AAPL", InvestedAmount: 3000, StopLossPercent: 8},
		{Ticker: "MSFT", InvestedAmount: 2250, StopLossPercent: 10},
	}, req.Holdings)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), req.End)
}

func TestRequestFlags_DefaultPortfolio(t *testing.T) {
	var rf requestFlags
	req, err := rf.build(testDefaults())
	require.NoError(t, err)
	assert.Equal(t, testDefaults().Holdings, req.Holdings)
}

func TestRequestFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rf   requestFlags
	}{
		{"malformed holding", requestFlags{holdings: holdingsFlag{"AAPL"}}},
		{"bad date", requestFlags{start: "yesterday"}},
		{"reversed window", requestFlags{start: "2024-05-01", end: "2024-04-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rf.build(testDefaults())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestHoldingsFlag_String(t *testing.T) {
	h := holdingsFlag{"A=1", "B=2"}
	assert.Equal(t, "A=1,B=2", h.String())
}
