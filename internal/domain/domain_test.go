package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPortfolioValidate(t *testing.T) {
	tests := []struct {
		name      string
		portfolio Portfolio
		wantErr   bool
	}{
		{"valid", Portfolio{{"AAPL", 3000}, {"MSFT", 0}}, false},
		{"empty", Portfolio{}, true},
		{"duplicate", Portfolio{{"AAPL", 1}, {"AAPL", 2}}, true},
		{"negative", Portfolio{{"AAPL", -1}}, true},
		{"blank ticker", Portfolio{{"", 1}}, true},
		{"NaN amount", Portfolio{{"AAPL", math.NaN()}}, true},
		{"infinite amount", Portfolio{{"AAPL", math.Inf(-1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.portfolio.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHoldingValidate(t *testing.T) {
	tests := []struct {
		name    string
		holding Holding
		wantErr bool
	}{
		{"valid", Holding{"AAPL", 3000, 10}, false},
		{"zero stop-loss", Holding{"AAPL", 3000, 0}, false},
		{"full stop-loss", Holding{"AAPL", 0, 100}, false},
		{"stop-loss above 100", Holding{"AAPL", 3000, 100.5}, true},
		{"NaN stop-loss", Holding{"AAPL", 3000, math.NaN()}, true},
		{"infinite stop-loss", Holding{"AAPL", 3000, math.Inf(1)}, true},
		{"NaN amount", Holding{"AAPL", math.NaN(), 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.holding.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitHoldings(t *testing.T) {
	portfolio, limits := SplitHoldings([]Holding{
		{Ticker: "SAP.DE", InvestedAmount: 2250, StopLossPercent: 10},
		{Ticker: "AMZN", InvestedAmount: 3000, StopLossPercent: 5},
	})

	assert.Equal(t, []string{"SAP.DE", "AMZN"}, portfolio.Tickers())
	assert.Equal(t, 5250.0, portfolio.TotalInvested())
	assert.Equal(t, StopLossLimits{"SAP.DE": 10, "AMZN": 5}, limits)
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "ALV.DE", NormalizeTicker("  alv.de "))
}

func TestErrorWrapping(t *testing.T) {
	err := fmt.Errorf("evaluate: %w", &Error{Kind: ErrDataUnavailable, Tickers: []string{"A", "B"}, Message: "no prices"})

	assert.True(t, errors.Is(err, ErrDataUnavailable))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, "evaluate: data unavailable [A, B]: no prices", err.Error())

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"A", "B"}, de.Tickers)
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "configuration_error", KindName(NewError(ErrConfiguration, "", "x")))
	assert.Equal(t, "data_unavailable", KindName(NewError(ErrDataUnavailable, "A", "x")))
	assert.Equal(t, "insufficient_history", KindName(ErrInsufficientHistory))
	assert.Equal(t, "data_integrity", KindName(NewError(ErrDataIntegrity, "C", "x")))
	assert.Equal(t, "internal", KindName(errors.New("boom")))
}

func TestPriceTableBuilder_MergesAndSorts(t *testing.T) {
	table := NewPriceTableBuilder().
		Add("A", []PricePoint{{day("2024-01-03"), 102}, {day("2024-01-02"), 100}}).
		Add("B", []PricePoint{{day("2024-01-03").Add(15 * time.Hour), 50}, {day("2024-01-04"), 51}}).
		Build()

	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"A", "B"}, table.Tickers)
	assert.Equal(t, day("2024-01-02"), table.Rows[0].Date)

	_, ok := table.Rows[0].Price("B")
	assert.False(t, ok, "gap must be absent, not zero")

	p, ok := table.Rows[1].Price("B")
	require.True(t, ok)
	assert.Equal(t, 50.0, p)

	last, date, ok := table.LastDefined("A")
	require.True(t, ok)
	assert.Equal(t, 102.0, last)
	assert.Equal(t, day("2024-01-03"), date)
}

func TestPriceTable_HasData(t *testing.T) {
	table := NewPriceTableBuilder().Add("A", []PricePoint{{day("2024-01-02"), 1}}).Add("B", nil).Build()

	assert.True(t, table.HasData("A"))
	assert.False(t, table.HasData("B"))
	assert.Equal(t, []string{"A", "B"}, table.Tickers)
}

func TestPriceSnapshot_Missing(t *testing.T) {
	snap := PriceSnapshot{"A": 1}
	assert.Equal(t, []string{"B"}, snap.Missing([]string{"A", "B"}))
	assert.Nil(t, snap.Missing([]string{"A"}))
}
