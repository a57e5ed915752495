package monitor

import (
	"errors"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 17, 30, 0, 0, time.UTC)

func testDefaults() Defaults {
	return Defaults{
		Holdings: []domain.Holding{
			{Ticker: "AAPL", InvestedAmount: 3000, StopLossPercent: 10},
			{Ticker: "MSFT", InvestedAmount: 2250, StopLossPercent: 10},
		},
		StopLoss:     10,
		LookbackDays: 365,
		Now:          func() time.Time { return fixedNow },
	}
}

func TestDefaults_Window(t *testing.T) {
	start, end := testDefaults().Window()
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC), start)
}

func TestParseForm(t *testing.T) {
	values := url.Values{
		"ticker_0":   {" aapl "},
		"amount_0":   {"3000"},
		"stoploss_0": {"8"},
		"ticker_1":   {""},
		"amount_1":   {"999"},
		"ticker_3":   {"SAP.DE"},
		"amount_3":   {""},
		"start":      {"2024-01-01"},
		"end":        {"2024-03-31"},
	}

	req, err := ParseForm(values, testDefaults())
	require.NoError(t, err)

	assert.Equal(t, []domain.Holding{
		{Ticker: "AAPL", InvestedAmount: 3000, StopLossPercent: 8},
		{Ticker: "SAP.DE", InvestedAmount: 0, StopLossPercent: 10},
	}, req.Holdings)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), req.End)
}

func TestParseForm_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{"no holdings", url.Values{"ticker_0": {""}}},
		{"bad amount", url.Values{"ticker_0": {"A"}, "amount_0": {"lots"}}},
		{"bad stop-loss", url.Values{"ticker_0": {"A"}, "stoploss_0": {"ten"}}},
		{"NaN amount", url.Values{"ticker_0": {"A"}, "amount_0": {"NaN"}}},
		{"infinite amount", url.Values{"ticker_0": {"A"}, "amount_0": {"+Inf"}}},
		{"NaN stop-loss", url.Values{"ticker_0": {"A"}, "stoploss_0": {"nan"}}},
		{"negative amount", url.Values{"ticker_0": {"A"}, "amount_0": {"-5"}}},
		{"stop-loss above 100", url.Values{"ticker_0": {"A"}, "stoploss_0": {"150"}}},
		{"bad date", url.Values{"ticker_0": {"A"}, "start": {"01/02/2024"}}},
		{"end before start", url.Values{"ticker_0": {"A"}, "start": {"2024-02-01"}, "end": {"2024-01-01"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForm(tt.values, testDefaults())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestHasSubmission(t *testing.T) {
	assert.False(t, HasSubmission(url.Values{}))
	assert.False(t, HasSubmission(url.Values{"ticker_0": {"  "}}))
	assert.True(t, HasSubmission(url.Values{"ticker_19": {"NVDA"}}))
	assert.False(t, HasSubmission(url.Values{"ticker_20": {"NVDA"}}), "only 20 rows are read")
}

func TestCheckRequest_ToRequest(t *testing.T) {
	stop := 5.0
	body := CheckRequest{
		Holdings: []HoldingInput{
			{Ticker: "nvda", InvestedAmount: 2250, StopLossPercent: &stop},
			{Ticker: "ALV.DE", InvestedAmount: 2250},
			{Ticker: " ", InvestedAmount: 1},
		},
		Start: "2024-01-01",
	}

	req, err := body.ToRequest(testDefaults())
	require.NoError(t, err)

	assert.Equal(t, []domain.Holding{
		{Ticker: "NVDA", InvestedAmount: 2250, StopLossPercent: 5},
		{Ticker: "ALV.DE", InvestedAmount: 2250, StopLossPercent: 10},
	}, req.Holdings)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), req.End)
}

func TestCheckRequest_DefaultPortfolio(t *testing.T) {
	req, err := CheckRequest{}.ToRequest(testDefaults())
	require.NoError(t, err)
	assert.Len(t, req.Holdings, 2)
	assert.Equal(t, "AAPL", req.Holdings[0].Ticker)
}

func TestRequest_TooManyHoldings(t *testing.T) {
	req := Request{Start: fixedNow, End: fixedNow}
	for i := 0; i <= domain.MaxHoldings; i++ {
		req.Holdings = append(req.Holdings, domain.Holding{Ticker: string(rune('A' + i))})
	}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestParseHoldingFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Holding
		wantErr bool
	}{
		{"AAPL=3000:8", domain.Holding{Ticker: "AAPL", InvestedAmount: 3000, StopLossPercent: 8}, false},
		{"msft=2250", domain.Holding{Ticker: "MSFT", InvestedAmount: 2250, StopLossPercent: 10}, false},
		{"SAP.DE=", domain.Holding{Ticker: "SAP.DE", InvestedAmount: 0, StopLossPercent: 10}, false},
		{"AAPL", domain.Holding{}, true},
		{"=100", domain.Holding{}, true},
		{"AAPL=abc", domain.Holding{}, true},
		{"AAPL=100:x", domain.Holding{}, true},
		{"AAPL=NaN", domain.Holding{}, true},
		{"AAPL=100:Inf", domain.Holding{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHoldingFlag(tt.in, 10)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequest_ValidateHoldings(t *testing.T) {
	tests := []struct {
		name    string
		holding domain.Holding
	}{
		{"negative amount", domain.Holding{Ticker: "A", InvestedAmount: -1, StopLossPercent: 10}},
		{"NaN amount", domain.Holding{Ticker: "A", InvestedAmount: math.NaN(), StopLossPercent: 10}},
		{"infinite amount", domain.Holding{Ticker: "A", InvestedAmount: math.Inf(1), StopLossPercent: 10}},
		{"NaN stop-loss", domain.Holding{Ticker: "A", InvestedAmount: 1, StopLossPercent: math.NaN()}},
		{"stop-loss above 100", domain.Holding{Ticker: "A", InvestedAmount: 1, StopLossPercent: 101}},
		{"negative stop-loss", domain.Holding{Ticker: "A", InvestedAmount: 1, StopLossPercent: -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{Holdings: []domain.Holding{tt.holding}, Start: fixedNow, End: fixedNow}
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}
