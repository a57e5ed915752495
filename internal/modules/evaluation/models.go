package evaluation

import "time"

// ValuePoint is one date of the normalized portfolio value series.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// StopLossAlert is emitted when a ticker's drawdown reaches its limit.
// Numeric fields keep full precision; Message rounds them for display.
type StopLossAlert struct {
	Ticker          string  `json:"ticker"`
	CurrentPrice    float64 `json:"current_price"`
	ReferencePrice  float64 `json:"reference_price"`
	DrawdownPercent float64 `json:"drawdown_percent"`
	LimitPercent    float64 `json:"limit_percent"`
	Message         string  `json:"message"`
}

// Position is the per-ticker outcome, one per portfolio entry in portfolio order.
type Position struct {
	Ticker          string   `json:"ticker"`
	InvestedAmount  float64  `json:"invested_amount"`
	CurrentPrice    float64  `json:"current_price"`
	PreviousClose   float64  `json:"previous_close"`
	DrawdownPercent *float64 `json:"drawdown_percent,omitempty"` // nil when previous close is unusable
	StopLossPercent float64  `json:"stop_loss_percent"`
	Triggered       bool     `json:"triggered"`
}

// TickerFailure records a ticker that could not be evaluated while the rest could.
type TickerFailure struct {
	Ticker  string `json:"ticker"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Summary holds headline metrics of the value series.
type Summary struct {
	StartValue           float64 `json:"start_value"`
	EndValue             float64 `json:"end_value"`
	TotalReturnPercent   float64 `json:"total_return_percent"`
	MaxDrawdownPercent   float64 `json:"max_drawdown_percent"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
}

// Result is the full output of Evaluate.
type Result struct {
	BaseDate  time.Time       `json:"base_date"`
	Series    []ValuePoint    `json:"series"`
	Positions []Position      `json:"positions"`
	Alerts    []StopLossAlert `json:"alerts"`
	Failures  []TickerFailure `json:"failures,omitempty"`
	Summary   *Summary        `json:"summary,omitempty"`
}

// CurrentPrices returns the current price of every evaluated ticker.
func (r *Result) CurrentPrices() map[string]float64 {
	prices := make(map[string]float64, len(r.Positions))
	for _, p := range r.Positions {
		prices[p.Ticker] = p.CurrentPrice
	}
	return prices
}

// Values returns the series values without dates.
func (r *Result) Values() []float64 {
	values := make([]float64, len(r.Series))
	for i, p := range r.Series {
		values[i] = p.Value
	}
	return values
}
