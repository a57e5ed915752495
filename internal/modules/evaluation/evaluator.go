// Package evaluation values a portfolio from historical closes and checks
// every holding against its stop-loss limit.
package evaluation

import (
	"fmt"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/pkg/formulas"
	"github.com/shopspring/decimal"
)

// NoAlertsMessage is shown when no holding reached its limit.
const NoAlertsMessage = "No stop-loss limits reached."

// Evaluate computes the normalized value series, current prices and
// stop-loss alerts. It has no side effects; identical inputs give identical
// results.
func Evaluate(
	portfolio domain.Portfolio,
	limits domain.StopLossLimits,
	table domain.PriceTable,
	snapshot domain.PriceSnapshot,
) (*Result, error) {
	if err := validateInputs(portfolio, limits); err != nil {
		return nil, err
	}

	tickers := portfolio.Tickers()

	if table.Len() == 0 {
		return nil, &domain.Error{
			Kind:    domain.ErrDataUnavailable,
			Tickers: tickers,
			Message: "price history is empty",
		}
	}

	var uncovered []string
	for _, t := range tickers {
		if !table.HasData(t) {
			uncovered = append(uncovered, t)
		}
	}
	if len(uncovered) > 0 {
		return nil, &domain.Error{
			Kind:    domain.ErrDataUnavailable,
			Tickers: uncovered,
			Message: "no price history in the selected window",
		}
	}

	if missing := snapshot.Missing(tickers); len(missing) > 0 {
		return nil, &domain.Error{
			Kind:    domain.ErrDataUnavailable,
			Tickers: missing,
			Message: "no current price",
		}
	}

	baseIndex := findBaseRow(table, tickers)
	if baseIndex < 0 {
		return nil, &domain.Error{
			Kind:    domain.ErrInsufficientHistory,
			Tickers: tickers,
			Message: "no date has a positive close for every ticker",
		}
	}

	result := &Result{
		BaseDate:  table.Rows[baseIndex].Date,
		Series:    valueSeries(portfolio, table, baseIndex),
		Positions: make([]Position, 0, len(portfolio)),
		Alerts:    []StopLossAlert{},
	}

	for _, a := range portfolio {
		current := snapshot[a.Ticker]
		previous := previousClose(table, a.Ticker)
		limit := limits[a.Ticker]

		pos := Position{
			Ticker:          a.Ticker,
			InvestedAmount:  a.InvestedAmount,
			CurrentPrice:    current,
			PreviousClose:   previous,
			StopLossPercent: limit,
		}

		drawdown := formulas.DrawdownPercent(previous, current)
		if drawdown == nil {
			result.Failures = append(result.Failures, TickerFailure{
				Ticker:  a.Ticker,
				Kind:    domain.KindName(domain.ErrDataIntegrity),
				Message: fmt.Sprintf("previous close %s is not positive", round2(previous)),
			})
			result.Positions = append(result.Positions, pos)
			continue
		}
		pos.DrawdownPercent = drawdown

		if *drawdown >= limit {
			pos.Triggered = true
			result.Alerts = append(result.Alerts, StopLossAlert{
				Ticker:          a.Ticker,
				CurrentPrice:    current,
				ReferencePrice:  previous,
				DrawdownPercent: *drawdown,
				LimitPercent:    limit,
				Message:         alertMessage(a.Ticker, current, previous, *drawdown, limit),
			})
		}
		result.Positions = append(result.Positions, pos)
	}

	if len(result.Failures) == len(portfolio) {
		failed := make([]string, len(result.Failures))
		for i, f := range result.Failures {
			failed[i] = f.Ticker
		}
		return nil, &domain.Error{
			Kind:    domain.ErrDataIntegrity,
			Tickers: failed,
			Message: "previous close is not positive",
		}
	}

	result.Summary = summarize(result.Values())
	return result, nil
}

func validateInputs(portfolio domain.Portfolio, limits domain.StopLossLimits) error {
	if err := portfolio.Validate(); err != nil {
		return err
	}
	if len(portfolio) > domain.MaxHoldings {
		return domain.NewError(domain.ErrConfiguration, "",
			fmt.Sprintf("at most %d holdings are supported, got %d", domain.MaxHoldings, len(portfolio)))
	}

	var missing []string
	for _, t := range portfolio.Tickers() {
		limit, ok := limits[t]
		if !ok {
			missing = append(missing, t)
			continue
		}
		if err := domain.ValidateStopLoss(t, limit); err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		return &domain.Error{
			Kind:    domain.ErrConfiguration,
			Tickers: missing,
			Message: "no stop-loss limit configured",
		}
	}
	return nil
}

// findBaseRow returns the first row where every ticker has a strictly
// positive close, or -1.
func findBaseRow(table domain.PriceTable, tickers []string) int {
	for i, row := range table.Rows {
		complete := true
		for _, t := range tickers {
			if p, ok := row.Price(t); !ok || p <= 0 {
				complete = false
				break
			}
		}
		if complete {
			return i
		}
	}
	return -1
}

// valueSeries weights each normalized close by its base-date allocation.
// Missing closes contribute nothing; rows with no close at all are dropped.
func valueSeries(portfolio domain.Portfolio, table domain.PriceTable, baseIndex int) []ValuePoint {
	rows := table.Rows[baseIndex:]

	// One normalized column per ticker; gaps hold 0 and are masked by defined.
	normalized := make([][]float64, len(portfolio))
	defined := make([][]bool, len(portfolio))
	for j, a := range portfolio {
		closes := make([]float64, len(rows))
		defined[j] = make([]bool, len(rows))
		for i, row := range rows {
			closes[i], defined[j][i] = row.Price(a.Ticker)
		}
		basePrice, _ := rows[0].Price(a.Ticker)
		normalized[j] = formulas.Normalize(closes, basePrice)
	}

	series := make([]ValuePoint, 0, len(rows))
	values := make([]float64, 0, len(portfolio))
	weights := make([]float64, 0, len(portfolio))
	for i, row := range rows {
		values, weights = values[:0], weights[:0]
		for j, a := range portfolio {
			if !defined[j][i] {
				continue
			}
			values = append(values, normalized[j][i])
			weights = append(weights, a.InvestedAmount)
		}
		if len(values) == 0 {
			continue
		}
		series = append(series, ValuePoint{Date: row.Date, Value: formulas.WeightedSum(values, weights)})
	}
	return series
}

// previousClose is the last row's close, falling back to the most recent
// defined close when the last row has a gap. The ticker must have at least
// one close in the table.
func previousClose(table domain.PriceTable, ticker string) float64 {
	if p, ok := table.Rows[table.Len()-1].Price(ticker); ok {
		return p
	}
	p, _, _ := table.LastDefined(ticker)
	return p
}

func summarize(values []float64) *Summary {
	if len(values) < 2 {
		return nil
	}
	first, last := values[0], values[len(values)-1]

	s := &Summary{StartValue: first, EndValue: last}
	if ret := formulas.TotalReturnPercent(first, last); ret != nil {
		s.TotalReturnPercent = *ret
	}
	if dd := formulas.CalculateMaxDrawdown(values); dd != nil {
		s.MaxDrawdownPercent = *dd * 100
	}
	s.AnnualizedVolatility = formulas.AnnualizedVolatility(formulas.CalculateReturns(values))
	return s
}

func alertMessage(ticker string, current, previous, drawdown, limit float64) string {
	return fmt.Sprintf("Stop-loss reached for %s: current price = %s, previous close = %s, drawdown = %s%% (limit %s%%)",
		ticker, round2(current), round2(previous), round2(drawdown), round2(limit))
}

func round2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
