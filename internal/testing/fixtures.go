package testing

import (
	"sort"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
)

// NewPriceTable builds a table with one row per day from start. Column
// order follows the sorted ticker names.
func NewPriceTable(start time.Time, closes map[string][]float64) domain.PriceTable {
	tickers := make([]string, 0, len(closes))
	for t := range closes {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	b := domain.NewPriceTableBuilder()
	for _, t := range tickers {
		b.Add(t, DailyPoints(start, closes[t]))
	}
	return b.Build()
}

// DailyPoints turns consecutive closes into dated points starting at start.
func DailyPoints(start time.Time, closes []float64) []domain.PricePoint {
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return points
}
