package domain

import (
	"sort"
	"time"
)

// PriceRow is one trading day of adjusted closes. A ticker without a close
// for the day is absent from Prices.
type PriceRow struct {
	Date   time.Time          `json:"date"`
	Prices map[string]float64 `json:"prices"`
}

// Price returns the close for ticker and whether it is defined.
func (r PriceRow) Price(ticker string) (float64, bool) {
	p, ok := r.Prices[ticker]
	return p, ok
}

// PriceTable holds adjusted closes in ascending date order, one column per ticker.
type PriceTable struct {
	Tickers []string   `json:"tickers"`
	Rows    []PriceRow `json:"rows"`
}

// Len returns the number of rows.
func (t PriceTable) Len() int {
	return len(t.Rows)
}

// HasData reports whether any row carries a price for ticker.
func (t PriceTable) HasData(ticker string) bool {
	for _, row := range t.Rows {
		if _, ok := row.Prices[ticker]; ok {
			return true
		}
	}
	return false
}

// LastDefined returns the most recent defined close for ticker.
func (t PriceTable) LastDefined(ticker string) (float64, time.Time, bool) {
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if p, ok := t.Rows[i].Prices[ticker]; ok {
			return p, t.Rows[i].Date, true
		}
	}
	return 0, time.Time{}, false
}

// PricePoint is a single dated close for one ticker.
type PricePoint struct {
	Date  time.Time `json:"date" msgpack:"d"`
	Close float64   `json:"close" msgpack:"c"`
}

// PriceTableBuilder merges per-ticker series into a date-aligned table.
// Dates are truncated to the UTC calendar day so series from different
// exchanges line up.
type PriceTableBuilder struct {
	tickers []string
	rows    map[time.Time]map[string]float64
}

// NewPriceTableBuilder creates an empty builder.
func NewPriceTableBuilder() *PriceTableBuilder {
	return &PriceTableBuilder{rows: make(map[time.Time]map[string]float64)}
}

// Add merges one ticker's series. Adding the same ticker twice overwrites
// overlapping dates.
func (b *PriceTableBuilder) Add(ticker string, points []PricePoint) *PriceTableBuilder {
	known := false
	for _, t := range b.tickers {
		if t == ticker {
			known = true
			break
		}
	}
	if !known {
		b.tickers = append(b.tickers, ticker)
	}

	for _, p := range points {
		d := p.Date.UTC()
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		row, ok := b.rows[day]
		if !ok {
			row = make(map[string]float64)
			b.rows[day] = row
		}
		row[ticker] = p.Close
	}
	return b
}

// Build returns the table sorted by date.
func (b *PriceTableBuilder) Build() PriceTable {
	dates := make([]time.Time, 0, len(b.rows))
	for d := range b.rows {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := PriceTable{
		Tickers: append([]string(nil), b.tickers...),
		Rows:    make([]PriceRow, 0, len(dates)),
	}
	for _, d := range dates {
		table.Rows = append(table.Rows, PriceRow{Date: d, Prices: b.rows[d]})
	}
	return table
}

// PriceSnapshot is the most recent observed price per ticker.
type PriceSnapshot map[string]float64

// Missing returns the tickers without a snapshot price, in input order.
func (s PriceSnapshot) Missing(tickers []string) []string {
	var missing []string
	for _, t := range tickers {
		if _, ok := s[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Quotes is a snapshot together with the tickers whose price was served from
// an expired cache entry because the live quote could not be fetched.
type Quotes struct {
	Prices PriceSnapshot
	Stale  []string
}
