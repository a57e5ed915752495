// Package report renders an evaluation as a markdown document, and that
// document as HTML for the dashboard.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/evaluation"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Input is everything a report shows.
type Input struct {
	Portfolio domain.Portfolio
	Currency  string
	Start     time.Time
	End       time.Time
	Result    *evaluation.Result

	// StaleQuotes lists tickers whose current price came from an expired
	// cache entry.
	StaleQuotes []string
}

// Markdown renders the report.
func Markdown(in Input) string {
	var b strings.Builder
	r := in.Result

	b.WriteString("# Portfolio Report\n\n")
	fmt.Fprintf(&b, "Window %s to %s", in.Start.Format("2006-01-02"), in.End.Format("2006-01-02"))
	if !r.BaseDate.IsZero() {
		fmt.Fprintf(&b, ", normalized to %s", r.BaseDate.Format("2006-01-02"))
	}
	b.WriteString(".\n\n")

	b.WriteString("## Stop-Loss Alerts\n\n")
	if len(r.Alerts) == 0 {
		fmt.Fprintf(&b, "> %s\n\n", evaluation.NoAlertsMessage)
	} else {
		for _, a := range r.Alerts {
			fmt.Fprintf(&b, "- **Warning:** %s\n", a.Message)
		}
		b.WriteString("\n")
	}

	if len(in.StaleQuotes) > 0 {
		fmt.Fprintf(&b, "> **Note:** the live quote could not be fetched for %s; the last cached price was used.\n\n",
			strings.Join(in.StaleQuotes, ", "))
	}

	if len(r.Failures) > 0 {
		b.WriteString("## Not Evaluated\n\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "- %s: %s\n", f.Ticker, f.Message)
		}
		b.WriteString("\n")
	}

	total := in.Portfolio.TotalInvested()
	b.WriteString("## Current Prices\n\n")
	b.WriteString("| Ticker | Invested | Share | Previous Close | Current Price | Drawdown | Limit | Status |\n")
	b.WriteString("|:--|--:|--:|--:|--:|--:|--:|:--|\n")
	for _, p := range r.Positions {
		drawdown := "n/a"
		if p.DrawdownPercent != nil {
			drawdown = Percent(*p.DrawdownPercent)
		}
		status := "ok"
		switch {
		case p.DrawdownPercent == nil:
			status = "not evaluated"
		case p.Triggered:
			status = "**stop-loss**"
		}
		share := 0.0
		if total > 0 {
			share = p.InvestedAmount / total * 100
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			p.Ticker,
			FormatMoney(p.InvestedAmount, in.Currency),
			Percent(share),
			Fixed(p.PreviousClose),
			Fixed(p.CurrentPrice),
			drawdown,
			Percent(p.StopLossPercent),
			status,
		)
	}
	b.WriteString("\n")

	if s := r.Summary; s != nil {
		b.WriteString("## Summary\n\n")
		b.WriteString("| Metric | Value |\n")
		b.WriteString("|:--|--:|\n")
		fmt.Fprintf(&b, "| Start Value | %s |\n", FormatMoney(s.StartValue, in.Currency))
		fmt.Fprintf(&b, "| End Value | %s |\n", FormatMoney(s.EndValue, in.Currency))
		fmt.Fprintf(&b, "| Total Return | %s |\n", Percent(s.TotalReturnPercent))
		fmt.Fprintf(&b, "| Max Drawdown | %s |\n", Percent(s.MaxDrawdownPercent))
		fmt.Fprintf(&b, "| Annualized Volatility | %s |\n", Percent(s.AnnualizedVolatility*100))
		b.WriteString("\n")
	}

	return b.String()
}

// HTML converts report markdown to HTML, tables included.
func HTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert report to HTML: %w", err)
	}
	return buf.String(), nil
}

// FormatMoney formats amount in currency, e.g. "€2,250.00". Unknown
// currencies fall back to a plain two-decimal number with the code.
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil || !domain.IsFinite(amount) {
		return fmt.Sprintf("%s %s", Fixed(amount), currency)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// Fixed rounds to two decimals. Non-finite values render as "n/a".
func Fixed(v float64) string {
	if !domain.IsFinite(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent rounds to two decimals and appends a percent sign.
func Percent(v float64) string {
	return Fixed(v) + "%"
}
