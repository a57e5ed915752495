package monitor

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
)

// DateLayout is the ISO date format accepted by every input surface.
const DateLayout = "2006-01-02"

// Request is one complete submission: holdings plus the history window.
type Request struct {
	Holdings []domain.Holding `json:"holdings"`
	Start    time.Time        `json:"start"`
	End      time.Time        `json:"end"`
}

// Validate checks the window, the holdings count and every holding's amount
// and stop-loss, so nothing invalid reaches the price source. Ticker
// uniqueness is checked on the portfolio.
func (r Request) Validate() error {
	if len(r.Holdings) == 0 {
		return domain.NewError(domain.ErrConfiguration, "", "at least one holding is required")
	}
	if len(r.Holdings) > domain.MaxHoldings {
		return domain.NewError(domain.ErrConfiguration, "",
			fmt.Sprintf("at most %d holdings are supported, got %d", domain.MaxHoldings, len(r.Holdings)))
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return domain.NewError(domain.ErrConfiguration, "", "start and end dates are required")
	}
	if r.End.Before(r.Start) {
		return domain.NewError(domain.ErrConfiguration, "",
			fmt.Sprintf("end date %s is before start date %s", r.End.Format(DateLayout), r.Start.Format(DateLayout)))
	}
	for _, h := range r.Holdings {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Defaults fill in whatever a submission leaves out.
type Defaults struct {
	Holdings     []domain.Holding
	StopLoss     float64
	LookbackDays int
	Now          func() time.Time
}

// Window returns the default start and end dates.
func (d Defaults) Window() (time.Time, time.Time) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	t := now().UTC()
	end := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -d.LookbackDays), end
}

// HoldingInput is the JSON shape of one holding. StopLossPercent is
// optional and falls back to the configured default.
type HoldingInput struct {
	Ticker          string   `json:"ticker"`
	InvestedAmount  float64  `json:"invested_amount"`
	StopLossPercent *float64 `json:"stop_loss_percent,omitempty"`
}

// CheckRequest is the JSON body of a check submission.
type CheckRequest struct {
	Holdings []HoldingInput `json:"holdings"`
	Start    string         `json:"start,omitempty"`
	End      string         `json:"end,omitempty"`
}

// ToRequest converts the JSON body, applying defaults. An empty holdings
// list selects the default portfolio.
func (c CheckRequest) ToRequest(d Defaults) (Request, error) {
	start, end, err := ParseWindow(c.Start, c.End, d)
	if err != nil {
		return Request{}, err
	}

	req := Request{Start: start, End: end}
	if len(c.Holdings) == 0 {
		req.Holdings = append(req.Holdings, d.Holdings...)
		return req, req.Validate()
	}

	for _, h := range c.Holdings {
		ticker := domain.NormalizeTicker(h.Ticker)
		if ticker == "" {
			continue
		}
		stop := d.StopLoss
		if h.StopLossPercent != nil {
			stop = *h.StopLossPercent
		}
		req.Holdings = append(req.Holdings, domain.Holding{
			Ticker:          ticker,
			InvestedAmount:  h.InvestedAmount,
			StopLossPercent: stop,
		})
	}
	return req, req.Validate()
}

// Form field names. Row fields are suffixed with the row index.
const (
	FieldTicker   = "ticker_"
	FieldAmount   = "amount_"
	FieldStopLoss = "stoploss_"
	FieldStart    = "start"
	FieldEnd      = "end"
)

// HasSubmission reports whether the form carries at least one ticker.
func HasSubmission(values url.Values) bool {
	for i := 0; i < domain.MaxHoldings; i++ {
		if strings.TrimSpace(values.Get(FieldTicker+strconv.Itoa(i))) != "" {
			return true
		}
	}
	return false
}

// ParseForm collects holdings from the dashboard form. Rows with an empty
// ticker are skipped; an empty amount means zero and an empty stop-loss
// means the default.
func ParseForm(values url.Values, d Defaults) (Request, error) {
	start, end, err := ParseWindow(values.Get(FieldStart), values.Get(FieldEnd), d)
	if err != nil {
		return Request{}, err
	}

	req := Request{Start: start, End: end}
	for i := 0; i < domain.MaxHoldings; i++ {
		idx := strconv.Itoa(i)
		ticker := domain.NormalizeTicker(values.Get(FieldTicker + idx))
		if ticker == "" {
			continue
		}

		amount, err := parseNumber(values.Get(FieldAmount+idx), 0)
		if err != nil {
			return Request{}, domain.NewError(domain.ErrConfiguration, ticker, "invalid invested amount")
		}
		stop, err := parseNumber(values.Get(FieldStopLoss+idx), d.StopLoss)
		if err != nil {
			return Request{}, domain.NewError(domain.ErrConfiguration, ticker, "invalid stop-loss percent")
		}

		req.Holdings = append(req.Holdings, domain.Holding{
			Ticker:          ticker,
			InvestedAmount:  amount,
			StopLossPercent: stop,
		})
	}

	return req, req.Validate()
}

// ParseHoldingFlag parses a CLI holding of the form TICKER=AMOUNT[:STOPLOSS].
func ParseHoldingFlag(s string, defaultStopLoss float64) (domain.Holding, error) {
	ticker, rest, ok := strings.Cut(s, "=")
	ticker = domain.NormalizeTicker(ticker)
	if !ok || ticker == "" {
		return domain.Holding{}, domain.NewError(domain.ErrConfiguration, "",
			fmt.Sprintf("holding %q must look like TICKER=AMOUNT[:STOPLOSS]", s))
	}

	amountStr, stopStr, _ := strings.Cut(rest, ":")
	amount, err := parseNumber(amountStr, 0)
	if err != nil {
		return domain.Holding{}, domain.NewError(domain.ErrConfiguration, ticker, "invalid invested amount")
	}
	stop, err := parseNumber(stopStr, defaultStopLoss)
	if err != nil {
		return domain.Holding{}, domain.NewError(domain.ErrConfiguration, ticker, "invalid stop-loss percent")
	}

	return domain.Holding{Ticker: ticker, InvestedAmount: amount, StopLossPercent: stop}, nil
}

// ParseWindow parses optional start and end dates, defaulting to the
// lookback window ending today.
func ParseWindow(startStr, endStr string, d Defaults) (time.Time, time.Time, error) {
	start, end := d.Window()

	if s := strings.TrimSpace(startStr); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewError(domain.ErrConfiguration, "",
				fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", s))
		}
		start = t
	}
	if s := strings.TrimSpace(endStr); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewError(domain.ErrConfiguration, "",
				fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", s))
		}
		end = t
	}
	return start, end, nil
}

func parseNumber(s string, fallback float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !domain.IsFinite(v) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
