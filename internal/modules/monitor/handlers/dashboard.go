package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/monitor"
	"github.com/aristath/portfolio-monitor/internal/modules/report"
)

type formRow struct {
	Index    int
	Number   int
	Ticker   string
	Amount   string
	StopLoss string
}

type dashboardView struct {
	Currency           string
	DefaultStopLoss    string
	MaxHoldings        int
	Rows               []formRow
	Start              string
	End                string
	ErrorTitle         string
	Error              string
	Report             template.HTML
	ValueChartURL      string
	AllocationChartURL string
}

var errorTitles = map[string]string{
	"configuration_error":  "Invalid input",
	"data_unavailable":     "No price data",
	"insufficient_history": "Not enough history",
	"data_integrity":       "Unusable prices",
	"price_source":         "Price source unavailable",
}

// HandleDashboard handles GET /. Without a submitted ticker the form is
// prefilled with the default portfolio; otherwise the submission is
// evaluated and the report rendered below the charts.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	defaults := h.service.Defaults()

	view := dashboardView{
		Currency:        h.currency,
		DefaultStopLoss: formatNumber(defaults.StopLoss),
		MaxHoldings:     domain.MaxHoldings,
	}

	if !monitor.HasSubmission(values) {
		req := h.service.DefaultRequest()
		view.Rows = rowsFromHoldings(req.Holdings)
		view.Start = req.Start.Format(monitor.DateLayout)
		view.End = req.End.Format(monitor.DateLayout)
		h.render(w, http.StatusOK, view)
		return
	}

	view.Rows = rowsFromForm(values.Get)
	start, end := defaults.Window()
	view.Start = valueOr(values.Get(monitor.FieldStart), start.Format(monitor.DateLayout))
	view.End = valueOr(values.Get(monitor.FieldEnd), end.Format(monitor.DateLayout))

	req, err := monitor.ParseForm(values, defaults)
	if err != nil {
		h.renderError(w, view, err)
		return
	}

	ev, err := h.service.Check(r.Context(), req)
	if err != nil {
		h.renderError(w, view, err)
		return
	}

	html, err := report.HTML(report.Markdown(ev.ReportInput(h.currency)))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render report")
		h.renderError(w, view, err)
		return
	}

	// goldmark escapes raw HTML by default, so the output is safe to inline.
	view.Report = template.HTML(html)
	view.AllocationChartURL = "/api/portfolio/charts/allocation.png?" + r.URL.RawQuery
	if len(ev.Result.Series) >= 2 {
		view.ValueChartURL = "/api/portfolio/charts/value.png?" + r.URL.RawQuery
	}

	h.render(w, http.StatusOK, view)
}

func (h *Handler) renderError(w http.ResponseWriter, view dashboardView, err error) {
	kind := KindFor(err)
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Dashboard check failed")
	}

	view.ErrorTitle = errorTitles[kind]
	if view.ErrorTitle == "" {
		view.ErrorTitle = "Something went wrong"
	}
	view.Error = publicMessage(err)
	h.render(w, status, view)
}

func (h *Handler) render(w http.ResponseWriter, status int, view dashboardView) {
	var buf bytes.Buffer
	if err := h.dashboard.Execute(&buf, view); err != nil {
		h.log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Error().Err(err).Msg("Failed to write dashboard")
	}
}

func rowsFromHoldings(holdings []domain.Holding) []formRow {
	rows := emptyRows()
	for i, hld := range holdings {
		if i >= len(rows) {
			break
		}
		rows[i].Ticker = hld.Ticker
		rows[i].Amount = formatNumber(hld.InvestedAmount)
		rows[i].StopLoss = formatNumber(hld.StopLossPercent)
	}
	return rows
}

// rowsFromForm echoes the raw submission so invalid entries stay editable.
func rowsFromForm(get func(string) string) []formRow {
	rows := emptyRows()
	for i := range rows {
		idx := strconv.Itoa(i)
		rows[i].Ticker = get(monitor.FieldTicker + idx)
		rows[i].Amount = get(monitor.FieldAmount + idx)
		rows[i].StopLoss = get(monitor.FieldStopLoss + idx)
	}
	return rows
}

func emptyRows() []formRow {
	rows := make([]formRow, domain.MaxHoldings)
	for i := range rows {
		rows[i] = formRow{Index: i, Number: i + 1}
	}
	return rows
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
