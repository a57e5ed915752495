// Package handlers provides HTTP handlers for portfolio checks.
package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/charts"
	"github.com/aristath/portfolio-monitor/internal/modules/monitor"
	"github.com/aristath/portfolio-monitor/internal/modules/report"
	"github.com/aristath/portfolio-monitor/pkg/embedded"
	"github.com/rs/zerolog"
)

// Handler handles portfolio check HTTP requests
type Handler struct {
	service   *monitor.Service
	charts    *charts.Service
	currency  string
	dashboard *template.Template
	log       zerolog.Logger
}

// NewHandler creates a new portfolio check handler
func NewHandler(
	service *monitor.Service,
	chartsService *charts.Service,
	currency string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		charts:    chartsService,
		currency:  currency,
		dashboard: template.Must(template.ParseFS(embedded.Files, embedded.DashboardTemplate)),
		log:       log.With().Str("handler", "monitor").Logger(),
	}
}

// CheckResponse is the data payload of a JSON check.
type CheckResponse struct {
	*monitor.Evaluation
	Currency string `json:"currency"`
	Report   string `json:"report"`
}

// HandleCheck handles POST /api/portfolio/check
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var body monitor.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, domain.NewError(domain.ErrConfiguration, "", "invalid request body"))
		return
	}

	req, err := body.ToRequest(h.service.Defaults())
	if err != nil {
		h.writeError(w, err)
		return
	}

	ev, err := h.service.Check(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": CheckResponse{
			Evaluation: ev,
			Currency:   h.currency,
			Report:     report.Markdown(ev.ReportInput(h.currency)),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDefaults handles GET /api/portfolio/defaults
func (h *Handler) HandleDefaults(w http.ResponseWriter, r *http.Request) {
	req := h.service.DefaultRequest()
	defaults := h.service.Defaults()

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"holdings":          req.Holdings,
			"start":             req.Start.Format(monitor.DateLayout),
			"end":               req.End.Format(monitor.DateLayout),
			"stop_loss_percent": defaults.StopLoss,
			"lookback_days":     defaults.LookbackDays,
			"max_holdings":      domain.MaxHoldings,
			"currency":          h.currency,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleValueChart handles GET /api/portfolio/charts/value.png
func (h *Handler) HandleValueChart(w http.ResponseWriter, r *http.Request) {
	req, err := h.requestFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ev, err := h.service.Check(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	png, err := h.charts.RenderValueChart(ev.Result.Series, ev.Portfolio.TotalInvested())
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to render value chart")
		h.writeError(w, domain.NewError(domain.ErrInsufficientHistory, "", err.Error()))
		return
	}

	h.writePNG(w, png)
}

// HandleAllocationChart handles GET /api/portfolio/charts/allocation.png.
// The pie only depends on invested amounts, so no prices are fetched.
func (h *Handler) HandleAllocationChart(w http.ResponseWriter, r *http.Request) {
	req, err := h.requestFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	portfolio, _ := domain.SplitHoldings(req.Holdings)
	if err := portfolio.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	png, err := h.charts.RenderAllocationChart(portfolio)
	if err != nil {
		h.writeError(w, domain.NewError(domain.ErrConfiguration, "", err.Error()))
		return
	}

	h.writePNG(w, png)
}

// requestFromQuery reads the dashboard form from the query string, falling
// back to the default portfolio when no ticker is present.
func (h *Handler) requestFromQuery(r *http.Request) (monitor.Request, error) {
	values := r.URL.Query()
	if monitor.HasSubmission(values) {
		return monitor.ParseForm(values, h.service.Defaults())
	}

	req := h.service.DefaultRequest()
	start, end, err := monitor.ParseWindow(values.Get(monitor.FieldStart), values.Get(monitor.FieldEnd), h.service.Defaults())
	if err != nil {
		return monitor.Request{}, err
	}
	req.Start, req.End = start, end
	return req, req.Validate()
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientHistory), errors.Is(err, domain.ErrDataIntegrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, monitor.ErrPriceSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// KindFor is the machine-readable error kind returned to clients.
func KindFor(err error) string {
	if errors.Is(err, monitor.ErrPriceSource) {
		return "price_source"
	}
	return domain.KindName(err)
}

// publicMessage strips wrapping context from domain errors.
func publicMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Error()
	}
	if errors.Is(err, monitor.ErrPriceSource) {
		return monitor.ErrPriceSource.Error()
	}
	return "internal error"
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Portfolio check failed")
	}

	h.writeJSON(w, status, map[string]interface{}{
		"error": publicMessage(err),
		"kind":  KindFor(err),
	})
}

func (h *Handler) writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart")
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
