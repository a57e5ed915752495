package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the portfolio API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/defaults", h.HandleDefaults)
		r.Post("/check", h.HandleCheck)

		// Charts take the same query string as the dashboard form
		r.Get("/charts/value.png", h.HandleValueChart)
		r.Get("/charts/allocation.png", h.HandleAllocationChart)
	})
}

// RegisterDashboard mounts the HTML dashboard at the router root
func (h *Handler) RegisterDashboard(r chi.Router) {
	r.Get("/", h.HandleDashboard)
}
