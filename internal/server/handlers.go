package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth handles health check requests. The cache database is the
// only local dependency; without one the server reports healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "portfolio-monitor",
	}

	if s.cacheDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.cacheDB.HealthCheck(ctx); err != nil {
			s.log.Error().Err(err).Msg("Cache database health check failed")
			response["status"] = "unhealthy"
			response["error"] = "cache database unavailable"
			s.writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
