package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth reports process health and whether the state database answers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "financebuddy",
	}

	if s.container != nil && s.container.StateDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.container.StateDB.HealthCheck(ctx); err != nil {
			s.log.Warn().Err(err).Msg("State database health check failed")
			status = http.StatusServiceUnavailable
			response["status"] = "degraded"
			response["error"] = err.Error()
		}
	}

	s.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
