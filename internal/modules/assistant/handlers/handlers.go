// Package handlers provides HTTP handlers for the portfolio assistant.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/assistant"
)

// Handler handles assistant HTTP requests
type Handler struct {
	session *assistant.Session
	log     zerolog.Logger
}

// NewHandler creates a new assistant handler
func NewHandler(session *assistant.Session, log zerolog.Logger) *Handler {
	return &Handler{
		session: session,
		log:     log.With().Str("handler", "assistant").Logger(),
	}
}

// HandleGetState handles GET /api/assistant
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session.State())
}

// HandleOpen handles POST /api/assistant/open
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	h.writeOutcome(w, h.session.Open(r.Context()))
}

// HandleSend handles POST /api/assistant/send
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	h.writeOutcome(w, h.session.Send(r.Context(), req.Message))
}

// HandleReset handles POST /api/assistant/reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	h.writeJSON(w, http.StatusOK, h.session.State())
}

func (h *Handler) writeOutcome(w http.ResponseWriter, outcome domain.Outcome) {
	h.writeJSON(w, outcome.Kind.HTTPStatus(), map[string]interface{}{
		"outcome": outcome,
		"state":   h.session.State(),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
