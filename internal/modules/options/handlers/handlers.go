// Package handlers provides HTTP handlers for option trades and exercises.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/options"
)

// Handler handles option HTTP requests
type Handler struct {
	executor *options.Executor
	log      zerolog.Logger
}

// NewHandler creates a new options handler
func NewHandler(executor *options.Executor, log zerolog.Logger) *Handler {
	return &Handler{
		executor: executor,
		log:      log.With().Str("handler", "options").Logger(),
	}
}

// HandleBuy handles POST /api/options/buy
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var form options.BuyForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome := h.executor.Buy(r.Context(), form)
	h.writeJSON(w, outcome.Kind.HTTPStatus(), map[string]interface{}{
		"outcome": outcome,
		"state":   h.executor.BuyState(),
		"form":    h.executor.Form(),
	})
}

// HandleExercise handles POST /api/options/exercise/{id}
func (h *Handler) HandleExercise(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid position id")
		return
	}

	outcome := h.executor.Exercise(r.Context(), id)
	h.writeJSON(w, outcome.Kind.HTTPStatus(), map[string]interface{}{
		"outcome": outcome,
		"state":   h.executor.ExerciseState(),
	})
}

// HandleGetExecutor handles GET /api/options/{executor}
func (h *Handler) HandleGetExecutor(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "executor") {
	case "option_buy":
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"state": h.executor.BuyState(), "form": h.executor.Form()})
	case "option_sell":
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"state": h.executor.SellState()})
	case "option_exercise":
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"state": h.executor.ExerciseState()})
	default:
		h.writeError(w, http.StatusNotFound, "Unknown executor")
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

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
