// Package handlers provides HTTP handlers for the select-to-sell flow.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection"
)

// HoldingsReader reports held quantities per selection target
type HoldingsReader interface {
	Holdings(class domain.AssetClass) map[string]decimal.Decimal
}

// Handler handles selection HTTP requests
type Handler struct {
	registry   *selection.Registry
	holdings   HoldingsReader
	submitters map[domain.AssetClass]selection.Submitter
	log        zerolog.Logger
}

// NewHandler creates a new selection handler. submitters holds the sell
// executor of each asset class.
func NewHandler(
	registry *selection.Registry,
	holdings HoldingsReader,
	submitters map[domain.AssetClass]selection.Submitter,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		registry:   registry,
		holdings:   holdings,
		submitters: submitters,
		log:        log.With().Str("handler", "selection").Logger(),
	}
}

// HandleGetState handles GET /api/selection/{class}
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, m.State())
}

// HandleSelect handles POST /api/selection/{class}/select.
// The maximum is the currently held quantity, never a client-supplied value.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	var req struct {
		TargetID string `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TargetID) == "" {
		h.writeError(w, http.StatusBadRequest, "target_id is required")
		return
	}

	held, ok := h.holdings.Holdings(m.AssetClass())[req.TargetID]
	if !ok {
		h.writeError(w, http.StatusNotFound, "Position not found")
		return
	}

	if err := m.SelectPosition(req.TargetID, held); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, m.State())
}

// HandleSetQuantity handles POST /api/selection/{class}/quantity
func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "quantity must be a number")
		return
	}

	m.SetPendingQty(req.Quantity)
	h.writeJSON(w, http.StatusOK, m.State())
}

// HandleClear handles POST /api/selection/{class}/clear
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	m.ClearSelection()
	h.writeJSON(w, http.StatusOK, m.State())
}

// HandleSubmit handles POST /api/selection/{class}/submit
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	submit, ok := h.submitters[m.AssetClass()]
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "Selling is not available for this asset class")
		return
	}

	outcome, err := m.Submit(r.Context(), submit)
	if err != nil {
		status := http.StatusConflict
		if !errors.Is(err, selection.ErrNotSelected) && !errors.Is(err, selection.ErrSubmitting) {
			status = http.StatusInternalServerError
		}
		h.writeError(w, status, err.Error())
		return
	}

	h.writeJSON(w, outcome.Kind.HTTPStatus(), map[string]interface{}{
		"outcome": outcome,
		"state":   m.State(),
	})
}

func (h *Handler) machine(w http.ResponseWriter, r *http.Request) (*selection.Machine, bool) {
	class, err := domain.ParseAssetClass(chi.URLParam(r, "class"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	m, err := h.registry.Get(class)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return m, true
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
