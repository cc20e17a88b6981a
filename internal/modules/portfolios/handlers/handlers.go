// Package handlers provides HTTP handlers for the portfolio directory.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/portfolios"
)

// Handler handles portfolio directory HTTP requests
type Handler struct {
	directory  *portfolios.Directory
	reconciler domain.Reconciler
	log        zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(directory *portfolios.Directory, reconciler domain.Reconciler, log zerolog.Logger) *Handler {
	return &Handler{
		directory:  directory,
		reconciler: reconciler,
		log:        log.With().Str("handler", "portfolios").Logger(),
	}
}

// HandleList handles GET /api/portfolios
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.directory.State())
}

// HandleRefresh handles POST /api/portfolios/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.directory.Refresh(r.Context()) {
		h.writeFailure(w)
		return
	}
	h.writeJSON(w, http.StatusOK, h.directory.State())
}

// HandleCreate handles POST /api/portfolios
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input portfolios.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, ok := h.directory.Create(r.Context(), input)
	if !ok {
		h.writeFailure(w)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"portfolio": p,
		"state":     h.directory.State(),
	})
}

// HandleRename handles PATCH /api/portfolios/{id}
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, ok := h.directory.Rename(r.Context(), id, req.Name)
	if !ok {
		h.writeFailure(w)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": p,
		"state":     h.directory.State(),
	})
}

// HandleDelete handles DELETE /api/portfolios/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	if !h.directory.Delete(r.Context(), id) {
		h.writeFailure(w)
		return
	}
	h.writeJSON(w, http.StatusOK, h.directory.State())
}

// HandleSetDefault handles POST /api/portfolios/{id}/default
func (h *Handler) HandleSetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	p, ok := h.directory.SetDefault(r.Context(), id)
	if !ok {
		h.writeFailure(w)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": p,
		"state":     h.directory.State(),
	})
}

// HandleSelect handles POST /api/portfolios/{id}/select.
// Switching portfolios refetches every position list.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	if !h.directory.Select(id) {
		h.writeError(w, http.StatusNotFound, portfolios.MsgPortfolioNotFound)
		return
	}
	if h.reconciler != nil {
		h.reconciler.Reconcile(r.Context(), "")
	}
	h.writeJSON(w, http.StatusOK, h.directory.State())
}

func (h *Handler) portfolioID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid portfolio id")
		return 0, false
	}
	return id, true
}

// writeFailure reports the error the directory recorded for the last operation
func (h *Handler) writeFailure(w http.ResponseWriter) {
	st := h.directory.State()
	h.writeJSON(w, st.ErrorKind.HTTPStatus(), map[string]interface{}{
		"error":      st.Error,
		"error_kind": st.ErrorKind,
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

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
