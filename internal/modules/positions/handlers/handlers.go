// Package handlers provides HTTP handlers for reconciled position data.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/positions"
)

// Handler serves the reconciler's caches
type Handler struct {
	reconciler *positions.Reconciler
	log        zerolog.Logger
}

// NewHandler creates a new positions handler
func NewHandler(reconciler *positions.Reconciler, log zerolog.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		log:        log.With().Str("handler", "positions").Logger(),
	}
}

// HandleGetSummary handles GET /api/positions/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": h.reconciler.Summary(),
		"error":   h.reconciler.Error(positions.ResourceSummary),
	})
}

// HandleGetOptions handles GET /api/positions/options
func (h *Handler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": h.reconciler.OptionPositions(),
		"error":     h.reconciler.Error(positions.ResourceOptions),
	})
}

// HandleGetCrypto handles GET /api/positions/crypto
func (h *Handler) HandleGetCrypto(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": h.reconciler.CryptoPositions(),
		"error":     h.reconciler.Error(positions.ResourceCrypto),
	})
}

// HandleGetCryptoAssets handles GET /api/positions/crypto/assets.
// The catalogue is loaded lazily on first request.
func (h *Handler) HandleGetCryptoAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.reconciler.CryptoAssets()
	if len(assets) == 0 {
		h.reconciler.RefreshCryptoAssets(r.Context())
		assets = h.reconciler.CryptoAssets()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"assets": assets,
		"error":  h.reconciler.Error(positions.ResourceCryptoAssets),
	})
}

// HandleReconcile handles POST /api/positions/reconcile?class=
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	var class domain.AssetClass
	if raw := r.URL.Query().Get("class"); raw != "" {
		parsed, err := domain.ParseAssetClass(raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		class = parsed
	}

	h.reconciler.Reconcile(r.Context(), class)
	h.writeJSON(w, http.StatusOK, h.reconciler.State())
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
