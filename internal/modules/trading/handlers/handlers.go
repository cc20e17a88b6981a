// Package handlers provides HTTP handlers for stock and crypto trades.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/trading"
)

// Handler handles trade HTTP requests
type Handler struct {
	stock  *trading.StockExecutor
	crypto *trading.CryptoExecutor
	log    zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(stock *trading.StockExecutor, crypto *trading.CryptoExecutor, log zerolog.Logger) *Handler {
	return &Handler{
		stock:  stock,
		crypto: crypto,
		log:    log.With().Str("handler", "trading").Logger(),
	}
}

// HandleStockBuy handles POST /api/trade/stock/buy
func (h *Handler) HandleStockBuy(w http.ResponseWriter, r *http.Request) {
	var form trading.StockForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome := h.stock.Buy(r.Context(), form)
	h.writeOutcome(w, outcome, h.stock.BuyState(), h.stock.Form())
}

// HandleCryptoBuy handles POST /api/trade/crypto/buy
func (h *Handler) HandleCryptoBuy(w http.ResponseWriter, r *http.Request) {
	var form trading.CryptoForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome := h.crypto.Buy(r.Context(), form)
	h.writeOutcome(w, outcome, h.crypto.BuyState(), h.crypto.Form())
}

// HandleGetExecutor handles GET /api/trade/{executor}
func (h *Handler) HandleGetExecutor(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "executor") {
	case "stock_buy":
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"state": h.stock.BuyState(), "form": h.stock.Form()})
	case "stock_sell":
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"state": h.stock.SellState()})
	case "crypto_buy":
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"state": h.crypto.BuyState(), "form": h.crypto.Form()})
	case "crypto_sell":
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"state": h.crypto.SellState()})
	default:
		h.writeError(w, http.StatusNotFound, "Unknown executor")
	}
}

func (h *Handler) writeOutcome(w http.ResponseWriter, outcome domain.Outcome, state trading.ActionState, form interface{}) {
	h.writeJSON(w, outcome.Kind.HTTPStatus(), map[string]interface{}{
		"outcome": outcome,
		"state":   state,
		"form":    form,
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
