package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes. Sells go through the
// selection routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trade", func(r chi.Router) {
		r.Post("/stock/buy", h.HandleStockBuy)
		r.Post("/crypto/buy", h.HandleCryptoBuy)
		r.Get("/{executor}", h.HandleGetExecutor)
	})
}
