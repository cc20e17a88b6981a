package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all position routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/positions", func(r chi.Router) {
		r.Get("/summary", h.HandleGetSummary)
		r.Get("/options", h.HandleGetOptions)
		r.Get("/crypto", h.HandleGetCrypto)
		r.Get("/crypto/assets", h.HandleGetCryptoAssets)
		r.Post("/reconcile", h.HandleReconcile)
	})
}
