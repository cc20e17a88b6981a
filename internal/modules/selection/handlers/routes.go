package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all selection routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/selection/{class}", func(r chi.Router) {
		r.Get("/", h.HandleGetState)
		r.Post("/select", h.HandleSelect)
		r.Post("/quantity", h.HandleSetQuantity)
		r.Post("/clear", h.HandleClear)
		r.Post("/submit", h.HandleSubmit)
	})
}
