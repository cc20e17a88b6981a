package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio directory routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/refresh", h.HandleRefresh)

		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", h.HandleRename)
			r.Delete("/", h.HandleDelete)
			r.Post("/default", h.HandleSetDefault)
			r.Post("/select", h.HandleSelect)
		})
	})
}
