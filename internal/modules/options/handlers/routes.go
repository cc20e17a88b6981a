package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all option routes. Sells go through the selection
// routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/options", func(r chi.Router) {
		r.Post("/buy", h.HandleBuy)
		r.Post("/exercise/{id}", h.HandleExercise)
		r.Get("/{executor}", h.HandleGetExecutor)
	})
}
