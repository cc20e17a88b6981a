package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all assistant routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assistant", func(r chi.Router) {
		r.Get("/", h.HandleGetState)
		r.Post("/open", h.HandleOpen)
		r.Post("/send", h.HandleSend)
		r.Post("/reset", h.HandleReset)
	})
}
