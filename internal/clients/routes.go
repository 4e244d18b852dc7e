package clients

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
}
