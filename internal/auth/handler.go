package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/copytop/printshop/internal/shared"
	"github.com/copytop/printshop/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	gate      *Gate
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, gate *Gate, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, gate: gate, templates: templates, csrf: csrf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/gate", h.Form)
	r.Post("/gate", h.Unlock)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	if !h.gate.KnownSection(section) {
		http.Error(w, "Unknown section", http.StatusBadRequest)
		return
	}
	h.render(w, r, section, r.URL.Query().Get("next"), "", http.StatusOK)
}

func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	section := r.PostFormValue("section")
	next := safeNext(r.PostFormValue("next"))

	if !h.gate.KnownSection(section) {
		http.Error(w, "Unknown section", http.StatusBadRequest)
		return
	}

	if err := h.gate.Verify(section, r.PostFormValue("password")); err != nil {
		if errors.Is(err, shared.ErrGateDenied) {
			h.render(w, r, section, next, "Incorrect password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("gate verify failed", "error", err, "section", section)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := shared.SessionFrom(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	Grant(sess, section)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, section, next, errMsg string, status int) {
	sess := shared.SessionFrom(r.Context())
	var csrfToken string
	if sess != nil {
		csrfToken = h.csrf.TokenFor(sess.ID)
	}
	data := view.TemplateData{
		Title:     "Protected section",
		CSRFToken: csrfToken,
		Data: map[string]any{
			"Section": section,
			"Next":    next,
			"Error":   errMsg,
		},
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/gate.html", data); err != nil {
		h.logger.Error("render template", "error", err, "template", "pages/gate.html")
	}
}

// safeNext keeps redirects on-site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
