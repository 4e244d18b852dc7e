package clients

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/copytop/printshop/internal/shared"
	"github.com/copytop/printshop/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	pg := shared.ParsePagination(r)
	filters := ListFilters{
		Page:   pg.Page,
		Limit:  pg.Limit(),
		Search: r.URL.Query().Get("search"),
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list clients failed", "error", err)
		http.Error(w, "Failed to load clients", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/clients_list.html", map[string]any{
		"Clients": list,
		"Filters": filters,
		"Total":   total,
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get client failed", "error", err, "id", id)
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/client_detail.html", map[string]any{
		"Client": client,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/client_form.html", map[string]any{
		"Errors": map[string]string{},
		"Client": nil,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	client := Client{
		Name:    r.PostFormValue("name"),
		Contact: r.PostFormValue("contact"),
		Phone:   r.PostFormValue("phone"),
		Email:   r.PostFormValue("email"),
	}

	created, err := h.service.Create(r.Context(), client)
	if err != nil {
		h.render(w, r, "pages/client_form.html", map[string]any{
			"Errors": map[string]string{"general": err.Error()},
			"Client": client,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/clients/"+strconv.FormatInt(created.ID, 10), "success", "Client created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get client failed", "error", err, "id", id)
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/client_form.html", map[string]any{
		"Errors": map[string]string{},
		"Client": client,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	client := Client{
		Name:    r.PostFormValue("name"),
		Contact: r.PostFormValue("contact"),
		Phone:   r.PostFormValue("phone"),
		Email:   r.PostFormValue("email"),
	}

	if err := h.service.Update(r.Context(), id, client); err != nil {
		h.render(w, r, "pages/client_form.html", map[string]any{
			"Errors": map[string]string{"general": err.Error()},
			"Client": client,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/clients/"+strconv.FormatInt(id, 10), "success", "Client updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		kind := "error"
		msg := err.Error()
		if errors.Is(err, ErrClientInUse) {
			msg = "Client still has orders and cannot be deleted"
		}
		h.redirectWithFlash(w, r, "/clients", kind, msg)
		return
	}

	h.redirectWithFlash(w, r, "/clients", "success", "Client deleted")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFrom(r.Context())
	var csrfToken string
	var flash *shared.FlashMessage
	if sess != nil {
		csrfToken = h.csrf.TokenFor(sess.ID)
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Clients",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFrom(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
