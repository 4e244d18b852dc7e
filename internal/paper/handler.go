package paper

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/copytop/printshop/internal/sheets"
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
		Page:        pg.Page,
		Limit:       pg.Limit(),
		Search:      r.URL.Query().Get("search"),
		Format:      r.URL.Query().Get("format"),
		InStockOnly: r.URL.Query().Get("in_stock") == "1",
	}

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list paper failed", "error", err)
		http.Error(w, "Failed to load paper catalog", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/paper_list.html", map[string]any{
		"Items":   items,
		"Filters": filters,
		"Total":   total,
		"Formats": sheets.Formats(),
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/paper_form.html", map[string]any{
		"Errors":    map[string]string{},
		"Item":      nil,
		"Formats":   sheets.Formats(),
		"FSCCodes":  sheets.FSCInputCodes(),
		"FSCClaims": sheets.FSCInputClaims(),
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	item, err := h.itemFromForm(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), item)
	if err != nil {
		h.render(w, r, "pages/paper_form.html", map[string]any{
			"Errors":    map[string]string{"general": err.Error()},
			"Item":      item,
			"Formats":   sheets.Formats(),
			"FSCCodes":  sheets.FSCInputCodes(),
			"FSCClaims": sheets.FSCInputClaims(),
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/paper", "success", "Paper sort created: "+created.Name)
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid paper item ID", http.StatusBadRequest)
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get paper failed", "error", err, "id", id)
		http.Error(w, "Paper item not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/paper_form.html", map[string]any{
		"Errors":    map[string]string{},
		"Item":      item,
		"Formats":   sheets.Formats(),
		"FSCCodes":  sheets.FSCInputCodes(),
		"FSCClaims": sheets.FSCInputClaims(),
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid paper item ID", http.StatusBadRequest)
		return
	}

	item, err := h.itemFromForm(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := h.service.Update(r.Context(), id, item); err != nil {
		h.render(w, r, "pages/paper_form.html", map[string]any{
			"Errors":    map[string]string{"general": err.Error()},
			"Item":      item,
			"Formats":   sheets.Formats(),
			"FSCCodes":  sheets.FSCInputCodes(),
			"FSCClaims": sheets.FSCInputClaims(),
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/paper", "success", "Paper sort updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid paper item ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/paper", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/paper", "success", "Paper sort deleted")
}

func (h *Handler) itemFromForm(r *http.Request) (Item, error) {
	if err := r.ParseForm(); err != nil {
		return Item{}, err
	}
	grammage, _ := strconv.ParseFloat(r.PostFormValue("grammage"), 64)
	onHand, _ := strconv.ParseFloat(r.PostFormValue("on_hand"), 64)

	return Item{
		Name:         r.PostFormValue("name"),
		Format:       r.PostFormValue("format"),
		Grammage:     grammage,
		OnHand:       onHand,
		FSCCertified: r.PostFormValue("fsc_certified") == "1",
		FSCInputCode: r.PostFormValue("fsc_input_code"),
		FSCClaim:     r.PostFormValue("fsc_claim"),
		Supplier:     r.PostFormValue("supplier"),
		SupplierCert: r.PostFormValue("supplier_cert"),
	}, nil
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
		Title:       "Paper Catalog",
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
