package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/reports"
	"github.com/copytop/printshop/internal/shared"
	"github.com/copytop/printshop/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	papers    *paper.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	audit     *shared.AuditLogger
	reports   *reports.Service
}

func NewHandler(logger *slog.Logger, service *Service, papers *paper.Service, templates *view.Engine, csrf *shared.CSRFManager, audit *shared.AuditLogger, reportSvc *reports.Service) *Handler {
	return &Handler{logger: logger, service: service, papers: papers, templates: templates, csrf: csrf, audit: audit, reports: reportSvc}
}

func (h *Handler) invalidateReports(r *http.Request) {
	if h.reports == nil {
		return
	}
	if err := h.reports.Invalidate(r.Context()); err != nil {
		h.logger.Warn("invalidate report cache", "error", err)
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Post("/{id}/reverse", h.Reverse)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	paperItemID, _ := strconv.ParseInt(r.URL.Query().Get("paper_item_id"), 10, 64)
	from := parseDate(r.URL.Query().Get("from"))
	to := parseDate(r.URL.Query().Get("to"))

	entries, err := h.service.List(r.Context(), paperItemID, from, to)
	if err != nil {
		h.logger.Error("list stock entries failed", "error", err)
		http.Error(w, "Failed to load stock ledger", http.StatusInternalServerError)
		return
	}

	items, _, err := h.papers.List(r.Context(), paper.ListFilters{})
	if err != nil {
		h.logger.Error("list paper failed", "error", err)
		http.Error(w, "Failed to load paper catalog", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/stock_list.html", map[string]any{
		"Entries":     entries,
		"Items":       items,
		"PaperItemID": paperItemID,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	items, _, err := h.papers.List(r.Context(), paper.ListFilters{})
	if err != nil {
		h.logger.Error("list paper failed", "error", err)
		http.Error(w, "Failed to load paper catalog", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/stock_form.html", map[string]any{
		"Errors": map[string]string{},
		"Items":  items,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	paperItemID, _ := strconv.ParseInt(r.PostFormValue("paper_item_id"), 10, 64)
	quantity, _ := strconv.ParseFloat(r.PostFormValue("quantity"), 64)

	entry := Entry{
		PaperItemID:   paperItemID,
		Quantity:      quantity,
		Supplier:      r.PostFormValue("supplier"),
		InvoiceNumber: r.PostFormValue("invoice_number"),
		CertCode:      r.PostFormValue("cert_code"),
		ReceivedAt:    parseDate(r.PostFormValue("received_at")),
	}

	created, err := h.service.RecordReceipt(r.Context(), entry)
	if err != nil {
		h.redirectWithFlash(w, r, "/stock/new", "error", err.Error())
		return
	}

	h.audit.Record(r.Context(), "stock.receipt", "stock_entry", strconv.FormatInt(created.ID, 10), map[string]any{
		"paper_item_id": created.PaperItemID,
		"quantity":      created.Quantity,
	})
	h.invalidateReports(r)
	h.redirectWithFlash(w, r, "/stock", "success", "Receipt recorded")
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid stock entry ID", http.StatusBadRequest)
		return
	}

	if err := h.service.ReverseEntry(r.Context(), id); err != nil {
		msg := err.Error()
		var revErr *ReversalError
		if errors.As(err, &revErr) {
			msg = "Receipt cannot be reversed: the paper has already been consumed"
		}
		h.redirectWithFlash(w, r, "/stock", "error", msg)
		return
	}

	h.audit.Record(r.Context(), "stock.reverse", "stock_entry", strconv.FormatInt(id, 10), nil)
	h.invalidateReports(r)
	h.redirectWithFlash(w, r, "/stock", "success", "Receipt reversed")
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}
	return t
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
		Title:       "Stock Ledger",
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
