package invoicing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copytop/printshop/internal/clients"
	"github.com/copytop/printshop/internal/orders"
	"github.com/copytop/printshop/internal/reports"
	"github.com/copytop/printshop/internal/shared"
	"github.com/copytop/printshop/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	clients   *clients.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	audit     *shared.AuditLogger
	reports   *reports.Service
}

func NewHandler(logger *slog.Logger, service *Service, clientSvc *clients.Service, templates *view.Engine, csrf *shared.CSRFManager, audit *shared.AuditLogger, reportSvc *reports.Service) *Handler {
	return &Handler{logger: logger, service: service, clients: clientSvc, templates: templates, csrf: csrf, audit: audit, reports: reportSvc}
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
	r.Get("/", h.Index)
	r.Post("/", h.Invoice)
	r.Post("/{orderID}/cancel", h.Cancel)
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	clientList, _, err := h.clients.List(r.Context(), clients.ListFilters{})
	if err != nil {
		h.logger.Error("list clients failed", "error", err)
		http.Error(w, "Failed to load clients", http.StatusInternalServerError)
		return
	}

	clientID, _ := strconv.ParseInt(r.URL.Query().Get("client_id"), 10, 64)
	includeInvoiced := r.URL.Query().Get("all") == "1"

	var candidates []orders.Order
	if clientID > 0 {
		candidates, err = h.service.Candidates(r.Context(), clientID, includeInvoiced)
		if err != nil {
			h.logger.Error("list invoicing candidates failed", "error", err, "client_id", clientID)
			http.Error(w, "Failed to load orders", http.StatusInternalServerError)
			return
		}
	}

	h.render(w, r, "pages/invoicing.html", map[string]any{
		"Clients":         clientList,
		"ClientID":        clientID,
		"Orders":          candidates,
		"IncludeInvoiced": includeInvoiced,
	}, http.StatusOK)
}

func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	clientID, _ := strconv.ParseInt(r.PostFormValue("client_id"), 10, 64)
	invoiceNumber := r.PostFormValue("invoice_number")
	invoiceDate, _ := time.Parse("2006-01-02", r.PostFormValue("invoice_date"))

	var orderIDs []int64
	for _, raw := range r.PostForm["order_ids"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			orderIDs = append(orderIDs, id)
		}
	}

	back := "/invoicing?client_id=" + strconv.FormatInt(clientID, 10)

	batch, err := h.service.Invoice(r.Context(), clientID, orderIDs, invoiceNumber, invoiceDate)
	if err != nil {
		var priceErr *orders.MissingPriceError
		if errors.As(err, &priceErr) {
			h.redirectWithFlash(w, r, back, "error", "Set a price first on "+priceErr.Error())
			return
		}
		h.redirectWithFlash(w, r, back, "error", err.Error())
		return
	}

	h.audit.Record(r.Context(), "invoice.create", "invoice", batch.InvoiceNumber, map[string]any{
		"client_id": clientID,
		"orders":    len(batch.Orders),
		"total":     batch.Total.String(),
	})
	h.invalidateReports(r)
	h.redirectWithFlash(w, r, back, "success",
		"Invoice "+batch.InvoiceNumber+" issued, total "+batch.Total.StringFixed(2))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	order, err := h.service.Cancel(r.Context(), orderID)
	if err != nil {
		h.redirectWithFlash(w, r, "/invoicing", "error", err.Error())
		return
	}

	h.audit.Record(r.Context(), "invoice.cancel", "order", strconv.FormatInt(order.ID, 10), map[string]any{"number": order.Number})
	h.invalidateReports(r)
	h.redirectWithFlash(w, r, "/invoicing?client_id="+strconv.FormatInt(order.ClientID, 10), "success", "Invoice cancelled, order back to finalized")
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
		Title:       "Invoicing",
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
