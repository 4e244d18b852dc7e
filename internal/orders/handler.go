package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copytop/printshop/internal/clients"
	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/reports"
	"github.com/copytop/printshop/internal/sheets"
	"github.com/copytop/printshop/internal/shared"
	"github.com/copytop/printshop/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	clients   *clients.Service
	papers    *paper.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	audit     *shared.AuditLogger
	reports   *reports.Service
}

func NewHandler(logger *slog.Logger, service *Service, clientSvc *clients.Service, paperSvc *paper.Service, templates *view.Engine, csrf *shared.CSRFManager, audit *shared.AuditLogger, reportSvc *reports.Service) *Handler {
	return &Handler{logger: logger, service: service, clients: clientSvc, papers: paperSvc, templates: templates, csrf: csrf, audit: audit, reports: reportSvc}
}

// invalidateReports drops cached report aggregates after a mutation.
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
	r.Get("/{id}", h.Show)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/duplicate", h.Duplicate)
	r.Post("/{id}/delete", h.Delete)
	r.Post("/{id}/finalize", h.Finalize)
	r.Post("/{id}/revert", h.Revert)
	r.Post("/{id}/price", h.SetPrice)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	pg := shared.ParsePagination(r)
	clientID, _ := strconv.ParseInt(r.URL.Query().Get("client_id"), 10, 64)

	filters := ListFilters{
		Page:     pg.Page,
		Limit:    pg.Limit(),
		ClientID: clientID,
		From:     parseDate(r.URL.Query().Get("from")),
		To:       parseDate(r.URL.Query().Get("to")),
		State:    State(r.URL.Query().Get("state")),
	}
	if filters.State != "" && !filters.State.Valid() {
		filters.State = ""
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list orders failed", "error", err)
		http.Error(w, "Failed to load orders", http.StatusInternalServerError)
		return
	}

	clientList, _, err := h.clients.List(r.Context(), clients.ListFilters{})
	if err != nil {
		h.logger.Error("list clients failed", "error", err)
		http.Error(w, "Failed to load clients", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/orders_list.html", map[string]any{
		"Orders":  list,
		"Clients": clientList,
		"Filters": filters,
		"Total":   total,
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	check, err := h.service.ConversionWarning(r.Context(), order)
	if err != nil {
		h.logger.Warn("conversion check failed", "error", err, "order", order.Number)
	}

	h.render(w, r, "pages/order_detail.html", map[string]any{
		"Order":      order,
		"Conversion": check,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, nil, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.inputFromForm(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	order, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.renderForm(w, r, nil, map[string]string{"general": err.Error()}, http.StatusBadRequest)
		return
	}

	h.audit.Record(r.Context(), "order.create", "order", strconv.FormatInt(order.ID, 10), map[string]any{"number": order.Number})
	h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(order.ID, 10), "success", "Order created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, &order, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	in, err := h.inputFromForm(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	order, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrNotEditable) {
			h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(id, 10), "error", "Only in-progress orders can be edited")
			return
		}
		h.renderForm(w, r, nil, map[string]string{"general": err.Error()}, http.StatusBadRequest)
		return
	}

	h.audit.Record(r.Context(), "order.update", "order", strconv.FormatInt(order.ID, 10), map[string]any{"number": order.Number})
	h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(order.ID, 10), "success", "Order updated")
}

func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	dup, err := h.service.Duplicate(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/orders", "error", err.Error())
		return
	}

	h.audit.Record(r.Context(), "order.duplicate", "order", strconv.FormatInt(dup.ID, 10), map[string]any{"number": dup.Number, "source": id})
	h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(dup.ID, 10)+"/edit", "success", "Order duplicated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/orders", "error", transitionMessage(err))
		return
	}

	h.audit.Record(r.Context(), "order.delete", "order", strconv.FormatInt(id, 10), nil)
	h.redirectWithFlash(w, r, "/orders", "success", "Order deleted")
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.Finalize(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(id, 10), "error", transitionMessage(err))
		return
	}

	h.audit.Record(r.Context(), "order.finalize", "order", strconv.FormatInt(order.ID, 10), map[string]any{
		"number":      order.Number,
		"consumption": order.Consumption(),
	})
	h.invalidateReports(r)
	h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(id, 10), "success", "Order finalized, stock debited")
}

func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.RevertToInProgress(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(id, 10), "error", transitionMessage(err))
		return
	}

	h.audit.Record(r.Context(), "order.revert", "order", strconv.FormatInt(order.ID, 10), map[string]any{"number": order.Number})
	h.invalidateReports(r)
	h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(id, 10), "success", "Order reverted, stock credited")
}

func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	price, _ := strconv.ParseFloat(r.PostFormValue("price"), 64)

	if err := h.service.SetPrice(r.Context(), id, price); err != nil {
		h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(id, 10), "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/orders/"+strconv.FormatInt(id, 10), "success", "Price saved")
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (Order, bool) {
	id, ok := h.orderID(w, r)
	if !ok {
		return Order{}, false
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get order failed", "error", err, "id", id)
		http.Error(w, "Order not found", http.StatusNotFound)
		return Order{}, false
	}
	return order, true
}

func (h *Handler) inputFromForm(r *http.Request) (Input, error) {
	if err := r.ParseForm(); err != nil {
		return Input{}, err
	}

	clientID, _ := strconv.ParseInt(r.PostFormValue("client_id"), 10, 64)
	paperItemID, _ := strconv.ParseInt(r.PostFormValue("paper_item_id"), 10, 64)
	printRun, _ := strconv.Atoi(r.PostFormValue("print_run"))
	width, _ := strconv.ParseFloat(r.PostFormValue("width"), 64)
	height, _ := strconv.ParseFloat(r.PostFormValue("height"), 64)
	pages, _ := strconv.Atoi(r.PostFormValue("pages"))
	correction, _ := strconv.ParseFloat(r.PostFormValue("correction_index"), 64)
	pagesPerSheet, _ := strconv.Atoi(r.PostFormValue("pages_per_sheet"))
	surplus, _ := strconv.Atoi(r.PostFormValue("surplus_sheets"))
	price, _ := strconv.ParseFloat(r.PostFormValue("price"), 64)
	creaseCount, _ := strconv.Atoi(r.PostFormValue("crease_count"))
	laminateCount, _ := strconv.Atoi(r.PostFormValue("laminate_count"))

	orderDate := parseDate(r.PostFormValue("order_date"))
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	return Input{
		ClientID:        clientID,
		PaperItemID:     paperItemID,
		Equipment:       r.PostFormValue("equipment"),
		OrderDate:       orderDate,
		JobName:         r.PostFormValue("job_name"),
		ClientRef:       r.PostFormValue("client_ref"),
		Description:     r.PostFormValue("description"),
		PrintRun:        printRun,
		Width:           width,
		Height:          height,
		Pages:           pages,
		CorrectionIndex: correction,
		Colours:         r.PostFormValue("colours"),
		PressSheet:      r.PostFormValue("press_sheet"),
		PagesPerSheet:   pagesPerSheet,
		SurplusSheets:   surplus,
		FSC:             r.PostFormValue("fsc") == "1",
		FSCOutputCode:   r.PostFormValue("fsc_output_code"),
		Price:           price,
		Finishing: Finishing{
			Lamination:     r.PostFormValue("lamination"),
			Creased:        r.PostFormValue("creased") == "1",
			CreaseCount:    creaseCount,
			Laminated:      r.PostFormValue("laminated") == "1",
			LaminateFormat: r.PostFormValue("laminate_format"),
			LaminateCount:  laminateCount,
			CutterPlotter:  r.PostFormValue("cutter_plotter") == "1",
			Stapled:        r.PostFormValue("stapled") == "1",
			RoundedCorners: r.PostFormValue("rounded_corners") == "1",
			Perforated:     r.PostFormValue("perforated") == "1",
			Spiral:         r.PostFormValue("spiral") == "1",
			DieCut:         r.PostFormValue("die_cut") == "1",
			Glued:          r.PostFormValue("glued") == "1",
			WobblerTail:    r.PostFormValue("wobbler_tail") == "1",
			FinishingNotes: r.PostFormValue("finishing_notes"),
			DeliveryNotes:  r.PostFormValue("delivery_notes"),
		},
	}, nil
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, order *Order, formErrors map[string]string, status int) {
	clientList, _, err := h.clients.List(r.Context(), clients.ListFilters{})
	if err != nil {
		h.logger.Error("list clients failed", "error", err)
		http.Error(w, "Failed to load clients", http.StatusInternalServerError)
		return
	}
	items, _, err := h.papers.List(r.Context(), paper.ListFilters{InStockOnly: true})
	if err != nil {
		h.logger.Error("list paper failed", "error", err)
		http.Error(w, "Failed to load paper catalog", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/order_form.html", map[string]any{
		"Errors":          formErrors,
		"Order":           order,
		"Clients":         clientList,
		"Items":           items,
		"Equipment":       sheets.Equipment,
		"ColourOptions":   sheets.ColourOptions,
		"FSCOutputCodes":  sheets.FSCOutputCodes(),
		"LaminateFormats": sheets.LaminateFormats,
		"LaminationKinds": sheets.LaminationOptions,
		"PressSheets":     sheets.PressSheets(),
	}, status)
}

func transitionMessage(err error) string {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.Error()
	}
	var transErr *InvalidTransitionError
	if errors.As(err, &transErr) {
		return transErr.Error()
	}
	return err.Error()
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
		Title:       "Orders",
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
