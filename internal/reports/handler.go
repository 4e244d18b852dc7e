package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copytop/printshop/internal/platform/httpx"
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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/consumption", h.Consumption)
	r.Get("/revenue", h.Revenue)
	r.Get("/stock", h.Stock)
	r.Get("/consumption.json", h.ConsumptionJSON)
	r.Get("/revenue.json", h.RevenueJSON)
	r.Get("/stock.json", h.StockJSON)
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/reports/consumption", http.StatusSeeOther)
}

func (h *Handler) Consumption(w http.ResponseWriter, r *http.Request) {
	from, to := rangeFromQuery(r)
	rows, err := h.service.Consumption(r.Context(), from, to)
	if err != nil {
		h.logger.Error("consumption report failed", "error", err)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/report_consumption.html", map[string]any{
		"Rows": rows,
		"From": from,
		"To":   to,
	})
}

func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	from, to := rangeFromQuery(r)
	rows, err := h.service.Revenue(r.Context(), from, to)
	if err != nil {
		h.logger.Error("revenue report failed", "error", err)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/report_revenue.html", map[string]any{
		"Rows": rows,
		"From": from,
		"To":   to,
	})
}

func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StockSnapshot(r.Context())
	if err != nil {
		h.logger.Error("stock report failed", "error", err)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/report_stock.html", map[string]any{
		"Rows": rows,
	})
}

// The .json variants feed spreadsheet exports and ad-hoc scripting.

func (h *Handler) ConsumptionJSON(w http.ResponseWriter, r *http.Request) {
	from, to := rangeFromQuery(r)
	rows, err := h.service.Consumption(r.Context(), from, to)
	if err != nil {
		h.logger.Error("consumption report failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Report Failed", "could not build consumption report")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) RevenueJSON(w http.ResponseWriter, r *http.Request) {
	from, to := rangeFromQuery(r)
	rows, err := h.service.Revenue(r.Context(), from, to)
	if err != nil {
		h.logger.Error("revenue report failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Report Failed", "could not build revenue report")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) StockJSON(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StockSnapshot(r.Context())
	if err != nil {
		h.logger.Error("stock report failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Report Failed", "could not build stock report")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func rangeFromQuery(r *http.Request) (time.Time, time.Time) {
	parse := func(raw string) time.Time {
		if raw == "" {
			return time.Time{}
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return normalizeRange(parse(r.URL.Query().Get("from")), parse(r.URL.Query().Get("to")))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any) {
	sess := shared.SessionFrom(r.Context())
	var csrfToken string
	var flash *shared.FlashMessage
	if sess != nil {
		csrfToken = h.csrf.TokenFor(sess.ID)
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Reports",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}
