package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copytop/printshop/internal/auth"
	"github.com/copytop/printshop/internal/clients"
	"github.com/copytop/printshop/internal/invoicing"
	"github.com/copytop/printshop/internal/orders"
	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/reports"
	"github.com/copytop/printshop/internal/shared"
	"github.com/copytop/printshop/internal/stock"
	"github.com/copytop/printshop/internal/view"
	"github.com/copytop/printshop/jobs"
	"github.com/copytop/printshop/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	ClientsHandler   *clients.Handler
	PaperHandler     *paper.Handler
	StockHandler     *stock.Handler
	OrdersHandler    *orders.Handler
	InvoicingHandler *invoicing.Handler
	ReportsHandler   *reports.Handler
	JobHandler       *jobs.Handler
	Pool             *pgxpool.Pool
}

// NewRouter constructs the chi.Router for the print-shop app.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFrom(r.Context())
		var csrfToken string
		var flash *shared.FlashMessage
		if sess != nil {
			csrfToken = params.CSRFManager.TokenFor(sess.ID)
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       "Copytop",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
			Data: map[string]any{
				"AppEnv": params.Config.AppEnv,
			},
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/clients", params.ClientsHandler.MountRoutes)
	r.Route("/paper", params.PaperHandler.MountRoutes)
	r.Route("/stock", params.StockHandler.MountRoutes)
	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/invoicing", func(r chi.Router) {
		r.Use(auth.RequireGate(auth.SectionInvoicing))
		params.InvoicingHandler.MountRoutes(r)
	})
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(auth.RequireGate(auth.SectionAdmin))
			params.JobHandler.MountRoutes(r)
		})
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files skip session and CSRF concerns entirely.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with a one-hour Cache-Control header.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
