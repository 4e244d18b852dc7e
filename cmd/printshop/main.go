package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/copytop/printshop/internal/app"
	"github.com/copytop/printshop/internal/auth"
	"github.com/copytop/printshop/internal/clients"
	"github.com/copytop/printshop/internal/invoicing"
	"github.com/copytop/printshop/internal/orders"
	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/platform/db"
	"github.com/copytop/printshop/internal/reports"
	"github.com/copytop/printshop/internal/shared"
	"github.com/copytop/printshop/internal/stock"
	"github.com/copytop/printshop/internal/view"
	"github.com/copytop/printshop/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "printshop_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool, logger)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	gate := auth.NewGate(cfg.InvoicingPasswordHash, cfg.AdminPasswordHash)
	authHandler := auth.NewHandler(logger, gate, templates, csrfManager)

	clientRepo := clients.NewRepository(pool)
	clientService := clients.NewService(clientRepo)
	clientsHandler := clients.NewHandler(logger, clientService, templates, csrfManager)

	paperRepo := paper.NewRepository(pool)
	paperService := paper.NewService(paperRepo)
	paperHandler := paper.NewHandler(logger, paperService, templates, csrfManager)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(reports.NewQueries(pool), reportCache)
	reportsHandler := reports.NewHandler(logger, reportService, templates, csrfManager)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo)
	stockHandler := stock.NewHandler(logger, stockService, paperService, templates, csrfManager, auditLogger, reportService)

	orderRepo := orders.NewRepository(pool, cfg.OrderNumberFloor)
	orderService := orders.NewService(orderRepo)
	ordersHandler := orders.NewHandler(logger, orderService, clientService, paperService, templates, csrfManager, auditLogger, reportService)

	invoicingService := invoicing.NewService(orderService)
	invoicingHandler := invoicing.NewHandler(logger, invoicingService, clientService, templates, csrfManager, auditLogger, reportService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		ClientsHandler:   clientsHandler,
		PaperHandler:     paperHandler,
		StockHandler:     stockHandler,
		OrdersHandler:    ordersHandler,
		InvoicingHandler: invoicingHandler,
		ReportsHandler:   reportsHandler,
		JobHandler:       jobHandler,
		Pool:             pool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
