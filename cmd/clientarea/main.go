package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/config"
	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/handler"
	"github.com/bagianprojects/client-area-api/internal/infra/cache"
	"github.com/bagianprojects/client-area-api/internal/infra/observability"
	"github.com/bagianprojects/client-area-api/internal/infra/resilience"
	"github.com/bagianprojects/client-area-api/internal/infra/supabase"
	"github.com/bagianprojects/client-area-api/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("supabase_url", cfg.SupabaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "client-area-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	sessionCache := cache.New[*domain.Session](cfg.SessionTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Supabase client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	sb := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	sessionSvc := service.NewSessionService(sb, cfg.SupabaseJWTSecret, sessionCache, metrics, logger)
	authSvc := service.NewAuthService(sb, sb, sessionSvc, cfg.SiteURL, logger)
	dashboardSvc := service.NewDashboardService(sb, sb, sb, sb, metrics, logger)
	invoiceSvc := service.NewInvoiceService(sb, logger)
	projectSvc := service.NewProjectService(sb, logger)
	ticketSvc := service.NewTicketService(sb, logger)
	userSvc := service.NewUserService(sb, sb, sessionSvc, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Sessions:   sessionSvc,
		Auth:       authSvc,
		Dashboards: dashboardSvc,
		Invoices:   invoiceSvc,
		Projects:   projectSvc,
		Tickets:    ticketSvc,
		Users:      userSvc,
		Metrics:    metrics,
		Logger:     logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
