package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/admin"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/api/router"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/app/bootstrap"
	appconfig "github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/config"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/conversation"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/dashboard"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/notify"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/observability/metrics"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/webchat"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting Luxury Leads AI API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate && cfg.DatabaseURL != "" {
		if err := bootstrap.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Completion plus summary must fit in one response.
	writeTimeout := 2*cfg.LLMTimeout + 15*time.Second
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	a.dispatcher.Wait()
	logger.Info("server stopped")
}

type app struct {
	handler    http.Handler
	dispatcher *notify.Dispatcher
	stores     *bootstrap.Stores
	redis      *redis.Client
}

func (a *app) Close() {
	a.stores.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// setupMetrics builds the registry served on /metrics and read by the
// dashboard latency snapshot.
func setupMetrics() (*prometheus.Registry, http.Handler, *metrics.ChatMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(reg)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), chatMetrics
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	reg, metricsHandler, chatMetrics := setupMetrics()

	stores, err := bootstrap.BuildStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.MemoryBackend == "redis" {
		redisClient = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	}
	memory := bootstrap.BuildMemory(cfg, redisClient, logger)

	llm, err := bootstrap.BuildLLMClient(ctx, cfg, chatMetrics, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}

	dispatcher := bootstrap.BuildNotifier(cfg, bootstrap.BuildEmailSender(ctx, cfg, logger), chatMetrics, logger)

	agencySvc := agency.NewService(stores.Agencies, agency.NewTokenIssuer(cfg.OwnerJWTSecret, cfg.OwnerTokenTTL), logger)
	if cfg.OwnerJWTSecret == "" {
		logger.Warn("OWNER_JWT_SECRET not set; owner login and lead routes are disabled")
	}

	chatSvc, err := bootstrap.BuildConversationService(cfg, bootstrap.ConversationDeps{
		Agencies: agencySvc,
		Leads:    stores.Leads,
		Memory:   memory,
		LLM:      llm,
		Notifier: dispatcher,
		Metrics:  chatMetrics,
	}, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}

	routerCfg := &router.Config{
		Logger:              logger,
		AgencyHandler:       agency.NewHandler(agencySvc, logger),
		LeadsHandler:        leads.NewHandler(stores.Leads, logger),
		ConversationHandler: conversation.NewHandler(chatSvc, logger),
		WebchatHandler:      webchat.NewHandler(chatSvc, cfg.CORSAllowedOrigins, logger),
		DashboardHandler:    dashboard.NewHandler(stores.Dashboard, reg, logger),
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		OwnerJWTSecret:      cfg.OwnerJWTSecret,
		AdminJWTSecret:      cfg.AdminJWTSecret,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	if stores.SQL != nil {
		routerCfg.AdminHandler = admin.NewHandler(stores.SQL, logger)
	}

	return &app{
		handler:    router.New(routerCfg),
		dispatcher: dispatcher,
		stores:     stores,
		redis:      redisClient,
	}, nil
}
