// Package main is the entry point for the Vision-Sync server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/ai"
	"github.com/LeeSpain/vision-sync-server/internal/audit"
	"github.com/LeeSpain/vision-sync-server/internal/config"
	"github.com/LeeSpain/vision-sync-server/internal/database"
	"github.com/LeeSpain/vision-sync-server/internal/handler"
	"github.com/LeeSpain/vision-sync-server/internal/logging"
	"github.com/LeeSpain/vision-sync-server/internal/metrics"
	"github.com/LeeSpain/vision-sync-server/internal/middleware"
	"github.com/LeeSpain/vision-sync-server/internal/qualify"
	"github.com/LeeSpain/vision-sync-server/internal/ratelimit"
	"github.com/LeeSpain/vision-sync-server/internal/repository"
	"github.com/LeeSpain/vision-sync-server/internal/service"
	"github.com/LeeSpain/vision-sync-server/internal/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting vision-sync server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Environment),
	)

	ctx := context.Background()
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	// Note: db.Close() is handled by the shutdown coordinator

	migrator := database.NewMigrator(db.Pool, logger)
	if err := migrator.Migrate(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	txManager := database.NewTxManager(db.Pool, logger)
	leadRepo := repository.NewLeadRepository(db.Pool)
	projectRepo := repository.NewProjectRepository(db.Pool)
	convRepo := repository.NewConversationRepository(db.Pool)
	agentRepo := repository.NewAgentRepository(db.Pool)
	contentRepo := repository.NewContentRepository(db.Pool)
	analyticsRepo := repository.NewAnalyticsRepository(db.Pool)
	settingsRepo := repository.NewSettingsRepository(db.Pool, txManager)

	m := metrics.NewMetrics()
	auditLog := audit.NewLogger(logger)

	// Model client and cost-control limiter
	claudeClient := ai.NewClaudeClient(&cfg.Anthropic, logger)
	modelLimiterConfig := ratelimit.DefaultModelLimiterConfig()
	modelLimiter := ratelimit.NewModelLimiter(modelLimiterConfig, nil, logger)
	logger.Info("initialized model call limiter",
		zap.Int("max_per_minute", modelLimiterConfig.MaxRequestsPerMinute),
		zap.Int("max_per_hour", modelLimiterConfig.MaxRequestsPerHour),
		zap.Int("max_per_day", modelLimiterConfig.MaxRequestsPerDay),
		zap.Int("max_concurrent", modelLimiterConfig.MaxConcurrent),
	)

	// Per-IP limiter for the public endpoints
	ipLimiterConfig := ratelimit.DefaultIPLimiterConfig()
	ipLimiterConfig.MaxRequests = cfg.RateLimit.Requests
	ipLimiterConfig.Window = cfg.RateLimit.Window
	ipLimiter := ratelimit.NewIPLimiter(ipLimiterConfig, nil, logger)

	// Services. The refresher doubles as the change notifier: writes from
	// chat and analytics nudge it to recompute the dashboard snapshot.
	settingsService := service.NewSettingsService(settingsRepo, logger)
	dashboardService := service.NewDashboardService(leadRepo, convRepo, projectRepo, analyticsRepo, nil, logger)
	refresher := service.NewDashboardRefresher(dashboardService, &service.DashboardRefresherConfig{
		PollInterval: cfg.Analytics.RefreshInterval,
		Debounce:     cfg.Analytics.Debounce,
		Window:       cfg.Analytics.Window,
	}, nil, m, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, refresher, m, logger)
	chatService := service.NewChatService(
		convRepo,
		leadRepo,
		agentRepo,
		projectRepo,
		settingsService,
		claudeClient,
		qualify.NewRegexExtractor(),
		modelLimiter,
		refresher,
		cfg.Chat,
		m,
		auditLog,
		logger,
	)
	leadService := service.NewLeadService(leadRepo, auditLog, logger)
	projectService := service.NewProjectService(projectRepo, auditLog, logger)
	conversationService := service.NewConversationService(convRepo, auditLog, logger)
	contentService := service.NewContentService(contentRepo, agentRepo, auditLog, logger)

	errorTracker := metrics.NewErrorRateTracker(metrics.DefaultErrorRateConfig())

	shutdownCoord := shutdown.NewCoordinator(&shutdown.Config{
		Timeout: 30 * time.Second,
	}, logger)
	readiness := shutdown.NewReadinessProbe(shutdownCoord)

	// Handlers
	chatHandler := handler.NewChatHandler(chatService, logger)
	publicHandler := handler.NewPublicHandler(projectService, analyticsService, logger)
	adminHandler := handler.NewAdminHandler(handler.AdminHandlerConfig{
		Leads:         leadService,
		Projects:      projectService,
		Conversations: conversationService,
		Content:       contentService,
		Settings:      settingsService,
		Dashboard:     refresher,
		Logger:        logger,
	})
	healthHandler := handler.NewHealthHandler(handler.HealthHandlerConfig{
		HealthChecker: db,
		ModelChecker:  claudeClient,
		ErrorTracker:  errorTracker,
		Drain:         readiness,
		Logger:        logger,
	})

	correlation := middleware.NewRequestCorrelation(logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(correlation.Middleware) // First: add correlation IDs
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.Compress(5))

	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", m.Handler())

	// Public surface: the chat widget and the catalogue are embedded in the
	// marketing site, which may be served from another origin.
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(middleware.RateLimit(ipLimiter, logger))
		chatHandler.RegisterRoutes(r)
		publicHandler.RegisterRoutes(r)
	})

	// Admin surface behind the bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.Admin.APIToken, auditLog, logger))
		adminHandler.RegisterRoutes(r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := refresher.Start(ctx); err != nil {
		logger.Fatal("failed to start dashboard refresher", zap.Error(err))
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	auditLog.ServiceStarted(ctx, cfg.Server.Environment)

	// Phase 1 (PreDrain): the readiness probe flips to draining on its own
	// the moment shutdown starts
	// Phase 2 (Drain): let in-flight requests complete
	shutdownCoord.RegisterFunc(shutdown.PhaseDrain, "http-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	// Phase 3 (Shutdown): stop background workers
	shutdownCoord.RegisterFunc(shutdown.PhaseShutdown, "dashboard-refresher", func(ctx context.Context) error {
		return refresher.Stop(ctx)
	})
	shutdownCoord.RegisterFunc(shutdown.PhaseShutdown, "ip-limiter", func(ctx context.Context) error {
		ipLimiter.Stop()
		return nil
	})

	// Phase 4 (Cleanup): close connections and flush buffers
	shutdownCoord.RegisterFunc(shutdown.PhaseCleanup, "database", func(ctx context.Context) error {
		db.Close()
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("received shutdown signal")
	auditLog.ServiceStopping(ctx, "signal received")

	if err := shutdownCoord.Shutdown(ctx); err != nil {
		logger.Error("shutdown completed with errors", zap.Error(err))
	}
}

// initLogger builds the process logger from the loaded configuration.
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.New(&logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		return nil, err
	}
	return log.Zap(), nil
}
