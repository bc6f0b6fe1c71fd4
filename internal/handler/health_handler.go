package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/metrics"
)

// HealthChecker defines the interface for checking database health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ModelHealthChecker defines the interface for checking model client health.
type ModelHealthChecker interface {
	IsCircuitOpen() bool
}

// DrainChecker reports whether the server is draining for shutdown.
type DrainChecker interface {
	IsReady() bool
}

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	healthChecker HealthChecker
	modelChecker  ModelHealthChecker
	errorTracker  *metrics.ErrorRateTracker
	drain         DrainChecker
	logger        *zap.Logger
}

// HealthHandlerConfig holds configuration for HealthHandler.
type HealthHandlerConfig struct {
	HealthChecker HealthChecker
	ModelChecker  ModelHealthChecker
	ErrorTracker  *metrics.ErrorRateTracker
	Drain         DrainChecker
	Logger        *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg HealthHandlerConfig) *HealthHandler {
	if cfg.Logger == nil {
		panic("logger is required")
	}
	return &HealthHandler{
		healthChecker: cfg.HealthChecker,
		modelChecker:  cfg.ModelChecker,
		errorTracker:  cfg.ErrorTracker,
		drain:         cfg.Drain,
		logger:        cfg.Logger,
	}
}

// RegisterRoutes registers health routes on the router.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReadiness)
	r.Get("/live", h.HandleLiveness)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HandleHealth returns a health check response covering every dependency.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "ok",
		Checks: make(map[string]ComponentHealth),
	}

	hasCriticalFailure := false
	hasDegradation := false

	// Database connectivity is the critical dependency.
	if h.healthChecker != nil {
		if err := h.healthChecker.Ping(ctx); err != nil {
			hasCriticalFailure = true
			response.Checks["database"] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			h.logger.Error("database health check failed", zap.Error(err))
		} else {
			response.Checks["database"] = ComponentHealth{Status: "healthy"}
		}
	}

	// An open circuit means chat falls back; the site itself stays up.
	if h.modelChecker != nil {
		if h.modelChecker.IsCircuitOpen() {
			hasDegradation = true
			response.Checks["model"] = ComponentHealth{
				Status:  "degraded",
				Message: "circuit breaker open, chat replies with fallback",
			}
			h.logger.Warn("model circuit breaker is open")
		} else {
			response.Checks["model"] = ComponentHealth{Status: "healthy"}
		}
	}

	// Sustained server-side error rates surface as degradation.
	if h.errorTracker != nil {
		pct := h.errorTracker.ErrorPercentage()
		check := ComponentHealth{
			Status:  "healthy",
			Message: fmt.Sprintf("%.1f%% errors over the tracked window", pct),
		}
		if pct > 10 {
			hasDegradation = true
			check.Status = "degraded"
		}
		response.Checks["error_rate"] = check
	}

	if hasCriticalFailure {
		response.Status = "unhealthy"
	} else if hasDegradation {
		response.Status = "degraded"
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	JSON(w, r, statusCode, response)
}

// HandleReadiness checks the drain state and the database, the critical
// dependency. A draining server answers 503 so the load balancer routes new
// traffic elsewhere while in-flight requests finish.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.drain != nil && !h.drain.IsReady() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}

	if h.healthChecker != nil {
		if err := h.healthChecker.Ping(ctx); err != nil {
			h.logger.Error("readiness check failed", zap.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// HandleLiveness returns a simple liveness probe response.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
