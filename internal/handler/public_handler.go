package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/service"
)

// PublicHandler serves the unauthenticated site endpoints: the visible
// project catalogue and analytics event ingest.
type PublicHandler struct {
	projects  *service.ProjectService
	analytics *service.AnalyticsService
	logger    *zap.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(projects *service.ProjectService, analytics *service.AnalyticsService, logger *zap.Logger) *PublicHandler {
	if logger == nil {
		panic("logger is required")
	}
	return &PublicHandler{
		projects:  projects,
		analytics: analytics,
		logger:    logger,
	}
}

// RegisterRoutes registers the public routes on the router.
func (h *PublicHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/projects", h.HandleListProjects)
	r.Post("/api/analytics/events", h.HandleRecordEvent)
}

// HandleListProjects returns the visible project catalogue, optionally
// narrowed to one content section via ?section=.
func (h *PublicHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")

	projects, err := h.projects.ListPublicProjects(r.Context(), section)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]interface{}{
		"projects": projects,
	})
}

// HandleRecordEvent ingests one page-view or conversion event.
func (h *PublicHandler) HandleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var req service.RecordEventRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	if err := h.analytics.Record(r.Context(), &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusAccepted, map[string]string{"status": "recorded"})
}
