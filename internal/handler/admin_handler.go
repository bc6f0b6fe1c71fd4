package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
	"github.com/LeeSpain/vision-sync-server/internal/service"
)

// SnapshotProvider hands out the latest dashboard snapshot.
type SnapshotProvider interface {
	Snapshot() *service.DashboardSnapshot
}

// AdminHandler serves the authenticated back-office JSON API.
type AdminHandler struct {
	leads         *service.LeadService
	projects      *service.ProjectService
	conversations *service.ConversationService
	content       *service.ContentService
	settings      *service.SettingsService
	dashboard     SnapshotProvider
	logger        *zap.Logger
}

// AdminHandlerConfig holds the dependencies for AdminHandler.
type AdminHandlerConfig struct {
	Leads         *service.LeadService
	Projects      *service.ProjectService
	Conversations *service.ConversationService
	Content       *service.ContentService
	Settings      *service.SettingsService
	Dashboard     SnapshotProvider
	Logger        *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminHandlerConfig) *AdminHandler {
	if cfg.Logger == nil {
		panic("logger is required")
	}
	return &AdminHandler{
		leads:         cfg.Leads,
		projects:      cfg.Projects,
		conversations: cfg.Conversations,
		content:       cfg.Content,
		settings:      cfg.Settings,
		dashboard:     cfg.Dashboard,
		logger:        cfg.Logger,
	}
}

// RegisterRoutes registers the admin API routes. The caller wraps the
// router in the bearer-token middleware.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/api", func(r chi.Router) {
		r.Get("/leads", h.HandleListLeads)
		r.Get("/leads/{id}", h.HandleGetLead)
		r.Put("/leads/{id}", h.HandleUpdateLead)
		r.Delete("/leads/{id}", h.HandleDeleteLead)

		r.Get("/projects", h.HandleListProjects)
		r.Post("/projects", h.HandleCreateProject)
		r.Get("/projects/{id}", h.HandleGetProject)
		r.Put("/projects/{id}", h.HandleUpdateProject)
		r.Delete("/projects/{id}", h.HandleDeleteProject)

		r.Get("/conversations", h.HandleListConversations)
		r.Get("/conversations/{id}", h.HandleGetConversation)
		r.Post("/conversations/{id}/end", h.HandleEndConversation)

		r.Get("/content", h.HandleListSections)
		r.Get("/content/{key}", h.HandleGetSection)
		r.Put("/content/{key}", h.HandleSaveSection)
		r.Delete("/content/{key}", h.HandleDeleteSection)

		r.Get("/training", h.HandleListTrainingPairs)
		r.Post("/training", h.HandleCreateTrainingPair)
		r.Put("/training/{id}", h.HandleUpdateTrainingPair)
		r.Delete("/training/{id}", h.HandleDeleteTrainingPair)

		r.Get("/settings", h.HandleGetSettings)
		r.Put("/settings/chat", h.HandleSaveChatSettings)
		r.Put("/settings/{key}", h.HandleSetSetting)
		r.Delete("/settings/{key}", h.HandleDeleteSetting)

		r.Get("/dashboard", h.HandleDashboard)
	})
}

// pagination pulls limit/offset query parameters; the services clamp them.
func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// HandleListLeads returns a page of leads, optionally filtered by status,
// source, or priority.
func (h *AdminHandler) HandleListLeads(w http.ResponseWriter, r *http.Request) {
	filter := &domain.LeadListFilter{}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := domain.LeadStatus(v)
		filter.Status = &status
	}
	if v := q.Get("source"); v != "" {
		source := domain.LeadSource(v)
		filter.Source = &source
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.LeadPriority(v)
		filter.Priority = &priority
	}

	limit, offset := pagination(r)
	result, err := h.leads.ListLeads(r.Context(), filter, limit, offset)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, result)
}

// HandleGetLead returns one lead.
func (h *AdminHandler) HandleGetLead(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	lead, err := h.leads.GetLead(r.Context(), id)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, lead)
}

// HandleUpdateLead applies a partial update to a lead.
func (h *AdminHandler) HandleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	var req service.UpdateLeadRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	lead, err := h.leads.UpdateLead(r.Context(), id, &req)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, lead)
}

// HandleDeleteLead removes a lead.
func (h *AdminHandler) HandleDeleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	if err := h.leads.DeleteLead(r.Context(), id); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleListConversations returns a page of conversations.
func (h *AdminHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	filter := &domain.ConversationListFilter{}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := domain.ConversationStatus(v)
		filter.Status = &status
	}
	if v := q.Get("qualified"); v != "" {
		qualified := v == "true"
		filter.Qualified = &qualified
	}

	limit, offset := pagination(r)
	result, err := h.conversations.ListConversations(r.Context(), filter, limit, offset)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, result)
}

// HandleGetConversation returns one conversation with its transcript.
func (h *AdminHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	conv, err := h.conversations.GetConversation(r.Context(), id)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, conv)
}

// HandleEndConversation marks a conversation as ended.
func (h *AdminHandler) HandleEndConversation(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	if err := h.conversations.EndConversation(r.Context(), id); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "ended"})
}

// HandleDashboard serves the latest dashboard snapshot.
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot := h.dashboard.Snapshot()
	if snapshot == nil {
		APIError(w, r, http.StatusServiceUnavailable, "dashboard snapshot not ready")
		return
	}

	JSON(w, r, http.StatusOK, snapshot)
}
