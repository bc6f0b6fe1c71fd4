package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
	"github.com/LeeSpain/vision-sync-server/internal/service"
)

// HandleListProjects returns every project, hidden ones included.
func (h *AdminHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	filter := &domain.ProjectListFilter{}
	if v := r.URL.Query().Get("category"); v != "" {
		category := domain.ProjectCategory(v)
		filter.Category = &category
	}

	projects, err := h.projects.ListProjects(r.Context(), filter)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]interface{}{
		"projects": projects,
	})
}

// HandleCreateProject creates a project listing.
func (h *AdminHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req service.ProjectRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.CreateProject(r.Context(), &req)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusCreated, project)
}

// HandleGetProject returns one project.
func (h *AdminHandler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, project)
}

// HandleUpdateProject replaces a project's mutable fields.
func (h *AdminHandler) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	var req service.ProjectRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.UpdateProject(r.Context(), id, &req)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, project)
}

// HandleDeleteProject removes a project listing.
func (h *AdminHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	if err := h.projects.DeleteProject(r.Context(), id); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleListSections returns every editable content section.
func (h *AdminHandler) HandleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.content.ListSections(r.Context())
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]interface{}{
		"sections": sections,
	})
}

// HandleGetSection returns one content section by slug.
func (h *AdminHandler) HandleGetSection(w http.ResponseWriter, r *http.Request) {
	section, err := h.content.GetSection(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, section)
}

// SaveSectionRequest is the body for content section upserts.
type SaveSectionRequest struct {
	Title string                 `json:"title"`
	Body  map[string]interface{} `json:"body,omitempty"`
}

// HandleSaveSection creates or replaces a content section.
func (h *AdminHandler) HandleSaveSection(w http.ResponseWriter, r *http.Request) {
	var req SaveSectionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	section, err := h.content.SaveSection(r.Context(), chi.URLParam(r, "key"), req.Title, req.Body)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, section)
}

// HandleDeleteSection removes a content section.
func (h *AdminHandler) HandleDeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteSection(r.Context(), chi.URLParam(r, "key")); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// TrainingPairRequest is the body for training pair writes.
type TrainingPairRequest struct {
	Question string     `json:"question"`
	Answer   string     `json:"answer"`
	AgentID  *uuid.UUID `json:"agent_id,omitempty"`
	Active   bool       `json:"active"`
}

// HandleListTrainingPairs returns the training material, inactive pairs
// included unless ?active=true.
func (h *AdminHandler) HandleListTrainingPairs(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	pairs, err := h.content.ListTrainingPairs(r.Context(), activeOnly)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]interface{}{
		"training_pairs": pairs,
	})
}

// HandleCreateTrainingPair adds a question/answer pair.
func (h *AdminHandler) HandleCreateTrainingPair(w http.ResponseWriter, r *http.Request) {
	var req TrainingPairRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	pair, err := h.content.CreateTrainingPair(r.Context(), req.Question, req.Answer, req.AgentID)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusCreated, pair)
}

// HandleUpdateTrainingPair replaces a pair's question, answer, and active
// flag.
func (h *AdminHandler) HandleUpdateTrainingPair(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	var req TrainingPairRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	pair, err := h.content.UpdateTrainingPair(r.Context(), id, req.Question, req.Answer, req.Active)
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, pair)
}

// HandleDeleteTrainingPair removes a pair.
func (h *AdminHandler) HandleDeleteTrainingPair(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamUUID(r, "id")
	if err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	if err := h.content.DeleteTrainingPair(r.Context(), id); err != nil {
		ServiceError(w, r, h.logger, err)
		return
	}

	JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}
