package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/audit"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
	"github.com/LeeSpain/vision-sync-server/internal/middleware"
)

// ProjectService handles admin operations on projects and the public
// project listing the marketing pages and the chat agent read.
type ProjectService struct {
	projectRepo domain.ProjectRepository
	audit       *audit.Logger
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo domain.ProjectRepository, auditLog *audit.Logger, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		audit:       auditLog,
		logger:      logger,
	}
}

// ListPublicProjects returns visible projects, optionally narrowed to a
// content section tag.
func (s *ProjectService) ListPublicProjects(ctx context.Context, section string) ([]*domain.Project, error) {
	filter := &domain.ProjectListFilter{VisibleOnly: true, Section: section}
	projects, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.DatabaseError("list projects", err)
	}
	return projects, nil
}

// ListProjects returns all projects for the admin dashboard.
func (s *ProjectService) ListProjects(ctx context.Context, filter *domain.ProjectListFilter) ([]*domain.Project, error) {
	projects, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.DatabaseError("list projects", err)
	}
	return projects, nil
}

// GetProject retrieves a single project.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// ProjectRequest carries the project fields for create and update.
type ProjectRequest struct {
	Title             string                 `json:"title"`
	Description       string                 `json:"description"`
	Category          domain.ProjectCategory `json:"category"`
	Industry          string                 `json:"industry,omitempty"`
	PriceOneTime      *float64               `json:"price_one_time,omitempty"`
	PriceSubscription *float64               `json:"price_subscription,omitempty"`
	InvestmentAmount  *float64               `json:"investment_amount,omitempty"`
	Visible           bool                   `json:"visible"`
	ContentSections   []string               `json:"content_sections,omitempty"`
}

func (r *ProjectRequest) validate() error {
	if r.Title == "" {
		return apperrors.MissingField("title")
	}
	switch r.Category {
	case domain.ProjectCategoryTemplate, domain.ProjectCategoryInvestment, domain.ProjectCategoryCustom:
	default:
		return apperrors.ValidationFailed(fmt.Sprintf("unknown project category %q", r.Category))
	}
	return nil
}

// CreateProject creates a new project listing.
func (s *ProjectService) CreateProject(ctx context.Context, req *ProjectRequest) (*domain.Project, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	project := domain.NewProject(req.Title, req.Description, req.Category)
	applyProjectRequest(project, req)

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, apperrors.DatabaseError("create project", err)
	}

	s.audit.DataChanged(ctx, audit.EventProjectCreated, "project", project.ID.String(), middleware.GetRequestID(ctx), map[string]interface{}{
		"title":    project.Title,
		"category": string(project.Category),
		"visible":  project.Visible,
	})
	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("title", project.Title),
	)

	return project, nil
}

// UpdateProject replaces a project's mutable fields.
func (s *ProjectService) UpdateProject(ctx context.Context, id uuid.UUID, req *ProjectRequest) (*domain.Project, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project.Title = req.Title
	project.Description = req.Description
	project.Category = req.Category
	applyProjectRequest(project, req)

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, apperrors.DatabaseError("update project", err)
	}

	s.audit.DataChanged(ctx, audit.EventProjectUpdated, "project", id.String(), middleware.GetRequestID(ctx), map[string]interface{}{
		"title":   project.Title,
		"visible": project.Visible,
	})
	s.logger.Info("project updated", zap.String("project_id", id.String()))

	return project, nil
}

// DeleteProject removes a project listing.
func (s *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.DataChanged(ctx, audit.EventProjectDeleted, "project", id.String(), middleware.GetRequestID(ctx), nil)
	s.logger.Info("project deleted", zap.String("project_id", id.String()))

	return nil
}

func applyProjectRequest(project *domain.Project, req *ProjectRequest) {
	project.Industry = req.Industry
	project.PriceOneTime = req.PriceOneTime
	project.PriceSubscription = req.PriceSubscription
	project.InvestmentAmount = req.InvestmentAmount
	project.Visible = req.Visible
	project.ContentSections = req.ContentSections
}
