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
	"github.com/LeeSpain/vision-sync-server/internal/validation"
)

// LeadService handles admin operations on leads.
type LeadService struct {
	leadRepo domain.LeadRepository
	audit    *audit.Logger
	logger   *zap.Logger
}

// NewLeadService creates a new LeadService.
func NewLeadService(leadRepo domain.LeadRepository, auditLog *audit.Logger, logger *zap.Logger) *LeadService {
	return &LeadService{
		leadRepo: leadRepo,
		audit:    auditLog,
		logger:   logger,
	}
}

// LeadListResult is one page of leads plus the unpaged total.
type LeadListResult struct {
	Leads []*domain.Lead `json:"leads"`
	Total int            `json:"total"`
}

// ListLeads returns a page of leads, newest first.
func (s *LeadService) ListLeads(ctx context.Context, filter *domain.LeadListFilter, limit, offset int) (*LeadListResult, error) {
	page := validation.NormalizePagination(limit, offset, nil)

	leads, err := s.leadRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError("list leads", err)
	}

	total, err := s.leadRepo.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.DatabaseError("count leads", err)
	}

	return &LeadListResult{Leads: leads, Total: total}, nil
}

// GetLead retrieves a single lead.
func (s *LeadService) GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// UpdateLeadRequest carries the mutable lead fields. Nil means unchanged.
type UpdateLeadRequest struct {
	Name     *string              `json:"name,omitempty"`
	Phone    *string              `json:"phone,omitempty"`
	Status   *domain.LeadStatus   `json:"status,omitempty"`
	Priority *domain.LeadPriority `json:"priority,omitempty"`
}

// UpdateLead applies a partial update to a lead.
func (s *LeadService) UpdateLead(ctx context.Context, id uuid.UUID, req *UpdateLeadRequest) (*domain.Lead, error) {
	if req.Status != nil && !domain.ValidLeadStatus(*req.Status) {
		return nil, apperrors.ValidationFailed(fmt.Sprintf("unknown lead status %q", *req.Status))
	}
	if req.Priority != nil && !domain.ValidLeadPriority(*req.Priority) {
		return nil, apperrors.ValidationFailed(fmt.Sprintf("unknown lead priority %q", *req.Priority))
	}

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]interface{})
	if req.Name != nil {
		lead.Name = req.Name
		changes["name"] = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = req.Phone
		changes["phone"] = *req.Phone
	}
	if req.Status != nil {
		changes["status"] = string(*req.Status)
		lead.Status = *req.Status
	}
	if req.Priority != nil {
		changes["priority"] = string(*req.Priority)
		lead.Priority = *req.Priority
	}
	if len(changes) == 0 {
		return lead, nil
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, apperrors.DatabaseError("update lead", err)
	}

	s.audit.DataChanged(ctx, audit.EventLeadUpdated, "lead", id.String(), middleware.GetRequestID(ctx), changes)
	s.logger.Info("lead updated",
		zap.String("lead_id", id.String()),
		zap.Int("changed_fields", len(changes)),
	)

	return lead, nil
}

// DeleteLead removes a lead permanently.
func (s *LeadService) DeleteLead(ctx context.Context, id uuid.UUID) error {
	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.DataChanged(ctx, audit.EventLeadDeleted, "lead", id.String(), middleware.GetRequestID(ctx), nil)
	s.logger.Info("lead deleted", zap.String("lead_id", id.String()))

	return nil
}
