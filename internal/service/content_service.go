package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/audit"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
	"github.com/LeeSpain/vision-sync-server/internal/middleware"
)

// ContentService handles admin operations on editable page content and the
// agent's training pairs. Both feed rendered surfaces: content sections go
// to the marketing pages, training pairs to the system prompt.
type ContentService struct {
	contentRepo domain.ContentRepository
	agentRepo   domain.AgentRepository
	audit       *audit.Logger
	logger      *zap.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(
	contentRepo domain.ContentRepository,
	agentRepo domain.AgentRepository,
	auditLog *audit.Logger,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		contentRepo: contentRepo,
		agentRepo:   agentRepo,
		audit:       auditLog,
		logger:      logger,
	}
}

// GetSection retrieves a content section by its slug.
func (s *ContentService) GetSection(ctx context.Context, key string) (*domain.ContentSection, error) {
	return s.contentRepo.GetByKey(ctx, key)
}

// ListSections returns every content section.
func (s *ContentService) ListSections(ctx context.Context) ([]*domain.ContentSection, error) {
	return s.contentRepo.List(ctx)
}

// SaveSection creates or replaces a content section.
func (s *ContentService) SaveSection(ctx context.Context, key, title string, body map[string]interface{}) (*domain.ContentSection, error) {
	if key == "" {
		return nil, apperrors.MissingField("key")
	}

	section := domain.NewContentSection(key, title)
	section.Body = body

	if err := s.contentRepo.Upsert(ctx, section); err != nil {
		return nil, apperrors.DatabaseError("save content section", err)
	}

	s.audit.DataChanged(ctx, audit.EventContentUpdated, "content_section", key, middleware.GetRequestID(ctx), map[string]interface{}{
		"title": title,
	})
	s.logger.Info("content section saved", zap.String("key", key))

	return section, nil
}

// DeleteSection removes a content section.
func (s *ContentService) DeleteSection(ctx context.Context, key string) error {
	if err := s.contentRepo.Delete(ctx, key); err != nil {
		return err
	}

	s.audit.DataChanged(ctx, audit.EventContentDeleted, "content_section", key, middleware.GetRequestID(ctx), nil)
	s.logger.Info("content section deleted", zap.String("key", key))

	return nil
}

// ListTrainingPairs returns the agent's training pairs.
func (s *ContentService) ListTrainingPairs(ctx context.Context, activeOnly bool) ([]*domain.TrainingPair, error) {
	return s.agentRepo.ListTrainingPairs(ctx, activeOnly)
}

// CreateTrainingPair adds a question/answer pair to the prompt material.
func (s *ContentService) CreateTrainingPair(ctx context.Context, question, answer string, agentID *uuid.UUID) (*domain.TrainingPair, error) {
	if question == "" {
		return nil, apperrors.MissingField("question")
	}
	if answer == "" {
		return nil, apperrors.MissingField("answer")
	}

	pair := domain.NewTrainingPair(question, answer, agentID)
	if err := s.agentRepo.CreateTrainingPair(ctx, pair); err != nil {
		return nil, apperrors.DatabaseError("create training pair", err)
	}

	s.audit.DataChanged(ctx, audit.EventTrainingPairCreated, "training_pair", pair.ID.String(), middleware.GetRequestID(ctx), nil)
	s.logger.Info("training pair created", zap.String("pair_id", pair.ID.String()))

	return pair, nil
}

// UpdateTrainingPair replaces a pair's question, answer, and active flag.
func (s *ContentService) UpdateTrainingPair(ctx context.Context, id uuid.UUID, question, answer string, active bool) (*domain.TrainingPair, error) {
	if question == "" {
		return nil, apperrors.MissingField("question")
	}
	if answer == "" {
		return nil, apperrors.MissingField("answer")
	}

	pairs, err := s.agentRepo.ListTrainingPairs(ctx, false)
	if err != nil {
		return nil, apperrors.DatabaseError("load training pairs", err)
	}

	var pair *domain.TrainingPair
	for _, p := range pairs {
		if p.ID == id {
			pair = p
			break
		}
	}
	if pair == nil {
		return nil, apperrors.NotFound("training_pair")
	}

	pair.Question = question
	pair.Answer = answer
	pair.Active = active

	if err := s.agentRepo.UpdateTrainingPair(ctx, pair); err != nil {
		return nil, apperrors.DatabaseError("update training pair", err)
	}

	s.audit.DataChanged(ctx, audit.EventTrainingPairUpdated, "training_pair", id.String(), middleware.GetRequestID(ctx), map[string]interface{}{
		"active": active,
	})
	s.logger.Info("training pair updated", zap.String("pair_id", id.String()))

	return pair, nil
}

// DeleteTrainingPair removes a pair from the prompt material.
func (s *ContentService) DeleteTrainingPair(ctx context.Context, id uuid.UUID) error {
	if err := s.agentRepo.DeleteTrainingPair(ctx, id); err != nil {
		return err
	}

	s.audit.DataChanged(ctx, audit.EventTrainingPairDeleted, "training_pair", id.String(), middleware.GetRequestID(ctx), nil)
	s.logger.Info("training pair deleted", zap.String("pair_id", id.String()))

	return nil
}
