package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/audit"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
	"github.com/LeeSpain/vision-sync-server/internal/middleware"
	"github.com/LeeSpain/vision-sync-server/internal/validation"
)

// ConversationService exposes the chat transcript store to the back office.
// Writes happen on the chat path; this surface only lists, inspects, and
// ends conversations.
type ConversationService struct {
	convRepo domain.ConversationRepository
	audit    *audit.Logger
	logger   *zap.Logger
}

// NewConversationService creates a new ConversationService.
func NewConversationService(convRepo domain.ConversationRepository, auditLog *audit.Logger, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		convRepo: convRepo,
		audit:    auditLog,
		logger:   logger,
	}
}

// ConversationListResult is one page of conversations plus the total count.
type ConversationListResult struct {
	Conversations []*domain.Conversation `json:"conversations"`
	Total         int                    `json:"total"`
}

// ListConversations returns a page of conversations, newest first.
func (s *ConversationService) ListConversations(ctx context.Context, filter *domain.ConversationListFilter, limit, offset int) (*ConversationListResult, error) {
	page := validation.NormalizePagination(limit, offset, nil)

	conversations, err := s.convRepo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError("list conversations", err)
	}

	total, err := s.convRepo.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.DatabaseError("count conversations", err)
	}

	return &ConversationListResult{Conversations: conversations, Total: total}, nil
}

// GetConversation retrieves a single conversation with its full transcript.
func (s *ConversationService) GetConversation(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return s.convRepo.GetByID(ctx, id)
}

// EndConversation marks a conversation as ended. Ending an already ended
// conversation is a no-op, not an error.
func (s *ConversationService) EndConversation(ctx context.Context, id uuid.UUID) error {
	if err := s.convRepo.SetStatus(ctx, id, domain.ConversationStatusEnded); err != nil {
		return err
	}

	s.audit.DataChanged(ctx, audit.EventConversationEnded, "conversation", id.String(), middleware.GetRequestID(ctx), nil)
	s.logger.Info("conversation ended", zap.String("conversation_id", id.String()))

	return nil
}
