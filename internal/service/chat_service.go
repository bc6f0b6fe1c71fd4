// Package service contains business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/ai"
	"github.com/LeeSpain/vision-sync-server/internal/audit"
	"github.com/LeeSpain/vision-sync-server/internal/config"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
	apperrors "github.com/LeeSpain/vision-sync-server/internal/errors"
	"github.com/LeeSpain/vision-sync-server/internal/metrics"
	"github.com/LeeSpain/vision-sync-server/internal/middleware"
	"github.com/LeeSpain/vision-sync-server/internal/qualify"
	"github.com/LeeSpain/vision-sync-server/internal/ratelimit"
	"github.com/LeeSpain/vision-sync-server/internal/repository"
	"github.com/LeeSpain/vision-sync-server/internal/validation"
)

// FallbackResponse is returned to the widget when the model call fails.
const FallbackResponse = "I'm experiencing technical difficulties right now. Please try again in a moment, or reach out through our contact form."

// ChatCompleter defines the interface for the language model client.
type ChatCompleter interface {
	Chat(ctx context.Context, req ai.ChatRequest) (string, error)
}

// ContactExtractor pulls contact fields out of a turn history. Kept behind
// an interface so the regex heuristic can be swapped for something smarter
// without touching the orchestrator.
type ContactExtractor interface {
	Extract(turns []domain.Turn) qualify.ContactInfo
}

// ChatRequest is one inbound widget message.
type ChatRequest struct {
	Message   string        `json:"message"`
	SessionID string        `json:"sessionId"`
	AgentID   string        `json:"agentId,omitempty"`
	History   []domain.Turn `json:"conversationHistory,omitempty"`
}

// ChatResponse is what the widget receives back.
type ChatResponse struct {
	Response        string              `json:"response"`
	Qualified       bool                `json:"qualified"`
	SessionID       string              `json:"sessionId"`
	ConversionScore int                 `json:"conversionScore"`
	ContactInfo     qualify.ContactInfo `json:"contactInfo"`
	LeadCreated     bool                `json:"leadCreated"`
}

// ChatService orchestrates one chat turn: load state, extract contact,
// build the prompt, call the model, score, materialize a lead when earned,
// and persist the conversation.
type ChatService struct {
	convRepo    domain.ConversationRepository
	leadRepo    domain.LeadRepository
	agentRepo   domain.AgentRepository
	projectRepo domain.ProjectRepository
	settings    *SettingsService
	completer   ChatCompleter
	extractor   ContactExtractor
	limiter     *ratelimit.ModelLimiter
	notifier    ChangeNotifier
	chatCfg     config.ChatConfig
	metrics     *metrics.Metrics
	audit       *audit.Logger
	logger      *zap.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(
	convRepo domain.ConversationRepository,
	leadRepo domain.LeadRepository,
	agentRepo domain.AgentRepository,
	projectRepo domain.ProjectRepository,
	settings *SettingsService,
	completer ChatCompleter,
	extractor ContactExtractor,
	limiter *ratelimit.ModelLimiter,
	notifier ChangeNotifier,
	chatCfg config.ChatConfig,
	m *metrics.Metrics,
	auditLog *audit.Logger,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		convRepo:    convRepo,
		leadRepo:    leadRepo,
		agentRepo:   agentRepo,
		projectRepo: projectRepo,
		settings:    settings,
		completer:   completer,
		extractor:   extractor,
		limiter:     limiter,
		notifier:    notifier,
		chatCfg:     chatCfg,
		metrics:     m,
		audit:       auditLog,
		logger:      logger,
	}
}

// HandleMessage processes one visitor message end to end. Persistence
// failures after the model replied are logged and swallowed: the reply
// already exists and bookkeeping is best-effort.
func (s *ChatService) HandleMessage(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	// 1. Validate. Nothing is written before this passes.
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.ValidationFailed("message must not be empty")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, apperrors.MissingField("sessionId")
	}
	if maxLen := s.chatCfg.MaxMessageLength; maxLen > 0 && len(req.Message) > maxLen {
		return nil, apperrors.ValidationFailed(fmt.Sprintf("message exceeds %d characters", maxLen))
	}
	mv := validation.NewChatMessageValidator()
	mv.ValidateSessionID(req.SessionID)
	mv.ValidateMessage(req.Message)
	if !mv.IsValid() {
		return nil, apperrors.ValidationFailed(mv.Errors().Error())
	}

	logger := s.logger.With(zap.String("session_id", req.SessionID))

	// 2. Load prior conversation; absent on first turn.
	conv, err := s.convRepo.GetBySessionID(ctx, req.SessionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordChatMessage(false, time.Since(start))
		return nil, apperrors.DatabaseError("load conversation", err)
	}
	if conv == nil {
		conv = domain.NewConversation(req.SessionID)
		// Widget-supplied history seeds a conversation the server has not
		// seen, e.g. after a retention purge.
		conv.Turns = append(conv.Turns, req.History...)
	}

	// 3. Load business context.
	bc, err := s.loadContext(ctx)
	if err != nil {
		s.metrics.RecordChatMessage(false, time.Since(start))
		return nil, err
	}
	if conv.AgentID == nil && bc.agent != nil {
		agentID := bc.agent.ID
		conv.AgentID = &agentID
	}

	conv.AppendTurn("user", req.Message)

	// 4. Extract contact from prior plus current history.
	contact := s.extractor.Extract(conv.Turns)

	// 5. Build the system prompt.
	prompt := BuildSystemPrompt(PromptContext{
		Agent:               bc.agent,
		Settings:            bc.settings,
		TrainingPairs:       bc.trainingPairs,
		Projects:            bc.projects,
		UserTurns:           conv.UserTurnCount(),
		Contact:             contact,
		ContactAskThreshold: s.chatCfg.ContactAskThreshold,
	})

	// 6. Call the model. Failure is fatal for this turn; the caller maps it
	// to a non-2xx response carrying the fallback text.
	reply, err := s.callModel(ctx, conv, bc, prompt, logger)
	if err != nil {
		s.metrics.RecordChatFallback()
		s.audit.ModelCallFailed(ctx, req.SessionID, middleware.GetRequestID(ctx), err.Error())
		logger.Error("model call failed", zap.Error(err))
		return nil, apperrors.ModelError(err)
	}

	conv.AppendTurn("assistant", reply)

	// 7. Re-extract and score with the model's reply included. The stored
	// score is a running maximum and qualification is sticky: a low-signal
	// closing turn ("ok thanks") must not demote a session that already
	// qualified, possibly with a lead materialized.
	contact = s.extractor.Extract(conv.Turns)
	score := qualify.ScoreConversation(contact, req.Message)
	if score.Value > conv.ConversionScore {
		conv.ConversionScore = score.Value
	}
	conv.LeadQualified = conv.LeadQualified || score.Qualified
	s.recordExtraction(contact, score)

	// 8. Materialize a lead when the conversation has earned one.
	leadCreated := s.maybeCreateLead(ctx, conv, contact, score, logger)

	// 9. Persist. Errors here are logged, not surfaced.
	if err := s.convRepo.Upsert(ctx, conv); err != nil {
		logger.Error("failed to persist conversation", zap.Error(err))
	} else if s.notifier != nil {
		s.notifier.Notify()
	}

	s.metrics.RecordChatMessage(true, time.Since(start))

	// 10. Respond with the stored state, not this turn's raw score, so the
	// widget never sees qualification regress mid-session.
	return &ChatResponse{
		Response:        reply,
		Qualified:       conv.LeadQualified,
		SessionID:       req.SessionID,
		ConversionScore: conv.ConversionScore,
		ContactInfo:     contact,
		LeadCreated:     leadCreated,
	}, nil
}

// businessContext is everything the prompt and model call need beyond the
// conversation itself.
type businessContext struct {
	agent         *domain.Agent
	settings      *domain.ChatSettings
	trainingPairs []*domain.TrainingPair
	projects      []*domain.Project
}

// loadContext assembles agent, settings, training pairs, and the visible
// project list. A missing agent is tolerated; missing settings are not,
// because the model credential may live there.
func (s *ChatService) loadContext(ctx context.Context) (*businessContext, error) {
	settings, err := s.settings.GetChatSettings(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("load settings", err)
	}

	agent, err := s.agentRepo.GetActive(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.DatabaseError("load agent", err)
	}

	pairs, err := s.agentRepo.ListTrainingPairs(ctx, true)
	if err != nil {
		return nil, apperrors.DatabaseError("load training pairs", err)
	}

	projects, err := s.projectRepo.List(ctx, &domain.ProjectListFilter{VisibleOnly: true})
	if err != nil {
		return nil, apperrors.DatabaseError("load projects", err)
	}

	return &businessContext{
		agent:         agent,
		settings:      settings,
		trainingPairs: pairs,
		projects:      projects,
	}, nil
}

// callModel sends the system prompt plus the recent turn window to the
// model. Stored settings take precedence over process configuration for
// both credential and model name.
func (s *ChatService) callModel(ctx context.Context, conv *domain.Conversation, bc *businessContext, prompt string, logger *zap.Logger) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			s.metrics.RecordRateLimitHit("model")
			return "", fmt.Errorf("model call rate limited: %w", err)
		}
		defer s.limiter.Release()
	}

	window := s.chatCfg.HistoryWindow
	if window <= 0 {
		window = 10
	}

	// The current user message is already in conv.Turns, so the window is
	// the newest `window` turns including the message being answered.
	recent := conv.RecentTurns(window)
	messages := make([]ai.Message, 0, len(recent))
	for _, turn := range recent {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}

	start := time.Now()
	reply, err := s.completer.Chat(ctx, ai.ChatRequest{
		APIKey:   bc.settings.ModelAPIKey,
		Model:    bc.settings.ModelName,
		System:   prompt,
		Messages: messages,
	})
	s.metrics.RecordModelCall(err == nil, time.Since(start))
	if err != nil {
		return "", err
	}

	logger.Debug("model replied",
		zap.Int("history_turns", len(messages)),
		zap.Int("reply_length", len(reply)),
	)

	return reply, nil
}

// maybeCreateLead materializes a lead iff an email was extracted and the
// conversation does not already reference one. The check is best-effort,
// not a hard uniqueness guarantee; a single browser tab owns the session,
// so concurrent first messages are not a supported scenario.
func (s *ChatService) maybeCreateLead(ctx context.Context, conv *domain.Conversation, contact qualify.ContactInfo, score qualify.Score, logger *zap.Logger) bool {
	if !contact.HasEmail() || conv.HasLead() {
		return false
	}

	priority := domain.LeadPriorityMedium
	if contact.HasName() {
		priority = domain.LeadPriorityHigh
	}

	lead := domain.NewLead(contact.Email, domain.LeadSourceAIAgent, priority)
	if contact.HasName() {
		name := contact.Name
		lead.Name = &name
	}
	if contact.HasPhone() {
		phone := contact.Phone
		lead.Phone = &phone
	}
	lead.FormData = map[string]interface{}{
		"session_id":       conv.SessionID,
		"conversion_score": score.Value,
		"qualified":        score.Qualified,
		"message_count":    len(conv.Turns),
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		logger.Error("failed to materialize lead", zap.Error(err))
		return false
	}

	leadID := lead.ID
	conv.LeadID = &leadID

	s.metrics.RecordLeadMaterialized()
	s.audit.LeadMaterialized(ctx, lead.ID.String(), conv.SessionID, score.Value)
	logger.Info("lead materialized",
		zap.String("lead_id", lead.ID.String()),
		zap.String("priority", string(priority)),
		zap.Int("score", score.Value),
	)

	return true
}

func (s *ChatService) recordExtraction(contact qualify.ContactInfo, score qualify.Score) {
	if contact.HasEmail() {
		s.metrics.RecordContactField("email")
	}
	if contact.HasPhone() {
		s.metrics.RecordContactField("phone")
	}
	if contact.HasName() {
		s.metrics.RecordContactField("name")
	}
	s.metrics.RecordConversionScore(score.Value, score.Qualified)
}
