package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConversationRepository defines persistence for chat conversations.
type ConversationRepository interface {
	// Upsert inserts the conversation or replaces the full row, keyed by
	// session_id. Last-writer-wins; an existing lead reference survives an
	// upsert that carries none.
	Upsert(ctx context.Context, conv *Conversation) error

	// GetBySessionID retrieves a conversation by its session identifier.
	GetBySessionID(ctx context.Context, sessionID string) (*Conversation, error)

	// GetByID retrieves a conversation by its internal ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// List retrieves conversations with pagination, newest first.
	List(ctx context.Context, filter *ConversationListFilter, limit, offset int) ([]*Conversation, error)

	// Count returns the number of conversations matching the filter.
	Count(ctx context.Context, filter *ConversationListFilter) (int, error)

	// SetStatus updates only the lifecycle status of a conversation.
	SetStatus(ctx context.Context, id uuid.UUID, status ConversationStatus) error

	// ListCreatedSince returns conversations created at or after the cutoff,
	// for dashboard aggregation.
	ListCreatedSince(ctx context.Context, since time.Time) ([]*Conversation, error)
}

// LeadRepository defines persistence for leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	Update(ctx context.Context, lead *Lead) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *LeadListFilter, limit, offset int) ([]*Lead, error)
	Count(ctx context.Context, filter *LeadListFilter) (int, error)

	// ListCreatedSince returns leads created at or after the cutoff.
	ListCreatedSince(ctx context.Context, since time.Time) ([]*Lead, error)
}

// ProjectRepository defines persistence for site projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *ProjectListFilter) ([]*Project, error)
}

// AgentRepository defines persistence for chat agents and training pairs.
type AgentRepository interface {
	GetActive(ctx context.Context) (*Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Agent, error)

	ListTrainingPairs(ctx context.Context, activeOnly bool) ([]*TrainingPair, error)
	CreateTrainingPair(ctx context.Context, pair *TrainingPair) error
	UpdateTrainingPair(ctx context.Context, pair *TrainingPair) error
	DeleteTrainingPair(ctx context.Context, id uuid.UUID) error
}

// ContentRepository defines persistence for editable content sections.
type ContentRepository interface {
	GetByKey(ctx context.Context, key string) (*ContentSection, error)
	List(ctx context.Context) ([]*ContentSection, error)
	Upsert(ctx context.Context, section *ContentSection) error
	Delete(ctx context.Context, key string) error
}

// SettingsRepository defines persistence for stored configuration.
type SettingsRepository interface {
	// Get retrieves a setting by key; returns nil (no error) when absent.
	Get(ctx context.Context, key string) (*Setting, error)
	GetAll(ctx context.Context) ([]*Setting, error)
	Set(ctx context.Context, key, value string) error

	// SetMany stores multiple settings atomically.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, key string) error
}

// AnalyticsRepository defines persistence for raw analytics events.
type AnalyticsRepository interface {
	Insert(ctx context.Context, event *AnalyticsEvent) error

	// ListSince returns events created at or after the cutoff, oldest first.
	ListSince(ctx context.Context, since time.Time) ([]*AnalyticsEvent, error)
}
