package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

const conversationColumns = `
	id, session_id, agent_id, turns, status, lead_qualified,
	conversion_score, lead_id, created_at, updated_at`

// ConversationRepository implements domain.ConversationRepository using PostgreSQL.
type ConversationRepository struct {
	db DB
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(db DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Upsert inserts or fully replaces the row for the conversation's session.
// The write is last-writer-wins except for lead_id: an existing lead
// reference is preserved when the incoming row carries none.
func (r *ConversationRepository) Upsert(ctx context.Context, conv *domain.Conversation) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	conv.UpdatedAt = time.Now().UTC()

	turnsJSON, err := json.Marshal(conv.Turns)
	if err != nil {
		return fmt.Errorf("failed to marshal turns: %w", err)
	}

	query := `
		INSERT INTO conversations (
			id, session_id, agent_id, turns, status, lead_qualified,
			conversion_score, lead_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id) DO UPDATE SET
			agent_id = EXCLUDED.agent_id,
			turns = EXCLUDED.turns,
			status = EXCLUDED.status,
			lead_qualified = EXCLUDED.lead_qualified,
			conversion_score = EXCLUDED.conversion_score,
			lead_id = COALESCE(EXCLUDED.lead_id, conversations.lead_id),
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		conv.ID,
		conv.SessionID,
		conv.AgentID,
		turnsJSON,
		conv.Status,
		conv.LeadQualified,
		conv.ConversionScore,
		conv.LeadID,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	return nil
}

// GetBySessionID retrieves a conversation by its session identifier.
func (r *ConversationRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + conversationColumns + ` FROM conversations WHERE session_id = $1`
	return r.scanConversation(ctx, query, sessionID)
}

// GetByID retrieves a conversation by its internal ID.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + conversationColumns + ` FROM conversations WHERE id = $1`
	return r.scanConversation(ctx, query, id)
}

// List retrieves conversations with pagination, newest first.
func (r *ConversationRepository) List(ctx context.Context, filter *domain.ConversationListFilter, limit, offset int) ([]*domain.Conversation, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where, args := conversationFilterClause(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT`+conversationColumns+`
		FROM conversations %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	return r.scanConversations(ctx, query, args...)
}

// Count returns the number of conversations matching the filter.
func (r *ConversationRepository) Count(ctx context.Context, filter *domain.ConversationListFilter) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	where, args := conversationFilterClause(filter)
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM conversations "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// SetStatus updates only the lifecycle status of a conversation.
func (r *ConversationRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.db.Exec(ctx,
		`UPDATE conversations SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCreatedSince returns conversations created at or after the cutoff.
func (r *ConversationRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*domain.Conversation, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + conversationColumns + `
		FROM conversations
		WHERE created_at >= $1
		ORDER BY created_at ASC`
	return r.scanConversations(ctx, query, since)
}

func conversationFilterClause(filter *domain.ConversationListFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var clauses []string
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Qualified != nil {
		args = append(args, *filter.Qualified)
		clauses = append(clauses, fmt.Sprintf("lead_qualified = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ConversationRepository) scanConversation(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	conv := &domain.Conversation{}
	var turnsJSON []byte

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&conv.ID,
		&conv.SessionID,
		&conv.AgentID,
		&turnsJSON,
		&conv.Status,
		&conv.LeadQualified,
		&conv.ConversionScore,
		&conv.LeadID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	if len(turnsJSON) > 0 {
		if err := json.Unmarshal(turnsJSON, &conv.Turns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turns: %w", err)
		}
	}

	return conv, nil
}

func (r *ConversationRepository) scanConversations(ctx context.Context, query string, args ...any) ([]*domain.Conversation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conv := &domain.Conversation{}
		var turnsJSON []byte

		err := rows.Scan(
			&conv.ID,
			&conv.SessionID,
			&conv.AgentID,
			&turnsJSON,
			&conv.Status,
			&conv.LeadQualified,
			&conv.ConversionScore,
			&conv.LeadID,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}

		if len(turnsJSON) > 0 {
			if err := json.Unmarshal(turnsJSON, &conv.Turns); err != nil {
				return nil, fmt.Errorf("failed to unmarshal turns: %w", err)
			}
		}

		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return conversations, nil
}
