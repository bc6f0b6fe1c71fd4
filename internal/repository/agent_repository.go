package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

const agentColumns = `
	id, name, role, personality, welcome_message, active, created_at, updated_at`

const trainingPairColumns = `
	id, agent_id, question, answer, active, created_at, updated_at`

// AgentRepository implements domain.AgentRepository using PostgreSQL.
type AgentRepository struct {
	db DB
}

// NewAgentRepository creates a new AgentRepository.
func NewAgentRepository(db DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// GetActive returns the most recently updated active agent.
func (r *AgentRepository) GetActive(ctx context.Context) (*domain.Agent, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + agentColumns + `
		FROM agents
		WHERE active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1`

	return r.scanAgent(ctx, query)
}

// GetByID retrieves an agent by its ID.
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + agentColumns + ` FROM agents WHERE id = $1`
	return r.scanAgent(ctx, query, id)
}

// ListTrainingPairs returns training pairs, optionally only active ones.
func (r *AgentRepository) ListTrainingPairs(ctx context.Context, activeOnly bool) ([]*domain.TrainingPair, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + trainingPairColumns + ` FROM training_pairs`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query training pairs: %w", err)
	}
	defer rows.Close()

	var pairs []*domain.TrainingPair
	for rows.Next() {
		pair := &domain.TrainingPair{}
		if err := rows.Scan(
			&pair.ID,
			&pair.AgentID,
			&pair.Question,
			&pair.Answer,
			&pair.Active,
			&pair.CreatedAt,
			&pair.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan training pair: %w", err)
		}
		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training pair rows: %w", err)
	}

	return pairs, nil
}

// CreateTrainingPair inserts a new training pair.
func (r *AgentRepository) CreateTrainingPair(ctx context.Context, pair *domain.TrainingPair) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO training_pairs (
			id, agent_id, question, answer, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		pair.ID,
		pair.AgentID,
		pair.Question,
		pair.Answer,
		pair.Active,
		pair.CreatedAt,
		pair.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert training pair: %w", err)
	}
	return nil
}

// UpdateTrainingPair replaces the mutable fields of a training pair.
func (r *AgentRepository) UpdateTrainingPair(ctx context.Context, pair *domain.TrainingPair) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	pair.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE training_pairs SET
			agent_id = $2,
			question = $3,
			answer = $4,
			active = $5,
			updated_at = $6
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		pair.ID,
		pair.AgentID,
		pair.Question,
		pair.Answer,
		pair.Active,
		pair.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update training pair: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTrainingPair removes a training pair.
func (r *AgentRepository) DeleteTrainingPair(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM training_pairs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete training pair: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AgentRepository) scanAgent(ctx context.Context, query string, args ...any) (*domain.Agent, error) {
	agent := &domain.Agent{}
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&agent.ID,
		&agent.Name,
		&agent.Role,
		&agent.Personality,
		&agent.WelcomeMessage,
		&agent.Active,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}
	return agent, nil
}
