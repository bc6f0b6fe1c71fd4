package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

// AnalyticsRepository implements domain.AnalyticsRepository using PostgreSQL.
type AnalyticsRepository struct {
	db DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(db DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Insert records a raw analytics event. Events are append-only.
func (r *AnalyticsRepository) Insert(ctx context.Context, event *domain.AnalyticsEvent) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	query := `
		INSERT INTO analytics_events (
			id, event_type, page, project_id, session_id, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.Page,
		event.ProjectID,
		event.SessionID,
		metadata,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	return nil
}

// ListSince returns events created at or after the cutoff, oldest first.
func (r *AnalyticsRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.AnalyticsEvent, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, event_type, page, project_id, session_id, metadata, created_at
		FROM analytics_events
		WHERE created_at >= $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AnalyticsEvent
	for rows.Next() {
		event := &domain.AnalyticsEvent{}
		var metadata []byte

		if err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.Page,
			&event.ProjectID,
			&event.SessionID,
			&metadata,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analytics event: %w", err)
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analytics event rows: %w", err)
	}

	return events, nil
}
