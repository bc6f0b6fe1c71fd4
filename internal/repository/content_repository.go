package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

const contentColumns = `
	id, key, title, body, created_at, updated_at`

// ContentRepository implements domain.ContentRepository using PostgreSQL.
type ContentRepository struct {
	db DB
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// GetByKey retrieves a content section by its slug.
func (r *ContentRepository) GetByKey(ctx context.Context, key string) (*domain.ContentSection, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + contentColumns + ` FROM content_sections WHERE key = $1`

	section, err := scanContentSection(r.db.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan content section: %w", err)
	}
	return section, nil
}

// List returns all content sections ordered by key.
func (r *ContentRepository) List(ctx context.Context) ([]*domain.ContentSection, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + contentColumns + ` FROM content_sections ORDER BY key`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query content sections: %w", err)
	}
	defer rows.Close()

	var sections []*domain.ContentSection
	for rows.Next() {
		section, err := scanContentSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content section row: %w", err)
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content section rows: %w", err)
	}

	return sections, nil
}

// Upsert inserts or replaces the section stored under its key.
func (r *ContentRepository) Upsert(ctx context.Context, section *domain.ContentSection) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	section.UpdatedAt = time.Now().UTC()

	var body []byte
	if section.Body != nil {
		var err error
		body, err = json.Marshal(section.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal content body: %w", err)
		}
	}

	query := `
		INSERT INTO content_sections (id, key, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		section.ID,
		section.Key,
		section.Title,
		body,
		section.CreatedAt,
		section.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert content section: %w", err)
	}
	return nil
}

// Delete removes a content section by key.
func (r *ContentRepository) Delete(ctx context.Context, key string) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM content_sections WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete content section: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContentSection(row pgx.Row) (*domain.ContentSection, error) {
	section := &domain.ContentSection{}
	var body []byte

	err := row.Scan(
		&section.ID,
		&section.Key,
		&section.Title,
		&body,
		&section.CreatedAt,
		&section.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &section.Body); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content body: %w", err)
		}
	}

	return section, nil
}
