package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/LeeSpain/vision-sync-server/internal/database"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

const settingColumns = `
	id, key, value, value_type, category, description, created_at, updated_at`

// SettingsRepository implements domain.SettingsRepository using PostgreSQL.
type SettingsRepository struct {
	db DB
	tx *database.TxManager
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db DB, tx *database.TxManager) *SettingsRepository {
	return &SettingsRepository{db: db, tx: tx}
}

// Get retrieves a single setting by key. Returns nil without error when the
// key is not stored, so callers can fall back to process configuration.
func (r *SettingsRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + settingColumns + ` FROM settings WHERE key = $1`

	var s domain.Setting
	err := r.db.QueryRow(ctx, query, key).Scan(
		&s.ID, &s.Key, &s.Value, &s.ValueType, &s.Category,
		&s.Description, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return &s, nil
}

// GetAll retrieves all settings ordered by category then key.
func (r *SettingsRepository) GetAll(ctx context.Context) ([]*domain.Setting, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + settingColumns + ` FROM settings ORDER BY category, key`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var settings []*domain.Setting
	for rows.Next() {
		var s domain.Setting
		if err := rows.Scan(
			&s.ID, &s.Key, &s.Value, &s.ValueType, &s.Category,
			&s.Description, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, &s)
	}

	return settings, rows.Err()
}

// Set stores a setting value, inserting the key if it does not exist yet.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, upsertSettingSQL, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SetMany stores multiple settings atomically. Either every key is written
// or none are.
func (r *SettingsRepository) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	return r.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for key, value := range values {
			if _, err := tx.Exec(ctx, upsertSettingSQL, key, value); err != nil {
				return fmt.Errorf("failed to set setting %s: %w", key, err)
			}
		}
		return nil
	})
}

// Delete removes a stored setting.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const upsertSettingSQL = `
	INSERT INTO settings (key, value)
	VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = NOW()`
