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

const leadColumns = `
	id, name, email, phone, source, status, priority,
	form_data, created_at, updated_at`

// LeadRepository implements domain.LeadRepository using PostgreSQL.
type LeadRepository struct {
	db DB
}

// NewLeadRepository creates a new LeadRepository.
func NewLeadRepository(db DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create inserts a new lead record.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	formData, err := marshalFormData(lead.FormData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (
			id, name, email, phone, source, status, priority,
			form_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Source,
		lead.Status,
		lead.Priority,
		formData,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// GetByID retrieves a lead by its ID.
func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}
	return lead, nil
}

// Update replaces the mutable fields of an existing lead.
func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	lead.UpdatedAt = time.Now().UTC()

	formData, err := marshalFormData(lead.FormData)
	if err != nil {
		return err
	}

	query := `
		UPDATE leads SET
			name = $2,
			email = $3,
			phone = $4,
			source = $5,
			status = $6,
			priority = $7,
			form_data = $8,
			updated_at = $9
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Source,
		lead.Status,
		lead.Priority,
		formData,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a lead. Conversations referencing it keep their history;
// the foreign key nulls the reference.
func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves leads with pagination, newest first.
func (r *LeadRepository) List(ctx context.Context, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where, args := leadFilterClause(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT`+leadColumns+`
		FROM leads %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	return r.scanLeads(ctx, query, args...)
}

// Count returns the number of leads matching the filter.
func (r *LeadRepository) Count(ctx context.Context, filter *domain.LeadListFilter) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	where, args := leadFilterClause(filter)
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM leads "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// ListCreatedSince returns leads created at or after the cutoff.
func (r *LeadRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*domain.Lead, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + leadColumns + `
		FROM leads
		WHERE created_at >= $1
		ORDER BY created_at ASC`
	return r.scanLeads(ctx, query, since)
}

func leadFilterClause(filter *domain.LeadListFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var clauses []string
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Source != nil {
		args = append(args, *filter.Source)
		clauses = append(clauses, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func marshalFormData(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form data: %w", err)
	}
	return b, nil
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	lead := &domain.Lead{}
	var formData []byte

	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Source,
		&lead.Status,
		&lead.Priority,
		&formData,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &lead.FormData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal form data: %w", err)
		}
	}

	return lead, nil
}

func (r *LeadRepository) scanLeads(ctx context.Context, query string, args ...any) ([]*domain.Lead, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lead rows: %w", err)
	}

	return leads, nil
}
