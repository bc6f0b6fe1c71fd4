package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

const projectColumns = `
	id, title, description, category, industry, price_one_time,
	price_subscription, investment_amount, visible, content_sections,
	created_at, updated_at`

// ProjectRepository implements domain.ProjectRepository using PostgreSQL.
type ProjectRepository struct {
	db DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	sections, err := marshalSections(project.ContentSections)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (
			id, title, description, category, industry, price_one_time,
			price_subscription, investment_amount, visible, content_sections,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Exec(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.Category,
		project.Industry,
		project.PriceOneTime,
		project.PriceSubscription,
		project.InvestmentAmount,
		project.Visible,
		sections,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return project, nil
}

// Update replaces the mutable fields of an existing project.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	sections, err := marshalSections(project.ContentSections)
	if err != nil {
		return err
	}

	query := `
		UPDATE projects SET
			title = $2,
			description = $3,
			category = $4,
			industry = $5,
			price_one_time = $6,
			price_subscription = $7,
			investment_amount = $8,
			visible = $9,
			content_sections = $10,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.Category,
		project.Industry,
		project.PriceOneTime,
		project.PriceSubscription,
		project.InvestmentAmount,
		project.Visible,
		sections,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves projects matching the filter, newest first. Section
// filtering happens over the jsonb tag array.
func (r *ProjectRepository) List(ctx context.Context, filter *domain.ProjectListFilter) ([]*domain.Project, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	var clauses []string
	var args []any
	if filter != nil {
		if filter.Category != nil {
			args = append(args, *filter.Category)
			clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
		}
		if filter.VisibleOnly {
			clauses = append(clauses, "visible = TRUE")
		}
		if filter.Section != "" {
			args = append(args, filter.Section)
			clauses = append(clauses, fmt.Sprintf("content_sections ? $%d", len(args)))
		}
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`SELECT`+projectColumns+`
		FROM projects %s
		ORDER BY created_at DESC`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

func marshalSections(sections []string) ([]byte, error) {
	if sections == nil {
		sections = []string{}
	}
	b, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content sections: %w", err)
	}
	return b, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	project := &domain.Project{}
	var sections []byte

	err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.Category,
		&project.Industry,
		&project.PriceOneTime,
		&project.PriceSubscription,
		&project.InvestmentAmount,
		&project.Visible,
		&sections,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &project.ContentSections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content sections: %w", err)
		}
	}

	return project, nil
}
