package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nwhitfield/site-studio/internal/models"
)

// ProjectRepository handles project database operations
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (
			id, title, slug, summary, body, tags, status, url, draft,
			started_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		project.ID,
		project.Title,
		project.Slug,
		project.Summary,
		project.Body,
		pq.Array(project.Tags),
		project.Status,
		project.URL,
		project.Draft,
		nullTime(project.StartedDate),
		now,
		now,
	).Scan(&project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetBySlug retrieves a project by slug.
func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	project, err := scanProject(r.db.QueryRowContext(ctx,
		projectSelect+" WHERE slug = $1", slug,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// List retrieves projects newest first, optionally filtered by draft
// state.
func (r *ProjectRepository) List(ctx context.Context, draft *bool) ([]*models.Project, error) {
	query := projectSelect + " WHERE 1=1"
	args := []any{}

	if draft != nil {
		query += " AND draft = $1"
		args = append(args, *draft)
	}

	query += " ORDER BY started_date DESC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Update updates a project. The slug is immutable.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET title = $2, summary = $3, body = $4, tags = $5, status = $6,
			url = $7, draft = $8, started_date = $9, updated_at = $10
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		project.ID,
		project.Title,
		project.Summary,
		project.Body,
		pq.Array(project.Tags),
		project.Status,
		project.URL,
		project.Draft,
		nullTime(project.StartedDate),
		time.Now(),
	).Scan(&project.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("project not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// SetDraft flips only the draft flag, called by the publisher after a
// confirmed commit.
func (r *ProjectRepository) SetDraft(ctx context.Context, slug string, draft bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET draft = $2, updated_at = $3 WHERE slug = $1`,
		slug, draft, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to set draft flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("project not found")
	}

	return nil
}

// Delete deletes a project by ID.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("project not found")
	}

	return nil
}

const projectSelect = `
	SELECT id, title, slug, summary, body, tags, status, url, draft,
		started_date, created_at, updated_at
	FROM projects
`

func scanProject(row rowScanner) (*models.Project, error) {
	project := &models.Project{}
	var startedDate sql.NullTime
	var tags pq.StringArray

	err := row.Scan(
		&project.ID, &project.Title, &project.Slug, &project.Summary,
		&project.Body, &tags, &project.Status, &project.URL, &project.Draft,
		&startedDate, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	project.Tags = tags
	if startedDate.Valid {
		project.StartedDate = &startedDate.Time
	}

	return project, nil
}
