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

// EssayRepository handles essay database operations
type EssayRepository struct {
	db *DB
}

// NewEssayRepository creates a new essay repository
func NewEssayRepository(db *DB) *EssayRepository {
	return &EssayRepository{db: db}
}

// Create inserts a new essay. New essays start as drafts.
func (r *EssayRepository) Create(ctx context.Context, essay *models.Essay) error {
	query := `
		INSERT INTO essays (
			id, title, slug, subtitle, summary, body, tags, hero_image,
			draft, published_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		essay.ID,
		essay.Title,
		essay.Slug,
		essay.Subtitle,
		essay.Summary,
		essay.Body,
		pq.Array(essay.Tags),
		essay.HeroImage,
		essay.Draft,
		nullTime(essay.PublishedDate),
		now,
		now,
	).Scan(&essay.CreatedAt, &essay.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create essay: %w", err)
	}

	return nil
}

// GetBySlug retrieves an essay by slug.
func (r *EssayRepository) GetBySlug(ctx context.Context, slug string) (*models.Essay, error) {
	query := `
		SELECT id, title, slug, subtitle, summary, body, tags, hero_image,
			draft, published_date, created_at, updated_at
		FROM essays
		WHERE slug = $1
	`

	essay := &models.Essay{}
	var publishedDate sql.NullTime
	var tags pq.StringArray

	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&essay.ID, &essay.Title, &essay.Slug, &essay.Subtitle,
		&essay.Summary, &essay.Body, &tags, &essay.HeroImage,
		&essay.Draft, &publishedDate, &essay.CreatedAt, &essay.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("essay not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get essay: %w", err)
	}

	essay.Tags = tags
	if publishedDate.Valid {
		essay.PublishedDate = &publishedDate.Time
	}

	return essay, nil
}

// List retrieves essays newest first, optionally filtered by draft state.
func (r *EssayRepository) List(ctx context.Context, draft *bool) ([]*models.Essay, error) {
	query := `
		SELECT id, title, slug, subtitle, summary, body, tags, hero_image,
			draft, published_date, created_at, updated_at
		FROM essays
		WHERE 1=1
	`
	args := []any{}

	if draft != nil {
		query += " AND draft = $1"
		args = append(args, *draft)
	}

	query += " ORDER BY published_date DESC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query essays: %w", err)
	}
	defer rows.Close()

	var essays []*models.Essay
	for rows.Next() {
		essay := &models.Essay{}
		var publishedDate sql.NullTime
		var tags pq.StringArray

		err := rows.Scan(
			&essay.ID, &essay.Title, &essay.Slug, &essay.Subtitle,
			&essay.Summary, &essay.Body, &tags, &essay.HeroImage,
			&essay.Draft, &publishedDate, &essay.CreatedAt, &essay.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan essay: %w", err)
		}

		essay.Tags = tags
		if publishedDate.Valid {
			essay.PublishedDate = &publishedDate.Time
		}
		essays = append(essays, essay)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating essays: %w", err)
	}

	return essays, nil
}

// Update updates an essay. The slug is immutable.
func (r *EssayRepository) Update(ctx context.Context, essay *models.Essay) error {
	query := `
		UPDATE essays
		SET title = $2, subtitle = $3, summary = $4, body = $5, tags = $6,
			hero_image = $7, draft = $8, published_date = $9, updated_at = $10
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		essay.ID,
		essay.Title,
		essay.Subtitle,
		essay.Summary,
		essay.Body,
		pq.Array(essay.Tags),
		essay.HeroImage,
		essay.Draft,
		nullTime(essay.PublishedDate),
		time.Now(),
	).Scan(&essay.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("essay not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update essay: %w", err)
	}

	return nil
}

// SetDraft flips only the draft flag. The publisher calls this after a
// confirmed commit so a failed publish never changes local state.
func (r *EssayRepository) SetDraft(ctx context.Context, slug string, draft bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE essays SET draft = $2, updated_at = $3 WHERE slug = $1`,
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
		return fmt.Errorf("essay not found")
	}

	return nil
}

// Delete deletes an essay by ID.
func (r *EssayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM essays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete essay: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("essay not found")
	}

	return nil
}
