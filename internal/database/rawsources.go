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

// RawSourceRepository handles intake card database operations
type RawSourceRepository struct {
	db *DB
}

// NewRawSourceRepository creates a new raw source repository
func NewRawSourceRepository(db *DB) *RawSourceRepository {
	return &RawSourceRepository{db: db}
}

const rawSourceColumns = `
	id, url, file_name, input_type, og_title, og_description, og_image,
	og_site_name, phase, scrape_status, importance, tags, decision,
	decision_note, decided_at, promoted_source_slug, created_at, updated_at
`

// Create inserts a new intake card.
func (r *RawSourceRepository) Create(ctx context.Context, raw *models.RawSource) error {
	query := `
		INSERT INTO raw_sources (
			id, url, file_name, input_type, og_title, og_description, og_image,
			og_site_name, phase, scrape_status, importance, tags, decision,
			decision_note, decided_at, promoted_source_slug, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		raw.ID,
		raw.URL,
		raw.FileName,
		raw.InputType,
		raw.OGTitle,
		raw.OGDescription,
		raw.OGImage,
		raw.OGSiteName,
		raw.Phase,
		raw.ScrapeStatus,
		raw.Importance,
		pq.Array(raw.Tags),
		raw.Decision,
		raw.DecisionNote,
		nullTime(raw.DecidedAt),
		raw.PromotedSourceSlug,
		now,
		now,
	).Scan(&raw.CreatedAt, &raw.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create raw source: %w", err)
	}

	return nil
}

// GetByID retrieves an intake card by ID.
func (r *RawSourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RawSource, error) {
	query := fmt.Sprintf(`SELECT %s FROM raw_sources WHERE id = $1`, rawSourceColumns)

	raw, err := scanRawSource(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("raw source not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raw source: %w", err)
	}

	return raw, nil
}

// GetByURL retrieves the card capturing a given URL, if any. Capture
// uses this for idempotency: the same URL is never captured twice.
func (r *RawSourceRepository) GetByURL(ctx context.Context, url string) (*models.RawSource, error) {
	query := fmt.Sprintf(`SELECT %s FROM raw_sources WHERE url = $1`, rawSourceColumns)

	raw, err := scanRawSource(r.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raw source by url: %w", err)
	}

	return raw, nil
}

// List retrieves cards, optionally filtered by phase and decision,
// newest first.
func (r *RawSourceRepository) List(ctx context.Context, phase *models.Phase, decision *models.Decision) ([]*models.RawSource, error) {
	query := fmt.Sprintf(`SELECT %s FROM raw_sources WHERE 1=1`, rawSourceColumns)
	args := []any{}
	argIndex := 1

	if phase != nil {
		query += fmt.Sprintf(" AND phase = $%d", argIndex)
		args = append(args, string(*phase))
		argIndex++
	}

	if decision != nil {
		query += fmt.Sprintf(" AND decision = $%d", argIndex)
		args = append(args, string(*decision))
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw sources: %w", err)
	}
	defer rows.Close()

	var raws []*models.RawSource
	for rows.Next() {
		raw, err := scanRawSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raw source: %w", err)
		}
		raws = append(raws, raw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw sources: %w", err)
	}

	return raws, nil
}

// Update writes back every mutable field of a card.
func (r *RawSourceRepository) Update(ctx context.Context, raw *models.RawSource) error {
	query := `
		UPDATE raw_sources
		SET og_title = $2, og_description = $3, og_image = $4, og_site_name = $5,
			phase = $6, scrape_status = $7, importance = $8, tags = $9,
			decision = $10, decision_note = $11, decided_at = $12,
			promoted_source_slug = $13, updated_at = $14
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		raw.ID,
		raw.OGTitle,
		raw.OGDescription,
		raw.OGImage,
		raw.OGSiteName,
		raw.Phase,
		raw.ScrapeStatus,
		raw.Importance,
		pq.Array(raw.Tags),
		raw.Decision,
		raw.DecisionNote,
		nullTime(raw.DecidedAt),
		raw.PromotedSourceSlug,
		time.Now(),
	).Scan(&raw.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("raw source not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update raw source: %w", err)
	}

	return nil
}

// Delete deletes a card and its suggested connections (ON DELETE CASCADE).
func (r *RawSourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM raw_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete raw source: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("raw source not found")
	}

	return nil
}

// ReplaceSuggestions swaps a card's suggested connections for a fresh
// set, in one transaction. The suggestion worker calls this after each
// run so stale proposals never linger.
func (r *RawSourceRepository) ReplaceSuggestions(ctx context.Context, rawSourceID uuid.UUID, suggestions []*models.SuggestedConnection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM suggested_connections WHERE raw_source_id = $1`, rawSourceID,
	); err != nil {
		return fmt.Errorf("failed to clear suggestions: %w", err)
	}

	query := `
		INSERT INTO suggested_connections (
			id, raw_source_id, content_type, content_slug, content_title,
			confidence, reason, accepted, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	now := time.Now()
	for _, s := range suggestions {
		var accepted sql.NullBool
		if s.Accepted != nil {
			accepted = sql.NullBool{Bool: *s.Accepted, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			s.ID, rawSourceID, s.ContentType, s.ContentSlug, s.ContentTitle,
			s.Confidence, s.Reason, accepted, now,
		); err != nil {
			return fmt.Errorf("failed to insert suggestion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit suggestions: %w", err)
	}

	return nil
}

// ListSuggestions retrieves a card's suggested connections, highest
// confidence first.
func (r *RawSourceRepository) ListSuggestions(ctx context.Context, rawSourceID uuid.UUID) ([]*models.SuggestedConnection, error) {
	query := `
		SELECT id, raw_source_id, content_type, content_slug, content_title,
			confidence, reason, accepted, created_at
		FROM suggested_connections
		WHERE raw_source_id = $1
		ORDER BY confidence DESC
	`

	rows, err := r.db.QueryContext(ctx, query, rawSourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*models.SuggestedConnection
	for rows.Next() {
		s := &models.SuggestedConnection{}
		var accepted sql.NullBool

		err := rows.Scan(
			&s.ID,
			&s.RawSourceID,
			&s.ContentType,
			&s.ContentSlug,
			&s.ContentTitle,
			&s.Confidence,
			&s.Reason,
			&accepted,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}

		if accepted.Valid {
			v := accepted.Bool
			s.Accepted = &v
		}

		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}

	return suggestions, nil
}

// SetSuggestionAccepted records the operator's verdict on a suggestion.
func (r *RawSourceRepository) SetSuggestionAccepted(ctx context.Context, id uuid.UUID, accepted bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE suggested_connections SET accepted = $2 WHERE id = $1`, id, accepted,
	)
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("suggestion not found")
	}

	return nil
}

func scanRawSource(row rowScanner) (*models.RawSource, error) {
	raw := &models.RawSource{}
	var decidedAt sql.NullTime
	var tags pq.StringArray

	err := row.Scan(
		&raw.ID,
		&raw.URL,
		&raw.FileName,
		&raw.InputType,
		&raw.OGTitle,
		&raw.OGDescription,
		&raw.OGImage,
		&raw.OGSiteName,
		&raw.Phase,
		&raw.ScrapeStatus,
		&raw.Importance,
		&tags,
		&raw.Decision,
		&raw.DecisionNote,
		&decidedAt,
		&raw.PromotedSourceSlug,
		&raw.CreatedAt,
		&raw.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	raw.Tags = tags
	if decidedAt.Valid {
		raw.DecidedAt = &decidedAt.Time
	}

	return raw, nil
}
