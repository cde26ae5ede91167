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

// SourceRepository handles source database operations
type SourceRepository struct {
	db *DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *DB) *SourceRepository {
	return &SourceRepository{db: db}
}

const sourceColumns = `
	id, title, slug, creator, source_type, url, publication,
	date_published, date_encountered, public_annotation, private_notes,
	key_findings, tags, public, location_name, location_lat, location_lng,
	created_at, updated_at
`

// Create inserts a new source. The slug must be unique; a conflict is
// returned as an error rather than resolved here.
func (r *SourceRepository) Create(ctx context.Context, source *models.Source) error {
	query := `
		INSERT INTO sources (
			id, title, slug, creator, source_type, url, publication,
			date_published, date_encountered, public_annotation, private_notes,
			key_findings, tags, public, location_name, location_lat, location_lng,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at
	`

	var locName sql.NullString
	var locLat, locLng sql.NullFloat64
	if source.Location != nil {
		locName = sql.NullString{String: source.Location.Name, Valid: true}
		locLat = sql.NullFloat64{Float64: source.Location.Latitude, Valid: true}
		locLng = sql.NullFloat64{Float64: source.Location.Longitude, Valid: true}
	}

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		source.ID,
		source.Title,
		source.Slug,
		source.Creator,
		source.SourceType,
		source.URL,
		source.Publication,
		nullTime(source.DatePublished),
		nullTime(source.DateEncountered),
		source.PublicAnnotation,
		source.PrivateNotes,
		pq.Array(source.KeyFindings),
		pq.Array(source.Tags),
		source.Public,
		locName,
		locLat,
		locLng,
		now,
		now,
	).Scan(&source.CreatedAt, &source.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	return nil
}

// GetByID retrieves a source by ID, including its link count.
func (r *SourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Source, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM source_links WHERE source_links.source_id = sources.id) AS link_count
		FROM sources
		WHERE id = $1
	`, sourceColumns)

	source, err := scanSource(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

// GetBySlug retrieves a source by its slug.
func (r *SourceRepository) GetBySlug(ctx context.Context, slug string) (*models.Source, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM source_links WHERE source_links.source_id = sources.id) AS link_count
		FROM sources
		WHERE slug = $1
	`, sourceColumns)

	source, err := scanSource(r.db.QueryRowContext(ctx, query, slug))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

// SlugExists reports whether any source already uses the given slug.
func (r *SourceRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sources WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// List retrieves sources, optionally filtered by type, public flag, and tag.
func (r *SourceRepository) List(ctx context.Context, sourceType *models.SourceType, public *bool, tag string) ([]*models.Source, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM source_links WHERE source_links.source_id = sources.id) AS link_count
		FROM sources
		WHERE 1=1
	`, sourceColumns)
	args := []any{}
	argIndex := 1

	if sourceType != nil {
		query += fmt.Sprintf(" AND source_type = $%d", argIndex)
		args = append(args, string(*sourceType))
		argIndex++
	}

	if public != nil {
		query += fmt.Sprintf(" AND public = $%d", argIndex)
		args = append(args, *public)
		argIndex++
	}

	if tag != "" {
		query += fmt.Sprintf(" AND $%d = ANY(tags)", argIndex)
		args = append(args, tag)
		argIndex++
	}

	query += " ORDER BY date_encountered DESC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

// Update updates an existing source. The slug is immutable and not
// touched here.
func (r *SourceRepository) Update(ctx context.Context, source *models.Source) error {
	query := `
		UPDATE sources
		SET title = $2, creator = $3, source_type = $4, url = $5,
			publication = $6, date_published = $7, date_encountered = $8,
			public_annotation = $9, private_notes = $10, key_findings = $11,
			tags = $12, public = $13, location_name = $14, location_lat = $15,
			location_lng = $16, updated_at = $17
		WHERE id = $1
		RETURNING updated_at
	`

	var locName sql.NullString
	var locLat, locLng sql.NullFloat64
	if source.Location != nil {
		locName = sql.NullString{String: source.Location.Name, Valid: true}
		locLat = sql.NullFloat64{Float64: source.Location.Latitude, Valid: true}
		locLng = sql.NullFloat64{Float64: source.Location.Longitude, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		source.ID,
		source.Title,
		source.Creator,
		source.SourceType,
		source.URL,
		source.Publication,
		nullTime(source.DatePublished),
		nullTime(source.DateEncountered),
		source.PublicAnnotation,
		source.PrivateNotes,
		pq.Array(source.KeyFindings),
		pq.Array(source.Tags),
		source.Public,
		locName,
		locLat,
		locLng,
		time.Now(),
	).Scan(&source.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("source not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}

	return nil
}

// Delete deletes a source. Links referencing it are removed by the
// ON DELETE CASCADE constraint.
func (r *SourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("source not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*models.Source, error) {
	source := &models.Source{}
	var datePublished, dateEncountered sql.NullTime
	var locName sql.NullString
	var locLat, locLng sql.NullFloat64
	var keyFindings, tags pq.StringArray

	err := row.Scan(
		&source.ID,
		&source.Title,
		&source.Slug,
		&source.Creator,
		&source.SourceType,
		&source.URL,
		&source.Publication,
		&datePublished,
		&dateEncountered,
		&source.PublicAnnotation,
		&source.PrivateNotes,
		&keyFindings,
		&tags,
		&source.Public,
		&locName,
		&locLat,
		&locLng,
		&source.CreatedAt,
		&source.UpdatedAt,
		&source.LinkCount,
	)
	if err != nil {
		return nil, err
	}

	source.KeyFindings = keyFindings
	source.Tags = tags
	if datePublished.Valid {
		source.DatePublished = &datePublished.Time
	}
	if dateEncountered.Valid {
		source.DateEncountered = &dateEncountered.Time
	}
	if locName.Valid && locLat.Valid && locLng.Valid {
		source.Location = &models.Location{
			Name:      locName.String,
			Latitude:  locLat.Float64,
			Longitude: locLng.Float64,
		}
	}

	return source, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
