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

// FieldNoteRepository handles field note database operations
type FieldNoteRepository struct {
	db *DB
}

// NewFieldNoteRepository creates a new field note repository
func NewFieldNoteRepository(db *DB) *FieldNoteRepository {
	return &FieldNoteRepository{db: db}
}

// Create inserts a new field note.
func (r *FieldNoteRepository) Create(ctx context.Context, note *models.FieldNote) error {
	query := `
		INSERT INTO field_notes (
			id, title, slug, summary, body, tags, location_name, location_lat,
			location_lng, draft, noted_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	var locName sql.NullString
	var locLat, locLng sql.NullFloat64
	if note.Location != nil {
		locName = sql.NullString{String: note.Location.Name, Valid: true}
		locLat = sql.NullFloat64{Float64: note.Location.Latitude, Valid: true}
		locLng = sql.NullFloat64{Float64: note.Location.Longitude, Valid: true}
	}

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		note.ID,
		note.Title,
		note.Slug,
		note.Summary,
		note.Body,
		pq.Array(note.Tags),
		locName,
		locLat,
		locLng,
		note.Draft,
		nullTime(note.NotedDate),
		now,
		now,
	).Scan(&note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create field note: %w", err)
	}

	return nil
}

// GetBySlug retrieves a field note by slug.
func (r *FieldNoteRepository) GetBySlug(ctx context.Context, slug string) (*models.FieldNote, error) {
	note, err := scanFieldNote(r.db.QueryRowContext(ctx,
		fieldNoteSelect+" WHERE slug = $1", slug,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("field note not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field note: %w", err)
	}
	return note, nil
}

// List retrieves field notes newest first, optionally filtered by draft
// state.
func (r *FieldNoteRepository) List(ctx context.Context, draft *bool) ([]*models.FieldNote, error) {
	query := fieldNoteSelect + " WHERE 1=1"
	args := []any{}

	if draft != nil {
		query += " AND draft = $1"
		args = append(args, *draft)
	}

	query += " ORDER BY noted_date DESC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query field notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.FieldNote
	for rows.Next() {
		note, err := scanFieldNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating field notes: %w", err)
	}

	return notes, nil
}

// Update updates a field note. The slug is immutable.
func (r *FieldNoteRepository) Update(ctx context.Context, note *models.FieldNote) error {
	query := `
		UPDATE field_notes
		SET title = $2, summary = $3, body = $4, tags = $5, location_name = $6,
			location_lat = $7, location_lng = $8, draft = $9, noted_date = $10,
			updated_at = $11
		WHERE id = $1
		RETURNING updated_at
	`

	var locName sql.NullString
	var locLat, locLng sql.NullFloat64
	if note.Location != nil {
		locName = sql.NullString{String: note.Location.Name, Valid: true}
		locLat = sql.NullFloat64{Float64: note.Location.Latitude, Valid: true}
		locLng = sql.NullFloat64{Float64: note.Location.Longitude, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		note.ID,
		note.Title,
		note.Summary,
		note.Body,
		pq.Array(note.Tags),
		locName,
		locLat,
		locLng,
		note.Draft,
		nullTime(note.NotedDate),
		time.Now(),
	).Scan(&note.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("field note not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update field note: %w", err)
	}

	return nil
}

// SetDraft flips only the draft flag, called by the publisher after a
// confirmed commit.
func (r *FieldNoteRepository) SetDraft(ctx context.Context, slug string, draft bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE field_notes SET draft = $2, updated_at = $3 WHERE slug = $1`,
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
		return fmt.Errorf("field note not found")
	}

	return nil
}

// Delete deletes a field note by ID.
func (r *FieldNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM field_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete field note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("field note not found")
	}

	return nil
}

const fieldNoteSelect = `
	SELECT id, title, slug, summary, body, tags, location_name, location_lat,
		location_lng, draft, noted_date, created_at, updated_at
	FROM field_notes
`

func scanFieldNote(row rowScanner) (*models.FieldNote, error) {
	note := &models.FieldNote{}
	var notedDate sql.NullTime
	var locName sql.NullString
	var locLat, locLng sql.NullFloat64
	var tags pq.StringArray

	err := row.Scan(
		&note.ID, &note.Title, &note.Slug, &note.Summary, &note.Body,
		&tags, &locName, &locLat, &locLng, &note.Draft, &notedDate,
		&note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.Tags = tags
	if notedDate.Valid {
		note.NotedDate = &notedDate.Time
	}
	if locName.Valid && locLat.Valid && locLng.Valid {
		note.Location = &models.Location{
			Name:      locName.String,
			Latitude:  locLat.Float64,
			Longitude: locLng.Float64,
		}
	}

	return note, nil
}
