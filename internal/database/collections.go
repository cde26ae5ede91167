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

// ShelfRepository handles shelf entry database operations. Shelf
// entries have no draft flag; they publish as saved.
type ShelfRepository struct {
	db *DB
}

// NewShelfRepository creates a new shelf repository
func NewShelfRepository(db *DB) *ShelfRepository {
	return &ShelfRepository{db: db}
}

// Create inserts a new shelf entry.
func (r *ShelfRepository) Create(ctx context.Context, entry *models.ShelfEntry) error {
	query := `
		INSERT INTO shelf_entries (
			id, title, slug, creator, shelf_type, status, rating, body, tags,
			finished_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.Title, entry.Slug, entry.Creator, entry.ShelfType,
		entry.Status, entry.Rating, entry.Body, pq.Array(entry.Tags),
		nullTime(entry.FinishedDate), now, now,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create shelf entry: %w", err)
	}

	return nil
}

// GetBySlug retrieves a shelf entry by slug.
func (r *ShelfRepository) GetBySlug(ctx context.Context, slug string) (*models.ShelfEntry, error) {
	entry, err := scanShelfEntry(r.db.QueryRowContext(ctx,
		shelfSelect+" WHERE slug = $1", slug,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shelf entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shelf entry: %w", err)
	}
	return entry, nil
}

// List retrieves shelf entries, most recently finished first.
func (r *ShelfRepository) List(ctx context.Context) ([]*models.ShelfEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		shelfSelect+" ORDER BY finished_date DESC NULLS LAST, created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelf entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ShelfEntry
	for rows.Next() {
		entry, err := scanShelfEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shelf entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shelf entries: %w", err)
	}

	return entries, nil
}

// Update updates a shelf entry. The slug is immutable.
func (r *ShelfRepository) Update(ctx context.Context, entry *models.ShelfEntry) error {
	query := `
		UPDATE shelf_entries
		SET title = $2, creator = $3, shelf_type = $4, status = $5,
			rating = $6, body = $7, tags = $8, finished_date = $9, updated_at = $10
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.Title, entry.Creator, entry.ShelfType, entry.Status,
		entry.Rating, entry.Body, pq.Array(entry.Tags),
		nullTime(entry.FinishedDate), time.Now(),
	).Scan(&entry.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("shelf entry not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update shelf entry: %w", err)
	}

	return nil
}

// Delete deletes a shelf entry by ID.
func (r *ShelfRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "shelf_entries", "shelf entry", id)
}

const shelfSelect = `
	SELECT id, title, slug, creator, shelf_type, status, rating, body, tags,
		finished_date, created_at, updated_at
	FROM shelf_entries
`

func scanShelfEntry(row rowScanner) (*models.ShelfEntry, error) {
	entry := &models.ShelfEntry{}
	var finishedDate sql.NullTime
	var tags pq.StringArray

	err := row.Scan(
		&entry.ID, &entry.Title, &entry.Slug, &entry.Creator,
		&entry.ShelfType, &entry.Status, &entry.Rating, &entry.Body,
		&tags, &finishedDate, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Tags = tags
	if finishedDate.Valid {
		entry.FinishedDate = &finishedDate.Time
	}

	return entry, nil
}

// ToolkitRepository handles toolkit entry database operations. Like the
// shelf, toolkit entries publish as saved.
type ToolkitRepository struct {
	db *DB
}

// NewToolkitRepository creates a new toolkit repository
func NewToolkitRepository(db *DB) *ToolkitRepository {
	return &ToolkitRepository{db: db}
}

// Create inserts a new toolkit entry.
func (r *ToolkitRepository) Create(ctx context.Context, entry *models.ToolkitEntry) error {
	query := `
		INSERT INTO toolkit_entries (
			id, title, slug, category, url, body, tags, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.Title, entry.Slug, entry.Category, entry.URL,
		entry.Body, pq.Array(entry.Tags), now, now,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create toolkit entry: %w", err)
	}

	return nil
}

// GetBySlug retrieves a toolkit entry by slug.
func (r *ToolkitRepository) GetBySlug(ctx context.Context, slug string) (*models.ToolkitEntry, error) {
	entry, err := scanToolkitEntry(r.db.QueryRowContext(ctx,
		toolkitSelect+" WHERE slug = $1", slug,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("toolkit entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get toolkit entry: %w", err)
	}
	return entry, nil
}

// List retrieves toolkit entries grouped by category, then title.
func (r *ToolkitRepository) List(ctx context.Context) ([]*models.ToolkitEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		toolkitSelect+" ORDER BY category ASC, title ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query toolkit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ToolkitEntry
	for rows.Next() {
		entry, err := scanToolkitEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan toolkit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating toolkit entries: %w", err)
	}

	return entries, nil
}

// Update updates a toolkit entry. The slug is immutable.
func (r *ToolkitRepository) Update(ctx context.Context, entry *models.ToolkitEntry) error {
	query := `
		UPDATE toolkit_entries
		SET title = $2, category = $3, url = $4, body = $5, tags = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.Title, entry.Category, entry.URL, entry.Body,
		pq.Array(entry.Tags), time.Now(),
	).Scan(&entry.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("toolkit entry not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update toolkit entry: %w", err)
	}

	return nil
}

// Delete deletes a toolkit entry by ID.
func (r *ToolkitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "toolkit_entries", "toolkit entry", id)
}

const toolkitSelect = `
	SELECT id, title, slug, category, url, body, tags, created_at, updated_at
	FROM toolkit_entries
`

func scanToolkitEntry(row rowScanner) (*models.ToolkitEntry, error) {
	entry := &models.ToolkitEntry{}
	var tags pq.StringArray

	err := row.Scan(
		&entry.ID, &entry.Title, &entry.Slug, &entry.Category, &entry.URL,
		&entry.Body, &tags, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Tags = tags
	return entry, nil
}

func deleteByID(ctx context.Context, db *DB, table, noun string, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", noun, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s not found", noun)
	}

	return nil
}
