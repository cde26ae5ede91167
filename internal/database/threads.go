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

// ThreadRepository handles research thread and thread entry operations
type ThreadRepository struct {
	db *DB
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create inserts a new research thread without entries.
func (r *ThreadRepository) Create(ctx context.Context, thread *models.ResearchThread) error {
	query := `
		INSERT INTO research_threads (
			id, title, slug, description, status, started_date, completed_date,
			resulting_essay_slug, tags, public, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		thread.ID,
		thread.Title,
		thread.Slug,
		thread.Description,
		thread.Status,
		nullTime(thread.StartedDate),
		nullTime(thread.CompletedDate),
		thread.ResultingEssaySlug,
		pq.Array(thread.Tags),
		thread.Public,
		now,
		now,
	).Scan(&thread.CreatedAt, &thread.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}

	return nil
}

// GetByID retrieves a thread with its entries loaded.
func (r *ThreadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ResearchThread, error) {
	thread, err := r.getOne(ctx, "id = $1", id)
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// GetBySlug retrieves a thread by slug with its entries loaded.
func (r *ThreadRepository) GetBySlug(ctx context.Context, slug string) (*models.ResearchThread, error) {
	thread, err := r.getOne(ctx, "slug = $1", slug)
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// List retrieves threads, optionally filtered by status and public flag,
// entries included.
func (r *ThreadRepository) List(ctx context.Context, status *models.ThreadStatus, public *bool) ([]*models.ResearchThread, error) {
	query := `
		SELECT id, title, slug, description, status, started_date, completed_date,
			resulting_essay_slug, tags, public, created_at, updated_at
		FROM research_threads
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(*status))
		argIndex++
	}

	if public != nil {
		query += fmt.Sprintf(" AND public = $%d", argIndex)
		args = append(args, *public)
		argIndex++
	}

	query += " ORDER BY started_date DESC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []*models.ResearchThread
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, thread)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}

	for _, thread := range threads {
		if err := r.loadEntries(ctx, thread); err != nil {
			return nil, err
		}
	}

	return threads, nil
}

// Update updates a thread's fields. Entries are managed separately.
func (r *ThreadRepository) Update(ctx context.Context, thread *models.ResearchThread) error {
	query := `
		UPDATE research_threads
		SET title = $2, description = $3, status = $4, started_date = $5,
			completed_date = $6, resulting_essay_slug = $7, tags = $8,
			public = $9, updated_at = $10
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		thread.ID,
		thread.Title,
		thread.Description,
		thread.Status,
		nullTime(thread.StartedDate),
		nullTime(thread.CompletedDate),
		thread.ResultingEssaySlug,
		pq.Array(thread.Tags),
		thread.Public,
		time.Now(),
	).Scan(&thread.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("thread not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}

	return nil
}

// Delete deletes a thread and its entries (ON DELETE CASCADE).
func (r *ThreadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM research_threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("thread not found")
	}

	return nil
}

// AddEntry appends an entry to a thread.
func (r *ThreadRepository) AddEntry(ctx context.Context, entry *models.ThreadEntry) error {
	query := `
		INSERT INTO thread_entries (
			id, thread_id, entry_type, entry_date, "order", title,
			description, source_id, field_note_slug
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var sourceID any
	if entry.SourceID != nil {
		sourceID = *entry.SourceID
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ThreadID,
		entry.EntryType,
		entry.Date,
		entry.Order,
		entry.Title,
		entry.Description,
		sourceID,
		entry.FieldNoteSlug,
	)
	if err != nil {
		return fmt.Errorf("failed to add thread entry: %w", err)
	}

	return nil
}

// UpdateEntry updates a thread entry.
func (r *ThreadRepository) UpdateEntry(ctx context.Context, entry *models.ThreadEntry) error {
	query := `
		UPDATE thread_entries
		SET entry_type = $2, entry_date = $3, "order" = $4, title = $5,
			description = $6, source_id = $7, field_note_slug = $8
		WHERE id = $1
	`

	var sourceID any
	if entry.SourceID != nil {
		sourceID = *entry.SourceID
	}

	result, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.EntryType,
		entry.Date,
		entry.Order,
		entry.Title,
		entry.Description,
		sourceID,
		entry.FieldNoteSlug,
	)
	if err != nil {
		return fmt.Errorf("failed to update thread entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("thread entry not found")
	}

	return nil
}

// DeleteEntry deletes a thread entry by ID.
func (r *ThreadRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM thread_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("thread entry not found")
	}

	return nil
}

// loadEntries fills a thread's entries ordered by position, most recent
// first within the same position.
func (r *ThreadRepository) loadEntries(ctx context.Context, thread *models.ResearchThread) error {
	query := `
		SELECT id, thread_id, entry_type, entry_date, "order", title,
			description, source_id, field_note_slug
		FROM thread_entries
		WHERE thread_id = $1
		ORDER BY "order" ASC, entry_date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, thread.ID)
	if err != nil {
		return fmt.Errorf("failed to query thread entries: %w", err)
	}
	defer rows.Close()

	entries := []models.ThreadEntry{}
	for rows.Next() {
		var entry models.ThreadEntry
		var sourceID uuid.NullUUID

		err := rows.Scan(
			&entry.ID,
			&entry.ThreadID,
			&entry.EntryType,
			&entry.Date,
			&entry.Order,
			&entry.Title,
			&entry.Description,
			&sourceID,
			&entry.FieldNoteSlug,
		)
		if err != nil {
			return fmt.Errorf("failed to scan thread entry: %w", err)
		}

		if sourceID.Valid {
			id := sourceID.UUID
			entry.SourceID = &id
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating thread entries: %w", err)
	}

	thread.Entries = entries
	return nil
}

func (r *ThreadRepository) getOne(ctx context.Context, where string, arg any) (*models.ResearchThread, error) {
	query := `
		SELECT id, title, slug, description, status, started_date, completed_date,
			resulting_essay_slug, tags, public, created_at, updated_at
		FROM research_threads
		WHERE ` + where

	thread, err := scanThread(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("thread not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	return thread, nil
}

func scanThread(row rowScanner) (*models.ResearchThread, error) {
	thread := &models.ResearchThread{}
	var startedDate, completedDate sql.NullTime
	var tags pq.StringArray

	err := row.Scan(
		&thread.ID,
		&thread.Title,
		&thread.Slug,
		&thread.Description,
		&thread.Status,
		&startedDate,
		&completedDate,
		&thread.ResultingEssaySlug,
		&tags,
		&thread.Public,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	thread.Tags = tags
	if startedDate.Valid {
		thread.StartedDate = &startedDate.Time
	}
	if completedDate.Valid {
		thread.CompletedDate = &completedDate.Time
	}

	return thread, nil
}
