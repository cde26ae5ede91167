package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nwhitfield/site-studio/internal/models"
)

// ErrLinkExists is returned when a link already exists for the same
// (source, content) pair. Callers treat it as a no-op, not a failure.
var ErrLinkExists = fmt.Errorf("link already exists")

// LinkRepository handles source link database operations. Loaded links
// carry the source title and slug denormalized from the joined row.
type LinkRepository struct {
	db *DB
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *DB) *LinkRepository {
	return &LinkRepository{db: db}
}

const linkSelect = `
	SELECT l.id, l.source_id, s.title, s.slug,
		l.content_type, l.content_slug, l.content_title,
		l.role, l.key_quote, l.date_linked, l.notes,
		l.created_at, l.updated_at
	FROM source_links l
	JOIN sources s ON s.id = l.source_id
`

// Create inserts a new citation link. A second link for the same
// (source, content) pair is rejected with ErrLinkExists.
func (r *LinkRepository) Create(ctx context.Context, link *models.SourceLink) error {
	query := `
		INSERT INTO source_links (
			id, source_id, content_type, content_slug, content_title,
			role, key_quote, date_linked, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source_id, content_type, content_slug) DO NOTHING
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		link.ID,
		link.SourceID,
		link.ContentType,
		link.ContentSlug,
		link.ContentTitle,
		link.Role,
		link.KeyQuote,
		nullTime(link.DateLinked),
		link.Notes,
		now,
		now,
	).Scan(&link.CreatedAt, &link.UpdatedAt)

	if err == sql.ErrNoRows {
		return ErrLinkExists
	}
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByID retrieves a link by ID.
func (r *LinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SourceLink, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, linkSelect+" WHERE l.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("link not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// ListAll retrieves every link in the system, ordered by creation time
// ascending. The backlink engine depends on this ordering: it determines
// the encounter order of shared sources in the graph.
func (r *LinkRepository) ListAll(ctx context.Context) ([]*models.SourceLink, error) {
	return r.list(ctx, linkSelect+" ORDER BY l.created_at ASC")
}

// ListBySource retrieves all links citing from one source.
func (r *LinkRepository) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*models.SourceLink, error) {
	return r.list(ctx, linkSelect+" WHERE l.source_id = $1 ORDER BY l.created_at ASC", sourceID)
}

// ListByContent retrieves all links citing into one content piece.
func (r *LinkRepository) ListByContent(ctx context.Context, ref models.ContentRef) ([]*models.SourceLink, error) {
	return r.list(ctx,
		linkSelect+" WHERE l.content_type = $1 AND l.content_slug = $2 ORDER BY l.created_at ASC",
		ref.Type, ref.Slug,
	)
}

// Update updates a link's annotation fields. The (source, content)
// identity of a link is immutable; delete and recreate to repoint it.
func (r *LinkRepository) Update(ctx context.Context, link *models.SourceLink) error {
	query := `
		UPDATE source_links
		SET content_title = $2, role = $3, key_quote = $4,
			date_linked = $5, notes = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		link.ID,
		link.ContentTitle,
		link.Role,
		link.KeyQuote,
		nullTime(link.DateLinked),
		link.Notes,
		time.Now(),
	).Scan(&link.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("link not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	return nil
}

// Delete deletes a link by ID.
func (r *LinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM source_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("link not found")
	}

	return nil
}

func (r *LinkRepository) list(ctx context.Context, query string, args ...any) ([]*models.SourceLink, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []*models.SourceLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func scanLink(row rowScanner) (*models.SourceLink, error) {
	link := &models.SourceLink{}
	var dateLinked sql.NullTime

	err := row.Scan(
		&link.ID,
		&link.SourceID,
		&link.SourceTitle,
		&link.SourceSlug,
		&link.ContentType,
		&link.ContentSlug,
		&link.ContentTitle,
		&link.Role,
		&link.KeyQuote,
		&dateLinked,
		&link.Notes,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dateLinked.Valid {
		link.DateLinked = &dateLinked.Time
	}

	return link, nil
}
