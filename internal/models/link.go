package models

import (
	"time"

	"github.com/google/uuid"
)

// LinkRole describes how a source relates to the content piece citing it.
type LinkRole string

const (
	LinkRoleReference    LinkRole = "reference"
	LinkRoleInspiration  LinkRole = "inspiration"
	LinkRoleCounterpoint LinkRole = "counterpoint"
	LinkRoleBackground   LinkRole = "background"
)

// SourceLink is a citation edge from a Source to a content piece.
// At most one link exists per (source, content_type, content_slug) tuple.
// SourceTitle and SourceSlug are denormalized from the joined source row
// when links are loaded; they are not stored on the link itself.
type SourceLink struct {
	ID           uuid.UUID   `json:"id"`
	SourceID     uuid.UUID   `json:"source_id"`
	SourceTitle  string      `json:"source_title"`
	SourceSlug   string      `json:"source_slug"`
	ContentType  ContentType `json:"content_type"`
	ContentSlug  string      `json:"content_slug"`
	ContentTitle string      `json:"content_title"`
	Role         LinkRole    `json:"role"`
	KeyQuote     string      `json:"key_quote"`
	DateLinked   *time.Time  `json:"date_linked,omitempty"`
	Notes        string      `json:"notes"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Ref returns the content piece this link cites from.
func (l *SourceLink) Ref() ContentRef {
	return ContentRef{Type: l.ContentType, Slug: l.ContentSlug}
}
