package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceType classifies a cited reference.
type SourceType string

const (
	SourceTypeArticle SourceType = "article"
	SourceTypeBook    SourceType = "book"
	SourceTypePaper   SourceType = "paper"
	SourceTypeVideo   SourceType = "video"
	SourceTypePodcast SourceType = "podcast"
	SourceTypeWebsite SourceType = "website"
	SourceTypeOther   SourceType = "other"
)

// Location is an optional geocoordinate attached to a source.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Source is a citable external reference (article, book, video, ...).
// The slug is globally unique and immutable once published externally.
type Source struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Creator          string     `json:"creator"`
	SourceType       SourceType `json:"source_type"`
	URL              string     `json:"url"`
	Publication      string     `json:"publication"`
	DatePublished    *time.Time `json:"date_published,omitempty"`
	DateEncountered  *time.Time `json:"date_encountered,omitempty"`
	PublicAnnotation string     `json:"public_annotation"`
	PrivateNotes     string     `json:"private_notes"`
	KeyFindings      []string   `json:"key_findings"`
	Tags             []string   `json:"tags"`
	Public           bool       `json:"public"`
	Location         *Location  `json:"location,omitempty"`
	LinkCount        int        `json:"link_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
