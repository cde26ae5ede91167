package models

import (
	"time"

	"github.com/google/uuid"
)

// Content entities are the editable records behind the static site's
// markdown files. Essays, field notes, and projects carry a draft flag
// the publisher flips on a confirmed commit; shelf and toolkit entries
// and the Now page are published as saved.

// Essay is a long-form piece.
type Essay struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Subtitle      string     `json:"subtitle"`
	Summary       string     `json:"summary"`
	Body          string     `json:"body"`
	Tags          []string   `json:"tags"`
	HeroImage     string     `json:"hero_image"`
	Draft         bool       `json:"draft"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FieldNote is a short observational piece, optionally geolocated.
type FieldNote struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Summary   string     `json:"summary"`
	Body      string     `json:"body"`
	Tags      []string   `json:"tags"`
	Location  *Location  `json:"location,omitempty"`
	Draft     bool       `json:"draft"`
	NotedDate *time.Time `json:"noted_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Project is a portfolio entry.
type Project struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary"`
	Body        string     `json:"body"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	URL         string     `json:"url"`
	Draft       bool       `json:"draft"`
	StartedDate *time.Time `json:"started_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ShelfEntry is a book/album/film record. No draft flag.
type ShelfEntry struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Creator      string     `json:"creator"`
	ShelfType    string     `json:"shelf_type"`
	Status       string     `json:"status"`
	Rating       int        `json:"rating"`
	Body         string     `json:"body"`
	Tags         []string   `json:"tags"`
	FinishedDate *time.Time `json:"finished_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToolkitEntry is a tool/resource recommendation. No draft flag.
type ToolkitEntry struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	URL       string    `json:"url"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NowPage is the singleton "what I'm doing now" page.
type NowPage struct {
	ID        uuid.UUID `json:"id"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
