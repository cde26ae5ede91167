package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreadStatus is the lifecycle state of a research thread.
type ThreadStatus string

const (
	ThreadStatusActive   ThreadStatus = "active"
	ThreadStatusPaused   ThreadStatus = "paused"
	ThreadStatusComplete ThreadStatus = "complete"
)

// EntryType distinguishes milestone entries (pointing at a source) from
// freeform notes.
type EntryType string

const (
	EntryTypeMilestone EntryType = "milestone"
	EntryTypeNote      EntryType = "note"
)

// ResearchThread is an ordered research narrative.
type ResearchThread struct {
	ID                 uuid.UUID     `json:"id"`
	Title              string        `json:"title"`
	Slug               string        `json:"slug"`
	Description        string        `json:"description"`
	Status             ThreadStatus  `json:"status"`
	StartedDate        *time.Time    `json:"started_date,omitempty"`
	CompletedDate      *time.Time    `json:"completed_date,omitempty"`
	ResultingEssaySlug string        `json:"resulting_essay_slug"`
	Tags               []string      `json:"tags"`
	Public             bool          `json:"public"`
	Entries            []ThreadEntry `json:"entries"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// ThreadEntry is one step in a thread, ordered by Order ascending with
// ties broken by Date descending.
type ThreadEntry struct {
	ID            uuid.UUID  `json:"id"`
	ThreadID      uuid.UUID  `json:"thread_id"`
	EntryType     EntryType  `json:"entry_type"`
	Date          time.Time  `json:"date"`
	Order         int        `json:"order"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	SourceID      *uuid.UUID `json:"source_id,omitempty"`
	FieldNoteSlug string     `json:"field_note_slug"`
}
