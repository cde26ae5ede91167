package models

import (
	"time"

	"github.com/google/uuid"
)

// PublishDataType is what kind of data a publish commit contained.
type PublishDataType string

const (
	PublishDataEssay      PublishDataType = "essay"
	PublishDataFieldNote  PublishDataType = "field_note"
	PublishDataShelf      PublishDataType = "shelf"
	PublishDataProject    PublishDataType = "project"
	PublishDataToolkit    PublishDataType = "toolkit"
	PublishDataNow        PublishDataType = "now"
	PublishDataSiteConfig PublishDataType = "site_config"
	PublishDataResearch   PublishDataType = "research"
)

// PublishLog is one append-only audit entry per publish attempt. Entries
// are never mutated after creation; only the publish orchestrator writes
// them.
type PublishLog struct {
	ID           uuid.UUID       `json:"id"`
	DataType     PublishDataType `json:"data_type"`
	ContentSlug  string          `json:"content_slug"`
	ContentTitle string          `json:"content_title"`
	RecordCount  int             `json:"record_count"`
	CommitSHA    string          `json:"commit_sha"`
	CommitURL    string          `json:"commit_url"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
}
