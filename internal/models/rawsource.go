package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a card's position on the intake board. It is independent of
// the triage decision: a deferred card still sits in "decided".
type Phase string

const (
	PhaseInbox   Phase = "inbox"
	PhaseReview  Phase = "review"
	PhaseDecided Phase = "decided"
)

// Decision is the triage verdict for an intake card.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
	DecisionDeferred Decision = "deferred"
)

// ScrapeStatus tracks the asynchronous metadata scrape for a card.
type ScrapeStatus string

const (
	ScrapeStatusPending  ScrapeStatus = "pending"
	ScrapeStatusComplete ScrapeStatus = "complete"
	ScrapeStatusFailed   ScrapeStatus = "failed"
)

// Importance is an editor-assigned enrichment level.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// InputType records how a card entered the system.
type InputType string

const (
	InputTypeURL  InputType = "url"
	InputTypeFile InputType = "file"
)

// RawSource is a triage card: a URL or file captured for research
// consideration, enriched by the scrape worker and decided by the
// operator. On acceptance it is promoted to a Source; the promotion is
// recorded by slug reference only, never a foreign key.
type RawSource struct {
	ID            uuid.UUID    `json:"id"`
	URL           string       `json:"url"`
	FileName      string       `json:"file_name"`
	InputType     InputType    `json:"input_type"`
	OGTitle       string       `json:"og_title"`
	OGDescription string       `json:"og_description"`
	OGImage       string       `json:"og_image"`
	OGSiteName    string       `json:"og_site_name"`
	Phase         Phase        `json:"phase"`
	ScrapeStatus  ScrapeStatus `json:"scrape_status"`
	Importance    Importance   `json:"importance"`
	Tags          []string     `json:"tags"`
	Decision      Decision     `json:"decision"`
	DecisionNote  string       `json:"decision_note"`
	DecidedAt     *time.Time   `json:"decided_at,omitempty"`

	// Set when an accepted card has been promoted to a Source.
	PromotedSourceSlug string `json:"promoted_source_slug"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayTitle is the scraped title with URL or filename fallback.
func (r *RawSource) DisplayTitle() string {
	switch {
	case r.OGTitle != "":
		return r.OGTitle
	case r.URL != "":
		return r.URL
	case r.FileName != "":
		return r.FileName
	default:
		return "Untitled source"
	}
}

// IsPending reports whether the card has not been triaged yet.
func (r *RawSource) IsPending() bool {
	return r.Decision == DecisionPending
}

// SuggestedConnection is an engine-generated proposal linking an intake
// card to existing content. Accepted is tri-state: nil means undecided.
type SuggestedConnection struct {
	ID           uuid.UUID   `json:"id"`
	RawSourceID  uuid.UUID   `json:"raw_source_id"`
	ContentType  ContentType `json:"content_type"`
	ContentSlug  string      `json:"content_slug"`
	ContentTitle string      `json:"content_title"`
	Confidence   float64     `json:"confidence"`
	Reason       string      `json:"reason"`
	Accepted     *bool       `json:"accepted,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
