// Package suggest proposes connections between freshly captured intake
// cards and existing content, using a language model to compare the
// card's scraped metadata against the content catalog.
package suggest

import (
	"context"

	"github.com/nwhitfield/site-studio/internal/models"
)

// ContentSummary is one catalog entry offered to the model as a
// candidate connection target.
type ContentSummary struct {
	Type    models.ContentType `json:"type"`
	Slug    string             `json:"slug"`
	Title   string             `json:"title"`
	Summary string             `json:"summary"`
	Tags    []string           `json:"tags"`
}

// Suggestion is one proposed connection.
type Suggestion struct {
	ContentType models.ContentType `json:"content_type"`
	ContentSlug string             `json:"content_slug"`
	Confidence  float64            `json:"confidence"`
	Reason      string             `json:"reason"`
}

// Provider proposes connections for an intake card.
type Provider interface {
	SuggestConnections(ctx context.Context, card *models.RawSource, catalog []ContentSummary) ([]Suggestion, error)
}
