package serialize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nwhitfield/site-studio/internal/backlink"
	"github.com/nwhitfield/site-studio/internal/models"
)

// External JSON uses camelCase; each key maps to exactly one internal
// field. Absent relations serialize to explicit empty containers, and
// absent dates to null, so consumers never branch on missing keys. The
// only exception is location, whose keys are omitted entirely when a
// source has no location.

// SourceJSON is the published shape of one source.
type SourceJSON struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Creator          string    `json:"creator"`
	SourceType       string    `json:"sourceType"`
	URL              string    `json:"url"`
	Publication      string    `json:"publication"`
	DatePublished    *string   `json:"datePublished"`
	DateEncountered  *string   `json:"dateEncountered"`
	PublicAnnotation string    `json:"publicAnnotation"`
	KeyFindings      []string  `json:"keyFindings"`
	Tags             []string  `json:"tags"`
	LinkCount        int       `json:"linkCount"`
	LocationName     string    `json:"locationName,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
}

// LinkJSON is the published shape of one citation link.
type LinkJSON struct {
	SourceID     uuid.UUID `json:"sourceId"`
	SourceTitle  string    `json:"sourceTitle"`
	SourceSlug   string    `json:"sourceSlug"`
	ContentType  string    `json:"contentType"`
	ContentSlug  string    `json:"contentSlug"`
	ContentTitle string    `json:"contentTitle"`
	Role         string    `json:"role"`
	KeyQuote     string    `json:"keyQuote"`
	DateLinked   *string   `json:"dateLinked"`
}

// ThreadJSON is the published shape of one research thread.
type ThreadJSON struct {
	ID                 uuid.UUID         `json:"id"`
	Title              string            `json:"title"`
	Slug               string            `json:"slug"`
	Description        string            `json:"description"`
	Status             string            `json:"status"`
	StartedDate        *string           `json:"startedDate"`
	CompletedDate      *string           `json:"completedDate"`
	ResultingEssaySlug string            `json:"resultingEssaySlug"`
	Tags               []string          `json:"tags"`
	Entries            []ThreadEntryJSON `json:"entries"`
}

// ThreadEntryJSON is one entry within a published thread.
type ThreadEntryJSON struct {
	EntryType     string     `json:"entryType"`
	Date          string     `json:"date"`
	Order         int        `json:"order"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	SourceID      *uuid.UUID `json:"sourceId"`
	FieldNoteSlug string     `json:"fieldNoteSlug"`
}

// BacklinkJSON is one backlink entry in the published graph.
type BacklinkJSON struct {
	ContentType   string             `json:"contentType"`
	ContentSlug   string             `json:"contentSlug"`
	SharedSources []SharedSourceJSON `json:"sharedSources"`
}

// SharedSourceJSON identifies one shared source within a backlink.
type SharedSourceJSON struct {
	SourceID    uuid.UUID `json:"sourceId"`
	SourceTitle string    `json:"sourceTitle"`
}

// Source maps a source to its published shape.
func Source(s *models.Source) SourceJSON {
	out := SourceJSON{
		ID:               s.ID,
		Title:            s.Title,
		Slug:             s.Slug,
		Creator:          s.Creator,
		SourceType:       string(s.SourceType),
		URL:              s.URL,
		Publication:      s.Publication,
		DatePublished:    datePtr(s.DatePublished),
		DateEncountered:  datePtr(s.DateEncountered),
		PublicAnnotation: s.PublicAnnotation,
		KeyFindings:      tags(s.KeyFindings),
		Tags:             tags(s.Tags),
		LinkCount:        s.LinkCount,
	}
	if s.Location != nil {
		out.LocationName = s.Location.Name
		lat, lng := s.Location.Latitude, s.Location.Longitude
		out.Latitude = &lat
		out.Longitude = &lng
	}
	return out
}

// Link maps a citation link to its published shape.
func Link(l *models.SourceLink) LinkJSON {
	return LinkJSON{
		SourceID:     l.SourceID,
		SourceTitle:  l.SourceTitle,
		SourceSlug:   l.SourceSlug,
		ContentType:  string(l.ContentType),
		ContentSlug:  l.ContentSlug,
		ContentTitle: l.ContentTitle,
		Role:         string(l.Role),
		KeyQuote:     l.KeyQuote,
		DateLinked:   datePtr(l.DateLinked),
	}
}

// Thread maps a research thread, entries included, to its published shape.
func Thread(t *models.ResearchThread) ThreadJSON {
	entries := make([]ThreadEntryJSON, 0, len(t.Entries))
	for _, e := range t.Entries {
		entries = append(entries, ThreadEntryJSON{
			EntryType:     string(e.EntryType),
			Date:          e.Date.UTC().Format(dateLayout),
			Order:         e.Order,
			Title:         e.Title,
			Description:   e.Description,
			SourceID:      e.SourceID,
			FieldNoteSlug: e.FieldNoteSlug,
		})
	}
	return ThreadJSON{
		ID:                 t.ID,
		Title:              t.Title,
		Slug:               t.Slug,
		Description:        t.Description,
		Status:             string(t.Status),
		StartedDate:        datePtr(t.StartedDate),
		CompletedDate:      datePtr(t.CompletedDate),
		ResultingEssaySlug: t.ResultingEssaySlug,
		Tags:               tags(t.Tags),
		Entries:            entries,
	}
}

// Backlinks maps the computed graph to its published shape, keyed by
// "type:slug".
func Backlinks(graph map[string][]backlink.Backlink) map[string][]BacklinkJSON {
	out := make(map[string][]BacklinkJSON, len(graph))
	for key, entries := range graph {
		mapped := make([]BacklinkJSON, 0, len(entries))
		for _, bl := range entries {
			shared := make([]SharedSourceJSON, 0, len(bl.SharedSources))
			for _, s := range bl.SharedSources {
				shared = append(shared, SharedSourceJSON{
					SourceID:    s.SourceID,
					SourceTitle: s.SourceTitle,
				})
			}
			mapped = append(mapped, BacklinkJSON{
				ContentType:   string(bl.ContentType),
				ContentSlug:   bl.ContentSlug,
				SharedSources: shared,
			})
		}
		out[key] = mapped
	}
	return out
}

// ToJSON renders any published shape as two-space-indented JSON with a
// trailing newline. Map keys sort lexically; struct keys keep
// declaration order.
func ToJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}
