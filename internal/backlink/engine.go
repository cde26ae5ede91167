// Package backlink derives the co-citation graph between content pieces.
//
// Backlinks are computed, not stored: two content pieces are backlinked
// when they cite at least one common source via a SourceLink. For a
// corpus of hundreds of links a full recompute per request is cheap and
// avoids a stored join table that could drift. If the corpus grows,
// wrap these behind a cache keyed by content ref and invalidated on
// link mutation.
package backlink

import (
	"sort"

	"github.com/google/uuid"
	"github.com/nwhitfield/site-studio/internal/models"
)

// SharedSource identifies one source two content pieces have in common.
type SharedSource struct {
	SourceID    uuid.UUID `json:"source_id"`
	SourceTitle string    `json:"source_title"`
}

// Backlink is one content piece related to the query target, with the
// sources they share.
type Backlink struct {
	ContentType   models.ContentType `json:"content_type"`
	ContentSlug   string             `json:"content_slug"`
	ContentTitle  string             `json:"content_title"`
	SharedSources []SharedSource     `json:"shared_sources"`
}

// BacklinksFor finds all content pieces sharing at least one source with
// ref. The target itself is never included. A target with no links
// returns an empty slice. Pure function over the given snapshot of
// links; results are ordered by first encounter in the snapshot.
func BacklinksFor(links []*models.SourceLink, ref models.ContentRef) []Backlink {
	mySources := make(map[uuid.UUID]bool)
	for _, l := range links {
		if l.Ref() == ref {
			mySources[l.SourceID] = true
		}
	}
	if len(mySources) == 0 {
		return []Backlink{}
	}

	byTarget := make(map[models.ContentRef]*Backlink)
	var order []models.ContentRef
	for _, l := range links {
		if !mySources[l.SourceID] || l.Ref() == ref {
			continue
		}
		target := l.Ref()
		entry, ok := byTarget[target]
		if !ok {
			entry = &Backlink{
				ContentType:  l.ContentType,
				ContentSlug:  l.ContentSlug,
				ContentTitle: l.ContentTitle,
			}
			byTarget[target] = entry
			order = append(order, target)
		}
		entry.SharedSources = append(entry.SharedSources, SharedSource{
			SourceID:    l.SourceID,
			SourceTitle: l.SourceTitle,
		})
	}

	result := make([]Backlink, 0, len(order))
	for _, target := range order {
		result = append(result, *byTarget[target])
	}
	return result
}

// All computes the full backlink graph, keyed by "type:slug", for
// publishing to static JSON. Every source cited by two or more content
// pieces contributes every unordered pair of its citers, recorded under
// both directions. Shared-source entries are appended once per co-citing
// link pair without deduplication; the per-tuple uniqueness constraint
// on links means a source still appears at most once per pair. Output
// is deterministic for a given snapshot: source groups are processed in
// sorted ID order and links keep their snapshot order within a group.
func All(links []*models.SourceLink) map[string][]Backlink {
	bySource := make(map[uuid.UUID][]*models.SourceLink)
	var sourceIDs []uuid.UUID
	for _, l := range links {
		if _, seen := bySource[l.SourceID]; !seen {
			sourceIDs = append(sourceIDs, l.SourceID)
		}
		bySource[l.SourceID] = append(bySource[l.SourceID], l)
	}
	sort.Slice(sourceIDs, func(i, j int) bool {
		return sourceIDs[i].String() < sourceIDs[j].String()
	})

	type targetList struct {
		byTarget map[models.ContentRef]*Backlink
		order    []models.ContentRef
	}
	graph := make(map[string]*targetList)

	add := func(from *models.SourceLink, to *models.SourceLink, shared SharedSource) {
		key := from.Ref().Key()
		list, ok := graph[key]
		if !ok {
			list = &targetList{byTarget: make(map[models.ContentRef]*Backlink)}
			graph[key] = list
		}
		target := to.Ref()
		entry, ok := list.byTarget[target]
		if !ok {
			entry = &Backlink{
				ContentType:  to.ContentType,
				ContentSlug:  to.ContentSlug,
				ContentTitle: to.ContentTitle,
			}
			list.byTarget[target] = entry
			list.order = append(list.order, target)
		}
		entry.SharedSources = append(entry.SharedSources, shared)
	}

	for _, sourceID := range sourceIDs {
		group := bySource[sourceID]
		if len(group) < 2 {
			continue
		}
		for i, a := range group {
			for _, b := range group[i+1:] {
				if a.Ref() == b.Ref() {
					continue
				}
				shared := SharedSource{SourceID: sourceID, SourceTitle: a.SourceTitle}
				add(a, b, shared)
				add(b, a, shared)
			}
		}
	}

	result := make(map[string][]Backlink, len(graph))
	for key, list := range graph {
		entries := make([]Backlink, 0, len(list.order))
		for _, target := range list.order {
			entries = append(entries, *list.byTarget[target])
		}
		result[key] = entries
	}
	return result
}
