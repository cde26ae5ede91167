package backlink

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nwhitfield/site-studio/internal/models"
)

func link(sourceID uuid.UUID, sourceTitle string, ct models.ContentType, slug, title string) *models.SourceLink {
	return &models.SourceLink{
		ID:           uuid.New(),
		SourceID:     sourceID,
		SourceTitle:  sourceTitle,
		ContentType:  ct,
		ContentSlug:  slug,
		ContentTitle: title,
	}
}

func TestBacklinksFor_Symmetry(t *testing.T) {
	t.Parallel()

	s1 := uuid.New()
	links := []*models.SourceLink{
		link(s1, "Death and Life", models.ContentTypeEssay, "housing", "Housing"),
		link(s1, "Death and Life", models.ContentTypeFieldNote, "walkability", "Walkability"),
	}

	a := models.ContentRef{Type: models.ContentTypeEssay, Slug: "housing"}
	b := models.ContentRef{Type: models.ContentTypeFieldNote, Slug: "walkability"}

	fromA := BacklinksFor(links, a)
	if len(fromA) != 1 {
		t.Fatalf("expected 1 backlink from essay, got %d", len(fromA))
	}
	if fromA[0].ContentSlug != "walkability" || fromA[0].ContentType != models.ContentTypeFieldNote {
		t.Errorf("unexpected target: %+v", fromA[0])
	}
	if len(fromA[0].SharedSources) != 1 || fromA[0].SharedSources[0].SourceID != s1 {
		t.Errorf("expected shared source %s, got %+v", s1, fromA[0].SharedSources)
	}

	fromB := BacklinksFor(links, b)
	if len(fromB) != 1 {
		t.Fatalf("expected 1 backlink from field note, got %d", len(fromB))
	}
	if fromB[0].ContentSlug != "housing" {
		t.Errorf("expected housing, got %s", fromB[0].ContentSlug)
	}
	if fromB[0].SharedSources[0].SourceTitle != "Death and Life" {
		t.Errorf("expected shared source title carried over, got %q", fromB[0].SharedSources[0].SourceTitle)
	}
}

func TestBacklinksFor_SelfExcluded(t *testing.T) {
	t.Parallel()

	s1 := uuid.New()
	links := []*models.SourceLink{
		link(s1, "S1", models.ContentTypeEssay, "a", "A"),
		link(s1, "S1", models.ContentTypeEssay, "b", "B"),
	}

	for _, bl := range BacklinksFor(links, models.ContentRef{Type: models.ContentTypeEssay, Slug: "a"}) {
		if bl.ContentSlug == "a" && bl.ContentType == models.ContentTypeEssay {
			t.Error("backlinks must never include the query target itself")
		}
	}
}

func TestBacklinksFor_NoLinks(t *testing.T) {
	t.Parallel()

	s1 := uuid.New()
	links := []*models.SourceLink{
		link(s1, "S1", models.ContentTypeEssay, "a", "A"),
	}

	got := BacklinksFor(links, models.ContentRef{Type: models.ContentTypeProject, Slug: "unlinked"})
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("content with no links must have no backlinks, got %d", len(got))
	}
}

func TestBacklinksFor_MultipleSharedSources(t *testing.T) {
	t.Parallel()

	s1, s2 := uuid.New(), uuid.New()
	links := []*models.SourceLink{
		link(s1, "S1", models.ContentTypeEssay, "a", "A"),
		link(s2, "S2", models.ContentTypeEssay, "a", "A"),
		link(s1, "S1", models.ContentTypeFieldNote, "b", "B"),
		link(s2, "S2", models.ContentTypeFieldNote, "b", "B"),
	}

	got := BacklinksFor(links, models.ContentRef{Type: models.ContentTypeEssay, Slug: "a"})
	if len(got) != 1 {
		t.Fatalf("expected a single grouped target, got %d", len(got))
	}
	if len(got[0].SharedSources) != 2 {
		t.Errorf("expected both shared sources listed, got %+v", got[0].SharedSources)
	}
}

func TestAll_Graph(t *testing.T) {
	t.Parallel()

	// Links (S1, essay:A), (S1, field_note:B), (S2, essay:A), (S2, project:C).
	s1, s2 := uuid.New(), uuid.New()
	links := []*models.SourceLink{
		link(s1, "S1", models.ContentTypeEssay, "a", "A"),
		link(s1, "S1", models.ContentTypeFieldNote, "b", "B"),
		link(s2, "S2", models.ContentTypeEssay, "a", "A"),
		link(s2, "S2", models.ContentTypeProject, "c", "C"),
	}

	graph := All(links)

	fromA := graph["essay:a"]
	if len(fromA) != 2 {
		t.Fatalf("essay:a should link to field_note:b and project:c, got %+v", fromA)
	}
	targets := map[string]uuid.UUID{}
	for _, bl := range fromA {
		if len(bl.SharedSources) != 1 {
			t.Errorf("expected exactly one shared source per target, got %+v", bl.SharedSources)
			continue
		}
		targets[string(bl.ContentType)+":"+bl.ContentSlug] = bl.SharedSources[0].SourceID
	}
	if targets["field_note:b"] != s1 {
		t.Errorf("essay:a -> field_note:b should share S1, got %s", targets["field_note:b"])
	}
	if targets["project:c"] != s2 {
		t.Errorf("essay:a -> project:c should share S2, got %s", targets["project:c"])
	}

	fromB := graph["field_note:b"]
	if len(fromB) != 1 {
		t.Fatalf("field_note:b should link only to essay:a, got %+v", fromB)
	}
	if fromB[0].ContentSlug != "a" || fromB[0].ContentType != models.ContentTypeEssay {
		t.Errorf("unexpected target for field_note:b: %+v", fromB[0])
	}

	if _, ok := graph["project:c"]; !ok {
		t.Error("graph must contain the symmetric project:c entry")
	}
}

func TestAll_SingleCiterProducesNothing(t *testing.T) {
	t.Parallel()

	s1 := uuid.New()
	links := []*models.SourceLink{
		link(s1, "S1", models.ContentTypeEssay, "lonely", "Lonely"),
	}

	if graph := All(links); len(graph) != 0 {
		t.Errorf("a source with a single citer creates no pairs, got %+v", graph)
	}
}

func TestAll_Deterministic(t *testing.T) {
	t.Parallel()

	s1, s2, s3 := uuid.New(), uuid.New(), uuid.New()
	links := []*models.SourceLink{
		link(s1, "S1", models.ContentTypeEssay, "a", "A"),
		link(s1, "S1", models.ContentTypeFieldNote, "b", "B"),
		link(s2, "S2", models.ContentTypeEssay, "a", "A"),
		link(s2, "S2", models.ContentTypeFieldNote, "b", "B"),
		link(s3, "S3", models.ContentTypeEssay, "a", "A"),
		link(s3, "S3", models.ContentTypeProject, "c", "C"),
	}

	first := All(links)
	for i := 0; i < 20; i++ {
		again := All(links)
		for key, entries := range first {
			other := again[key]
			if len(other) != len(entries) {
				t.Fatalf("run %d: entry count changed for %s", i, key)
			}
			for j := range entries {
				if entries[j].ContentSlug != other[j].ContentSlug {
					t.Fatalf("run %d: ordering changed for %s", i, key)
				}
				for k := range entries[j].SharedSources {
					if entries[j].SharedSources[k] != other[j].SharedSources[k] {
						t.Fatalf("run %d: shared source ordering changed for %s", i, key)
					}
				}
			}
		}
	}
}
