package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/nwhitfield/site-studio/internal/models"
)

func (r *fakeLinkRepo) GetByID(_ context.Context, id uuid.UUID) (*models.SourceLink, error) {
	for _, l := range r.links {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("link not found")
}

func (r *fakeLinkRepo) Update(_ context.Context, link *models.SourceLink) error {
	for i, l := range r.links {
		if l.ID == link.ID {
			r.links[i] = link
			return nil
		}
	}
	return fmt.Errorf("link not found")
}

func linkBody(sourceID uuid.UUID) map[string]any {
	return map[string]any{
		"source_id":     sourceID.String(),
		"content_type":  "essay",
		"content_slug":  "on-walking",
		"content_title": "On Walking",
		"key_quote":     "A quote worth keeping.",
	}
}

func TestCreateLink(t *testing.T) {
	t.Parallel()

	source := testSource("walking-book")
	h := NewLinkHandler(&fakeLinkRepo{}, newFakeSourceRepo(source))

	rec := doJSON(t, h.CreateLink, http.MethodPost, "/links", nil, linkBody(source.ID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var link models.SourceLink
	decodeData(t, rec, &link)
	if link.ContentTitle != "On Walking" {
		t.Errorf("ContentTitle = %q, want the cited piece's title", link.ContentTitle)
	}
	if link.Role != models.LinkRoleReference {
		t.Errorf("Role = %q, want the reference default", link.Role)
	}
}

func TestCreateLinkDuplicateReturnsExisting(t *testing.T) {
	t.Parallel()

	source := testSource("walking-book")
	linkRepo := &fakeLinkRepo{}
	h := NewLinkHandler(linkRepo, newFakeSourceRepo(source))

	first := doJSON(t, h.CreateLink, http.MethodPost, "/links", nil, linkBody(source.ID))
	if first.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d", first.Code)
	}
	var created models.SourceLink
	decodeData(t, first, &created)

	// Same edge again, different annotations: the existing row wins.
	body := linkBody(source.ID)
	body["key_quote"] = "A different quote."
	second := doJSON(t, h.CreateLink, http.MethodPost, "/links", nil, body)

	if second.Code != http.StatusOK {
		t.Fatalf("duplicate create: expected 200, got %d: %s", second.Code, second.Body.String())
	}
	var existing models.SourceLink
	decodeData(t, second, &existing)
	if existing.ID != created.ID {
		t.Error("duplicate create must return the existing link")
	}
	if existing.KeyQuote != "A quote worth keeping." {
		t.Errorf("duplicate create must not overwrite annotations, got %q", existing.KeyQuote)
	}
	if len(linkRepo.created) != 1 {
		t.Errorf("creates = %d, want 1", len(linkRepo.created))
	}
}

func TestCreateLinkUnknownSource(t *testing.T) {
	t.Parallel()

	h := NewLinkHandler(&fakeLinkRepo{}, newFakeSourceRepo())

	rec := doJSON(t, h.CreateLink, http.MethodPost, "/links", nil, linkBody(uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown source, got %d", rec.Code)
	}
}

func TestCreateLinkRejectsNowPage(t *testing.T) {
	t.Parallel()

	source := testSource("walking-book")
	h := NewLinkHandler(&fakeLinkRepo{}, newFakeSourceRepo(source))

	body := linkBody(source.ID)
	body["content_type"] = "now"
	rec := doJSON(t, h.CreateLink, http.MethodPost, "/links", nil, body)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a now-page citation, got %d", rec.Code)
	}
}

func TestUpdateLink(t *testing.T) {
	t.Parallel()

	source := testSource("walking-book")
	linkRepo := &fakeLinkRepo{}
	h := NewLinkHandler(linkRepo, newFakeSourceRepo(source))

	rec := doJSON(t, h.CreateLink, http.MethodPost, "/links", nil, linkBody(source.ID))
	var created models.SourceLink
	decodeData(t, rec, &created)

	role := string(models.LinkRoleCounterpoint)
	rec = doJSON(t, h.UpdateLink, http.MethodPatch, "/links/"+created.ID.String(),
		map[string]string{"id": created.ID.String()},
		map[string]any{"content_title": "On Walking, Revised", "role": role},
	)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated models.SourceLink
	decodeData(t, rec, &updated)
	if updated.ContentTitle != "On Walking, Revised" {
		t.Errorf("ContentTitle = %q after update", updated.ContentTitle)
	}
	if updated.Role != models.LinkRoleCounterpoint {
		t.Errorf("Role = %q after update", updated.Role)
	}
	if updated.ContentSlug != "on-walking" {
		t.Errorf("edge identity must not change, got slug %q", updated.ContentSlug)
	}
}

func TestGetBacklinks(t *testing.T) {
	t.Parallel()

	source := testSource("walking-book")
	linkRepo := &fakeLinkRepo{}
	h := NewLinkHandler(linkRepo, newFakeSourceRepo(source))

	for slug, title := range map[string]string{"on-walking": "On Walking", "city-paths": "City Paths"} {
		body := linkBody(source.ID)
		body["content_slug"] = slug
		body["content_title"] = title
		if rec := doJSON(t, h.CreateLink, http.MethodPost, "/links", nil, body); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: got %d", slug, rec.Code)
		}
	}

	rec := doJSON(t, h.GetBacklinks, http.MethodGet, "/backlinks/essay/on-walking",
		map[string]string{"type": "essay", "slug": "on-walking"}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var backlinks []map[string]any
	decodeData(t, rec, &backlinks)
	if len(backlinks) != 1 {
		t.Fatalf("expected 1 backlink group, got %d", len(backlinks))
	}
	if backlinks[0]["content_title"] != "City Paths" {
		t.Errorf("backlink must carry the cited piece's title, got %v", backlinks[0]["content_title"])
	}
}
