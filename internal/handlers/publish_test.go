package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/gitstore"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/publisher"
)

type stubWriter struct {
	fail    bool
	writes  int
	deletes int
}

func (w *stubWriter) result() gitstore.Result {
	if w.fail {
		return gitstore.Result{Success: false, Error: "github: 502 Bad Gateway"}
	}
	return gitstore.Result{Success: true, CommitSHA: "abc123", CommitURL: "https://example.com/commit/abc123"}
}

func (w *stubWriter) Write(_ context.Context, _, _, _ string) gitstore.Result {
	w.writes++
	return w.result()
}

func (w *stubWriter) WriteMany(_ context.Context, ops []gitstore.FileOp, _ string) gitstore.Result {
	w.writes += len(ops)
	return w.result()
}

func (w *stubWriter) Delete(_ context.Context, _, _ string) gitstore.Result {
	w.deletes++
	return w.result()
}

type fakeLogRepo struct {
	database.PublishLogRepositoryInterface
	entries []*models.PublishLog
	last    *models.PublishLog
}

func (r *fakeLogRepo) Create(_ context.Context, entry *models.PublishLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) List(_ context.Context, dataType *models.PublishDataType, success *bool, limit int) ([]*models.PublishLog, error) {
	var out []*models.PublishLog
	for _, e := range r.entries {
		if dataType != nil && e.DataType != *dataType {
			continue
		}
		if success != nil && e.Success != *success {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeLogRepo) LastSuccess(_ context.Context, _ models.PublishDataType) (*models.PublishLog, error) {
	return r.last, nil
}

type stubEssayStore struct {
	essay   *models.Essay
	deleted bool
}

func (s *stubEssayStore) GetBySlug(_ context.Context, slug string) (*models.Essay, error) {
	if s.essay == nil || s.essay.Slug != slug {
		return nil, fmt.Errorf("essay not found")
	}
	return s.essay, nil
}

func (s *stubEssayStore) SetDraft(_ context.Context, slug string, draft bool) error {
	if s.essay == nil || s.essay.Slug != slug {
		return fmt.Errorf("essay not found")
	}
	s.essay.Draft = draft
	return nil
}

func (s *stubEssayStore) Delete(_ context.Context, _ uuid.UUID) error {
	s.deleted = true
	return nil
}

func draftEssay(slug string) *models.Essay {
	return &models.Essay{
		ID:    uuid.New(),
		Title: "On Walking",
		Slug:  slug,
		Body:  "A walk is a unit of attention.",
		Draft: true,
	}
}

func newPublishHandler(writer *stubWriter, logs *fakeLogRepo, essays *stubEssayStore) *PublishHandler {
	pub := publisher.New(publisher.Deps{
		Writer: writer,
		Logs:   logs,
		Essays: essays,
	})
	return NewPublishHandler(pub, logs)
}

func TestPublishContentEssay(t *testing.T) {
	t.Parallel()

	writer := &stubWriter{}
	logs := &fakeLogRepo{}
	essays := &stubEssayStore{essay: draftEssay("on-walking")}
	h := newPublishHandler(writer, logs, essays)

	rec := doJSON(t, h.PublishContent, http.MethodPost, "/publish/content/essay/on-walking",
		map[string]string{"type": "essay", "slug": "on-walking"}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if writer.writes != 1 {
		t.Errorf("expected 1 commit, got %d", writer.writes)
	}
	if essays.essay.Draft {
		t.Error("expected draft flag cleared after confirmed commit")
	}

	var entry models.PublishLog
	decodeData(t, rec, &entry)
	if !entry.Success {
		t.Error("expected successful audit entry")
	}
	if entry.CommitSHA != "abc123" {
		t.Errorf("expected commit sha in entry, got %q", entry.CommitSHA)
	}
}

func TestPublishContentFailureKeepsDraft(t *testing.T) {
	t.Parallel()

	writer := &stubWriter{fail: true}
	logs := &fakeLogRepo{}
	essays := &stubEssayStore{essay: draftEssay("on-walking")}
	h := newPublishHandler(writer, logs, essays)

	rec := doJSON(t, h.PublishContent, http.MethodPost, "/publish/content/essay/on-walking",
		map[string]string{"type": "essay", "slug": "on-walking"}, nil)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !essays.essay.Draft {
		t.Error("draft flag must survive a failed commit")
	}
	if len(logs.entries) != 1 || logs.entries[0].Success {
		t.Errorf("expected 1 failed audit entry, got %+v", logs.entries)
	}

	var entry models.PublishLog
	decodeData(t, rec, &entry)
	if entry.ErrorMessage == "" {
		t.Error("expected audit entry with error in response body")
	}
}

func TestPublishContentRejectsInvalidType(t *testing.T) {
	t.Parallel()

	h := newPublishHandler(&stubWriter{}, &fakeLogRepo{}, &stubEssayStore{})

	for _, typ := range []string{"now", "letter"} {
		rec := doJSON(t, h.PublishContent, http.MethodPost, "/publish/content/"+typ+"/x",
			map[string]string{"type": typ, "slug": "x"}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("type %q: expected 400, got %d", typ, rec.Code)
		}
	}
}

func TestDeleteContentDraftSkipsStore(t *testing.T) {
	t.Parallel()

	writer := &stubWriter{}
	essays := &stubEssayStore{essay: draftEssay("on-walking")}
	h := newPublishHandler(writer, &fakeLogRepo{}, essays)

	rec := doJSON(t, h.DeleteContent, http.MethodDelete, "/publish/content/essay/on-walking",
		map[string]string{"type": "essay", "slug": "on-walking"}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if writer.deletes != 0 {
		t.Errorf("draft delete must not touch the store, got %d deletes", writer.deletes)
	}
	if !essays.deleted {
		t.Error("expected local row deleted")
	}
}

func TestDeleteContentPublishedCommitsFirst(t *testing.T) {
	t.Parallel()

	writer := &stubWriter{}
	essay := draftEssay("on-walking")
	essay.Draft = false
	essays := &stubEssayStore{essay: essay}
	h := newPublishHandler(writer, &fakeLogRepo{}, essays)

	rec := doJSON(t, h.DeleteContent, http.MethodDelete, "/publish/content/essay/on-walking",
		map[string]string{"type": "essay", "slug": "on-walking"}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if writer.deletes != 1 {
		t.Errorf("expected 1 store delete, got %d", writer.deletes)
	}
	if !essays.deleted {
		t.Error("expected local row deleted after confirmed commit")
	}
}

func TestListLogsFilters(t *testing.T) {
	t.Parallel()

	logs := &fakeLogRepo{entries: []*models.PublishLog{
		{ID: uuid.New(), DataType: models.PublishDataEssay, Success: true},
		{ID: uuid.New(), DataType: models.PublishDataEssay, Success: false},
		{ID: uuid.New(), DataType: models.PublishDataResearch, Success: true},
	}}
	h := NewPublishHandler(nil, logs)

	rec := doJSON(t, h.ListLogs, http.MethodGet, "/publish/logs?data_type=essay&success=true", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []*models.PublishLog
	decodeData(t, rec, &got)
	if len(got) != 1 {
		t.Errorf("expected 1 entry, got %d", len(got))
	}
}

func TestListLogsRejectsBadLimit(t *testing.T) {
	t.Parallel()

	h := NewPublishHandler(nil, &fakeLogRepo{})

	for _, limit := range []string{"0", "-5", "9999", "many"} {
		rec := doJSON(t, h.ListLogs, http.MethodGet, "/publish/logs?limit="+limit, nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected 400, got %d", limit, rec.Code)
		}
	}
}

func TestLastSuccess(t *testing.T) {
	t.Parallel()

	logs := &fakeLogRepo{last: &models.PublishLog{ID: uuid.New(), DataType: models.PublishDataResearch, Success: true}}
	h := NewPublishHandler(nil, logs)

	rec := doJSON(t, h.LastSuccess, http.MethodGet, "/publish/logs/last-success?data_type=research", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	missing := NewPublishHandler(nil, &fakeLogRepo{})
	rec = doJSON(t, missing.LastSuccess, http.MethodGet, "/publish/logs/last-success?data_type=research", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when nothing succeeded yet, got %d", rec.Code)
	}
}
