package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/queue"
)

type fakeRaws struct {
	database.RawSourceRepositoryInterface
	byID    map[uuid.UUID]*models.RawSource
	byURL   map[string]*models.RawSource
	creates int
	failUpd bool
}

func newFakeRaws() *fakeRaws {
	return &fakeRaws{byID: map[uuid.UUID]*models.RawSource{}, byURL: map[string]*models.RawSource{}}
}

func (f *fakeRaws) Create(_ context.Context, raw *models.RawSource) error {
	f.creates++
	f.byID[raw.ID] = raw
	if raw.URL != "" {
		f.byURL[raw.URL] = raw
	}
	return nil
}

func (f *fakeRaws) GetByID(_ context.Context, id uuid.UUID) (*models.RawSource, error) {
	raw, ok := f.byID[id]
	if !ok {
		return nil, errors.New("raw source not found")
	}
	return raw, nil
}

func (f *fakeRaws) GetByURL(_ context.Context, url string) (*models.RawSource, error) {
	return f.byURL[url], nil
}

func (f *fakeRaws) Update(_ context.Context, raw *models.RawSource) error {
	if f.failUpd {
		return errors.New("update failed")
	}
	f.byID[raw.ID] = raw
	return nil
}

type fakeSourceRepo struct {
	database.SourceRepositoryInterface
	slugs      map[string]bool
	created    []*models.Source
	failCreate bool
}

func newFakeSourceRepo(taken ...string) *fakeSourceRepo {
	slugs := map[string]bool{}
	for _, s := range taken {
		slugs[s] = true
	}
	return &fakeSourceRepo{slugs: slugs}
}

func (f *fakeSourceRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	return f.slugs[slug], nil
}

func (f *fakeSourceRepo) Create(_ context.Context, source *models.Source) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	f.slugs[source.Slug] = true
	f.created = append(f.created, source)
	return nil
}

type fakeQueue struct {
	queue.JobQueue
	jobs []*queue.Job
	fail bool
}

func (f *fakeQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if f.fail {
		return errors.New("queue unavailable")
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"On Walking", "on-walking"},
		{"  Spaces   everywhere  ", "spaces-everywhere"},
		{"Already-slugged", "already-slugged"},
		{"Symbols & punctuation!", "symbols-punctuation"},
		{"UPPER case 123", "upper-case-123"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCapture_URL(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	jobs := &fakeQueue{}
	s := NewService(raws, newFakeSourceRepo(), jobs, nil)

	raw, created, err := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/essay"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !created {
		t.Error("expected a new card")
	}
	if raw.Phase != models.PhaseInbox || raw.Decision != models.DecisionPending {
		t.Errorf("new cards must start pending in the inbox: %+v", raw)
	}
	if raw.ScrapeStatus != models.ScrapeStatusPending {
		t.Error("URL cards must await a scrape")
	}
	if raw.Importance != models.ImportanceMedium {
		t.Errorf("default importance = %s", raw.Importance)
	}
	if len(jobs.jobs) != 1 || jobs.jobs[0].Type != queue.JobTypeScrapeMetadata {
		t.Errorf("expected one scrape job, got %+v", jobs.jobs)
	}
	if jobs.jobs[0].RawSourceID != raw.ID {
		t.Error("scrape job must reference the card")
	}
}

func TestCapture_DuplicateURLReturnsExisting(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	jobs := &fakeQueue{}
	s := NewService(raws, newFakeSourceRepo(), jobs, nil)

	first, _, err := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}

	second, created, err := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if created {
		t.Error("capturing a known URL must not create a card")
	}
	if second.ID != first.ID {
		t.Error("must return the existing card")
	}
	if raws.creates != 1 {
		t.Errorf("creates = %d, want 1", raws.creates)
	}
	if len(jobs.jobs) != 1 {
		t.Errorf("a duplicate capture must not enqueue another scrape, got %d jobs", len(jobs.jobs))
	}
}

func TestCapture_File(t *testing.T) {
	t.Parallel()

	jobs := &fakeQueue{}
	s := NewService(newFakeRaws(), newFakeSourceRepo(), jobs, nil)

	raw, _, err := s.Capture(context.Background(), CaptureInput{FileName: "paper.pdf"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if raw.InputType != models.InputTypeFile {
		t.Errorf("InputType = %s", raw.InputType)
	}
	if raw.ScrapeStatus != models.ScrapeStatusComplete {
		t.Error("file cards have nothing to scrape")
	}
	if len(jobs.jobs) != 0 {
		t.Error("file cards must not enqueue scrape jobs")
	}
}

func TestCapture_EnqueueFailureMarksScrapeFailed(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	s := NewService(raws, newFakeSourceRepo(), &fakeQueue{fail: true}, nil)

	raw, created, err := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/essay"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !created {
		t.Error("the card must still be captured when the queue is down")
	}
	if raw.ScrapeStatus != models.ScrapeStatusFailed {
		t.Errorf("ScrapeStatus = %s, want failed: no worker will ever scrape this card", raw.ScrapeStatus)
	}
	if stored := raws.byID[raw.ID]; stored.ScrapeStatus != models.ScrapeStatusFailed {
		t.Errorf("stored ScrapeStatus = %s, want failed", stored.ScrapeStatus)
	}
}

func TestCapture_NoQueueMarksScrapeFailed(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	s := NewService(raws, newFakeSourceRepo(), nil, nil)

	raw, _, err := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/essay"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if raw.ScrapeStatus != models.ScrapeStatusFailed {
		t.Errorf("ScrapeStatus = %s, want failed when no queue is configured", raw.ScrapeStatus)
	}
}

func TestCapture_RequiresExactlyOneInput(t *testing.T) {
	t.Parallel()

	s := NewService(newFakeRaws(), newFakeSourceRepo(), &fakeQueue{}, nil)

	if _, _, err := s.Capture(context.Background(), CaptureInput{}); err == nil {
		t.Error("empty input must be rejected")
	}
	if _, _, err := s.Capture(context.Background(), CaptureInput{URL: "https://x.test", FileName: "f.pdf"}); err == nil {
		t.Error("both inputs at once must be rejected")
	}
}

func TestCapture_EnqueueFailureStillSavesCard(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	s := NewService(raws, newFakeSourceRepo(), &fakeQueue{fail: true}, nil)

	raw, created, err := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/b"})
	if err != nil {
		t.Fatalf("a queue outage must not fail capture: %v", err)
	}
	if !created || raws.byID[raw.ID] == nil {
		t.Error("card must be saved despite the enqueue failure")
	}
}

func TestMove(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	s := NewService(raws, newFakeSourceRepo(), &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/c"})

	moved, err := s.Move(context.Background(), raw.ID, models.PhaseReview)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.Phase != models.PhaseReview {
		t.Errorf("Phase = %s", moved.Phase)
	}

	if _, err := s.Move(context.Background(), raw.ID, models.PhaseDecided); err == nil {
		t.Error("moving into decided must require triage")
	}
}

func TestTriage_Rejected(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	sources := newFakeSourceRepo()
	s := NewService(raws, sources, &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/d"})

	decided, source, err := s.Triage(context.Background(), raw.ID, models.DecisionRejected, "not relevant")
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if source != nil {
		t.Error("a rejected card must not be promoted")
	}
	if decided.Decision != models.DecisionRejected || decided.Phase != models.PhaseDecided {
		t.Errorf("decision and phase must move together: %+v", decided)
	}
	if decided.DecidedAt == nil {
		t.Error("decided_at must be stamped")
	}
	if decided.DecisionNote != "not relevant" {
		t.Errorf("DecisionNote = %q", decided.DecisionNote)
	}
	if len(sources.created) != 0 {
		t.Error("no source should exist")
	}
}

func TestTriage_AcceptedPromotes(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	sources := newFakeSourceRepo()
	s := NewService(raws, sources, &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/e", Tags: []string{"cities"}})
	raw.OGTitle = "The Death and Life"
	raw.OGSiteName = "Example Press"

	decided, source, err := s.Triage(context.Background(), raw.ID, models.DecisionAccepted, "")
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if source == nil {
		t.Fatal("an accepted card must be promoted")
	}
	if source.Slug != "the-death-and-life" {
		t.Errorf("Slug = %q", source.Slug)
	}
	if source.Title != "The Death and Life" || source.Publication != "Example Press" {
		t.Errorf("scraped metadata must carry over: %+v", source)
	}
	if source.Public {
		t.Error("promoted sources must start private")
	}
	if decided.PromotedSourceSlug != source.Slug {
		t.Error("card must record the promoted slug")
	}
}

func TestTriage_SlugCollisionGetsSuffix(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	sources := newFakeSourceRepo("the-death-and-life", "the-death-and-life-2")
	s := NewService(raws, sources, &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/f"})
	raw.OGTitle = "The Death and Life"

	_, source, err := s.Triage(context.Background(), raw.ID, models.DecisionAccepted, "")
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if source.Slug != "the-death-and-life-3" {
		t.Errorf("Slug = %q, want the-death-and-life-3", source.Slug)
	}
}

func TestTriage_PromotionFailureKeepsDecision(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	sources := newFakeSourceRepo()
	sources.failCreate = true
	s := NewService(raws, sources, &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/g"})

	decided, _, err := s.Triage(context.Background(), raw.ID, models.DecisionAccepted, "")
	var promErr *PromotionError
	if !errors.As(err, &promErr) {
		t.Fatalf("expected a PromotionError, got %v", err)
	}
	if decided.Decision != models.DecisionAccepted || decided.Phase != models.PhaseDecided {
		t.Error("the committed decision must stand when promotion fails")
	}
}

func TestTriage_TwiceRejected(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	s := NewService(raws, newFakeSourceRepo(), &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/h"})

	if _, _, err := s.Triage(context.Background(), raw.ID, models.DecisionDeferred, ""); err != nil {
		t.Fatalf("first triage: %v", err)
	}
	if _, _, err := s.Triage(context.Background(), raw.ID, models.DecisionAccepted, ""); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("second triage must fail with ErrAlreadyDecided, got %v", err)
	}
}

func TestTriage_PendingIsNotADecision(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	s := NewService(raws, newFakeSourceRepo(), &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/i"})

	if _, _, err := s.Triage(context.Background(), raw.ID, models.DecisionPending, ""); err == nil {
		t.Error("pending must be rejected as a triage decision")
	}
}

func TestEnrich(t *testing.T) {
	t.Parallel()

	raws := newFakeRaws()
	s := NewService(raws, newFakeSourceRepo(), &fakeQueue{}, nil)
	raw, _, _ := s.Capture(context.Background(), CaptureInput{URL: "https://example.com/j"})

	high := models.ImportanceHigh
	updated, err := s.Enrich(context.Background(), raw.ID, EnrichInput{Importance: &high, Tags: []string{"urbanism"}})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if updated.Importance != models.ImportanceHigh {
		t.Errorf("Importance = %s", updated.Importance)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "urbanism" {
		t.Errorf("Tags = %v", updated.Tags)
	}
}
