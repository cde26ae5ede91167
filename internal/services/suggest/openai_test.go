package suggest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nwhitfield/site-studio/internal/models"
)

func testCatalog() []ContentSummary {
	return []ContentSummary{
		{Type: models.ContentTypeEssay, Slug: "on-walking", Title: "On Walking"},
		{Type: models.ContentTypeEssay, Slug: "slow-reading", Title: "Slow Reading"},
		{Type: models.ContentTypeProject, Slug: "field-recorder", Title: "Field Recorder"},
		{Type: models.ContentTypeShelf, Slug: "attention", Title: "Attention"},
	}
}

func TestParseSuggestions(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()

	tests := []struct {
		name      string
		content   string
		wantSlugs []string
		wantErr   bool
	}{
		{
			name:      "clean json object",
			content:   `{"suggestions": [{"content_type": "essay", "content_slug": "on-walking", "confidence": 0.9, "reason": "same theme"}]}`,
			wantSlugs: []string{"on-walking"},
		},
		{
			name:      "json wrapped in prose",
			content:   "Here are the connections:\n```json\n{\"suggestions\": [{\"content_type\": \"project\", \"content_slug\": \"field-recorder\", \"confidence\": 0.7, \"reason\": \"related tooling\"}]}\n```",
			wantSlugs: []string{"field-recorder"},
		},
		{
			name:      "unknown catalog entries filtered out",
			content:   `{"suggestions": [{"content_type": "essay", "content_slug": "made-up", "confidence": 0.9, "reason": "x"}, {"content_type": "shelf", "content_slug": "attention", "confidence": 0.5, "reason": "y"}]}`,
			wantSlugs: []string{"attention"},
		},
		{
			name:      "empty suggestions",
			content:   `{"suggestions": []}`,
			wantSlugs: []string{},
		},
		{
			name:    "not json at all",
			content: "I could not find any connections.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseSuggestions(tt.content, catalog)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.wantSlugs) {
				t.Fatalf("expected %d suggestions, got %d", len(tt.wantSlugs), len(got))
			}
			for i, slug := range tt.wantSlugs {
				if got[i].ContentSlug != slug {
					t.Errorf("suggestion %d: expected slug %q, got %q", i, slug, got[i].ContentSlug)
				}
			}
		})
	}
}

func TestParseSuggestionsClampsConfidence(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	content := `{"suggestions": [
		{"content_type": "essay", "content_slug": "on-walking", "confidence": 1.7, "reason": "a"},
		{"content_type": "essay", "content_slug": "slow-reading", "confidence": -0.3, "reason": "b"}
	]}`

	got, err := parseSuggestions(content, catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %f", got[0].Confidence)
	}
	if got[1].Confidence != 0 {
		t.Errorf("expected confidence clamped to 0, got %f", got[1].Confidence)
	}
}

func TestParseSuggestionsCapsCount(t *testing.T) {
	t.Parallel()

	catalog := make([]ContentSummary, 0, MaxSuggestions+3)
	var b strings.Builder
	b.WriteString(`{"suggestions": [`)
	for i := 0; i < MaxSuggestions+3; i++ {
		slug := "entry-" + strings.Repeat("x", i+1)
		catalog = append(catalog, ContentSummary{Type: models.ContentTypeEssay, Slug: slug})
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"content_type": "essay", "content_slug": "` + slug + `", "confidence": 0.5, "reason": "r"}`)
	}
	b.WriteString(`]}`)

	got, err := parseSuggestions(b.String(), catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != MaxSuggestions {
		t.Errorf("expected %d suggestions, got %d", MaxSuggestions, len(got))
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	card := &models.RawSource{
		ID:            uuid.New(),
		URL:           "https://example.com/essay",
		OGTitle:       "The Craft of Attention",
		OGDescription: "An essay about noticing.",
		OGSiteName:    "Example Journal",
		Tags:          []string{"attention", "craft"},
	}

	prompt, err := buildPrompt(card, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"The Craft of Attention",
		"https://example.com/essay",
		"An essay about noticing.",
		"Example Journal",
		"attention, craft",
		"on-walking",
		"field-recorder",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantNil       bool
		wantPermanent bool
		wantCode      string
	}{
		{
			name:    "nil error",
			err:     nil,
			wantNil: true,
		},
		{
			name:    "unrelated error",
			err:     errors.New("connection refused"),
			wantNil: true,
		},
		{
			name:     "rate limit with json body",
			err:      errors.New(`POST 429: {"message": "Rate limit reached", "type": "rate_limit_error", "code": "rate_limit_exceeded"}`),
			wantCode: "rate_limit_exceeded",
		},
		{
			name:          "quota exhausted",
			err:           errors.New(`POST 429: {"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"}`),
			wantPermanent: true,
			wantCode:      "insufficient_quota",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractAPIError(tt.err)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected an API error, got nil")
			}
			if got.IsPermanent != tt.wantPermanent {
				t.Errorf("expected IsPermanent=%v, got %v", tt.wantPermanent, got.IsPermanent)
			}
			if got.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, got.Code)
			}
		})
	}
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	quotaErr := errors.New(`429: {"message": "quota", "code": "insufficient_quota"}`)
	rateErr := errors.New("429 too many requests")
	otherErr := errors.New("transient failure")

	if d := GetRetryDelay(quotaErr, 0); d != time.Hour {
		t.Errorf("quota attempt 0: expected 1h, got %v", d)
	}
	if d := GetRetryDelay(quotaErr, 10); d != 24*time.Hour {
		t.Errorf("quota attempt 10: expected 24h cap, got %v", d)
	}
	if d := GetRetryDelay(rateErr, 0); d != 60*time.Second {
		t.Errorf("rate attempt 0: expected 60s, got %v", d)
	}
	if d := GetRetryDelay(rateErr, 8); d != 15*time.Minute {
		t.Errorf("rate attempt 8: expected 15m cap, got %v", d)
	}
	if d := GetRetryDelay(otherErr, 0); d != 5*time.Second {
		t.Errorf("other attempt 0: expected 5s, got %v", d)
	}
	if d := GetRetryDelay(otherErr, 9); d != 5*time.Minute {
		t.Errorf("other attempt 9: expected 5m cap, got %v", d)
	}
}
