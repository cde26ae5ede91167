package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want Metadata
	}{
		{
			name: "full og tags",
			html: `<html><head>
				<meta property="og:title" content="A Long Walk">
				<meta property="og:description" content="Notes from the trail.">
				<meta property="og:image" content="https://example.com/walk.jpg">
				<meta property="og:site_name" content="Trail Notes">
			</head><body></body></html>`,
			want: Metadata{
				Title:       "A Long Walk",
				Description: "Notes from the trail.",
				Image:       "https://example.com/walk.jpg",
				SiteName:    "Trail Notes",
			},
		},
		{
			name: "falls back to document title",
			html: `<html><head><title>Plain Page</title></head><body></body></html>`,
			want: Metadata{Title: "Plain Page"},
		},
		{
			name: "og title wins over document title",
			html: `<html><head>
				<title>Doc Title</title>
				<meta property="og:title" content="OG Title">
			</head></html>`,
			want: Metadata{Title: "OG Title"},
		},
		{
			name: "meta name description as fallback",
			html: `<html><head>
				<meta name="description" content="Plain description">
			</head></html>`,
			want: Metadata{Description: "Plain description"},
		},
		{
			name: "self-closing meta tags",
			html: `<html><head><meta property="og:title" content="Closed"/></head></html>`,
			want: Metadata{Title: "Closed"},
		},
		{
			name: "tags after body start are ignored",
			html: `<html><head></head><body>
				<meta property="og:title" content="Too Late">
			</body></html>`,
			want: Metadata{},
		},
		{
			name: "no metadata at all",
			html: `<html><body><p>hello</p></body></html>`,
			want: Metadata{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if *got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Served Page"></head></html>`))
	}))
	defer server.Close()

	s := New(5 * time.Second)
	meta, err := s.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if meta.Title != "Served Page" {
		t.Errorf("Title = %q", meta.Title)
	}
}

func TestFetch_NonHTMLRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	s := New(5 * time.Second)
	if _, err := s.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected an error for non-HTML content")
	}
}

func TestFetch_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	s := New(5 * time.Second)
	if _, err := s.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected an error for a 410 response")
	}
}
