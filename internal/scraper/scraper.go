// Package scraper fetches Open Graph metadata for captured URLs. The
// scrape is best-effort enrichment: a page without OG tags falls back
// to the document title, and network failures surface as errors the
// worker records as a failed scrape without blocking triage.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxBodyBytes bounds how much of a page is read looking for metadata.
// OG tags live in <head>, so 1 MiB is generous.
const maxBodyBytes = 1 << 20

// Metadata is the Open Graph data extracted from a page.
type Metadata struct {
	Title       string
	Description string
	Image       string
	SiteName    string
}

// Scraper fetches and parses page metadata.
type Scraper struct {
	client    *http.Client
	userAgent string
}

// New creates a scraper with a bounded request timeout.
func New(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: "site-studio/1.0 (+metadata fetch)",
	}
}

// Fetch retrieves a page and extracts its Open Graph metadata.
func (s *Scraper) Fetch(ctx context.Context, url string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return nil, fmt.Errorf("fetch %s returned non-HTML content type %q", url, contentType)
	}

	meta, err := Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	return meta, nil
}

// Parse extracts Open Graph metadata from an HTML stream. The document
// <title> is used when og:title is absent.
func Parse(r io.Reader) (*Metadata, error) {
	meta := &Metadata{}
	var docTitle string

	tokenizer := html.NewTokenizer(r)
	inTitle := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, err
			}
			if meta.Title == "" {
				meta.Title = strings.TrimSpace(docTitle)
			}
			return meta, nil

		case html.TextToken:
			if inTitle {
				docTitle += string(tokenizer.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			tag := string(name)

			if tag == "title" {
				inTitle = true
				continue
			}

			// Metadata lives in <head>; stop once the body starts.
			if tag == "body" {
				if meta.Title == "" {
					meta.Title = strings.TrimSpace(docTitle)
				}
				return meta, nil
			}

			if tag != "meta" || !hasAttr {
				continue
			}

			var property, content string
			for {
				key, val, more := tokenizer.TagAttr()
				switch string(key) {
				case "property", "name":
					property = string(val)
				case "content":
					content = string(val)
				}
				if !more {
					break
				}
			}

			switch property {
			case "og:title":
				meta.Title = content
			case "og:description":
				meta.Description = content
			case "og:image":
				meta.Image = content
			case "og:site_name":
				meta.SiteName = content
			case "description":
				if meta.Description == "" {
					meta.Description = content
				}
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				inTitle = false
			}
		}
	}
}
