// Package serialize renders entities into the exact external
// representations the static site consumes: markdown with YAML front
// matter for content pieces, pretty-printed camelCase JSON for research
// data and site configuration. Every function is pure over entity state
// so the same record always produces the same bytes.
package serialize

import (
	"fmt"
	"strings"
	"time"

	"github.com/nwhitfield/site-studio/internal/models"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// essayFrontMatter mirrors the keys the site's content loader expects.
// External keys are camelCase; field order here is emission order.
type essayFrontMatter struct {
	Title         string   `yaml:"title"`
	Slug          string   `yaml:"slug"`
	Subtitle      string   `yaml:"subtitle"`
	Summary       string   `yaml:"summary"`
	Tags          []string `yaml:"tags"`
	HeroImage     string   `yaml:"heroImage"`
	PublishedDate string   `yaml:"publishedDate"`
	Draft         bool     `yaml:"draft"`
}

type fieldNoteFrontMatter struct {
	Title        string   `yaml:"title"`
	Slug         string   `yaml:"slug"`
	Summary      string   `yaml:"summary"`
	Tags         []string `yaml:"tags"`
	NotedDate    string   `yaml:"notedDate"`
	LocationName string   `yaml:"locationName,omitempty"`
	Latitude     *float64 `yaml:"latitude,omitempty"`
	Longitude    *float64 `yaml:"longitude,omitempty"`
	Draft        bool     `yaml:"draft"`
}

type projectFrontMatter struct {
	Title       string   `yaml:"title"`
	Slug        string   `yaml:"slug"`
	Summary     string   `yaml:"summary"`
	Tags        []string `yaml:"tags"`
	Status      string   `yaml:"status"`
	URL         string   `yaml:"url"`
	StartedDate string   `yaml:"startedDate"`
	Draft       bool     `yaml:"draft"`
}

type shelfFrontMatter struct {
	Title        string   `yaml:"title"`
	Slug         string   `yaml:"slug"`
	Creator      string   `yaml:"creator"`
	ShelfType    string   `yaml:"shelfType"`
	Status       string   `yaml:"status"`
	Rating       int      `yaml:"rating"`
	Tags         []string `yaml:"tags"`
	FinishedDate string   `yaml:"finishedDate"`
}

type toolkitFrontMatter struct {
	Title    string   `yaml:"title"`
	Slug     string   `yaml:"slug"`
	Category string   `yaml:"category"`
	URL      string   `yaml:"url"`
	Tags     []string `yaml:"tags"`
}

type nowFrontMatter struct {
	UpdatedAt string `yaml:"updatedAt"`
}

// Essay renders an essay as front-matter-annotated markdown.
func Essay(e *models.Essay) (string, error) {
	fm := essayFrontMatter{
		Title:         e.Title,
		Slug:          e.Slug,
		Subtitle:      e.Subtitle,
		Summary:       e.Summary,
		Tags:          tags(e.Tags),
		HeroImage:     e.HeroImage,
		PublishedDate: date(e.PublishedDate),
		Draft:         e.Draft,
	}
	return document(fm, e.Body)
}

// FieldNote renders a field note. Location keys are omitted entirely
// when the note has no location.
func FieldNote(n *models.FieldNote) (string, error) {
	fm := fieldNoteFrontMatter{
		Title:     n.Title,
		Slug:      n.Slug,
		Summary:   n.Summary,
		Tags:      tags(n.Tags),
		NotedDate: date(n.NotedDate),
		Draft:     n.Draft,
	}
	if n.Location != nil {
		fm.LocationName = n.Location.Name
		lat, lng := n.Location.Latitude, n.Location.Longitude
		fm.Latitude = &lat
		fm.Longitude = &lng
	}
	return document(fm, n.Body)
}

// Project renders a project entry.
func Project(p *models.Project) (string, error) {
	fm := projectFrontMatter{
		Title:       p.Title,
		Slug:        p.Slug,
		Summary:     p.Summary,
		Tags:        tags(p.Tags),
		Status:      p.Status,
		URL:         p.URL,
		StartedDate: date(p.StartedDate),
		Draft:       p.Draft,
	}
	return document(fm, p.Body)
}

// ShelfEntry renders a shelf entry.
func ShelfEntry(s *models.ShelfEntry) (string, error) {
	fm := shelfFrontMatter{
		Title:        s.Title,
		Slug:         s.Slug,
		Creator:      s.Creator,
		ShelfType:    s.ShelfType,
		Status:       s.Status,
		Rating:       s.Rating,
		Tags:         tags(s.Tags),
		FinishedDate: date(s.FinishedDate),
	}
	return document(fm, s.Body)
}

// ToolkitEntry renders a toolkit entry.
func ToolkitEntry(e *models.ToolkitEntry) (string, error) {
	fm := toolkitFrontMatter{
		Title:    e.Title,
		Slug:     e.Slug,
		Category: e.Category,
		URL:      e.URL,
		Tags:     tags(e.Tags),
	}
	return document(fm, e.Body)
}

// NowPage renders the singleton Now page.
func NowPage(n *models.NowPage) (string, error) {
	fm := nowFrontMatter{UpdatedAt: n.UpdatedAt.UTC().Format(dateLayout)}
	return document(fm, n.Body)
}

// document assembles "---\n<yaml>---\n\n<body>\n".
func document(frontMatter any, body string) (string, error) {
	encoded, err := yaml.Marshal(frontMatter)
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(encoded)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
	return b.String(), nil
}

// tags normalizes a nil tag slice to an explicit empty list so the
// front matter always carries a tags key.
func tags(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

// date formats an optional date, empty when unset.
func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
