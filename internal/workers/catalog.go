package workers

import (
	"context"
	"fmt"

	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/services/suggest"
)

type essayLister interface {
	List(ctx context.Context, draft *bool) ([]*models.Essay, error)
}

type fieldNoteLister interface {
	List(ctx context.Context, draft *bool) ([]*models.FieldNote, error)
}

type projectLister interface {
	List(ctx context.Context, draft *bool) ([]*models.Project, error)
}

type shelfLister interface {
	List(ctx context.Context) ([]*models.ShelfEntry, error)
}

type toolkitLister interface {
	List(ctx context.Context) ([]*models.ToolkitEntry, error)
}

// ContentCatalog assembles the published content inventory the
// suggestion engine matches new cards against. Drafts are excluded so
// suggestions never point at unpublished pieces.
type ContentCatalog struct {
	essays     essayLister
	fieldNotes fieldNoteLister
	projects   projectLister
	shelf      shelfLister
	toolkit    toolkitLister
}

// NewContentCatalog creates a catalog over the content repositories.
// Any repository may be nil; its type is simply absent from the catalog.
func NewContentCatalog(essays essayLister, fieldNotes fieldNoteLister, projects projectLister, shelf shelfLister, toolkit toolkitLister) *ContentCatalog {
	return &ContentCatalog{
		essays:     essays,
		fieldNotes: fieldNotes,
		projects:   projects,
		shelf:      shelf,
		toolkit:    toolkit,
	}
}

// Build returns the current catalog of published content.
func (c *ContentCatalog) Build(ctx context.Context) ([]suggest.ContentSummary, error) {
	published := false
	var catalog []suggest.ContentSummary

	if c.essays != nil {
		essays, err := c.essays.List(ctx, &published)
		if err != nil {
			return nil, fmt.Errorf("failed to list essays: %w", err)
		}
		for _, e := range essays {
			catalog = append(catalog, suggest.ContentSummary{
				Type:    models.ContentTypeEssay,
				Slug:    e.Slug,
				Title:   e.Title,
				Summary: e.Summary,
				Tags:    e.Tags,
			})
		}
	}

	if c.fieldNotes != nil {
		notes, err := c.fieldNotes.List(ctx, &published)
		if err != nil {
			return nil, fmt.Errorf("failed to list field notes: %w", err)
		}
		for _, n := range notes {
			catalog = append(catalog, suggest.ContentSummary{
				Type:    models.ContentTypeFieldNote,
				Slug:    n.Slug,
				Title:   n.Title,
				Summary: n.Summary,
				Tags:    n.Tags,
			})
		}
	}

	if c.projects != nil {
		projects, err := c.projects.List(ctx, &published)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		for _, p := range projects {
			catalog = append(catalog, suggest.ContentSummary{
				Type:    models.ContentTypeProject,
				Slug:    p.Slug,
				Title:   p.Title,
				Summary: p.Summary,
				Tags:    p.Tags,
			})
		}
	}

	if c.shelf != nil {
		entries, err := c.shelf.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list shelf entries: %w", err)
		}
		for _, s := range entries {
			catalog = append(catalog, suggest.ContentSummary{
				Type:    models.ContentTypeShelf,
				Slug:    s.Slug,
				Title:   s.Title,
				Summary: s.Creator,
				Tags:    s.Tags,
			})
		}
	}

	if c.toolkit != nil {
		entries, err := c.toolkit.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list toolkit entries: %w", err)
		}
		for _, tk := range entries {
			catalog = append(catalog, suggest.ContentSummary{
				Type:    models.ContentTypeToolkit,
				Slug:    tk.Slug,
				Title:   tk.Title,
				Summary: tk.Category,
				Tags:    tk.Tags,
			})
		}
	}

	return catalog, nil
}
