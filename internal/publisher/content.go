package publisher

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/nwhitfield/site-studio/internal/gitstore"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/serialize"
)

// contentFile is a serialized content piece ready to commit.
type contentFile struct {
	path     string
	content  string
	title    string
	dataType models.PublishDataType

	// set for draft-flagged types so a confirmed commit can flip
	// the flag; nil for publish-as-saved types.
	setDraft func(ctx context.Context, draft bool) error

	// local row, used by delete operations.
	id    uuid.UUID
	draft bool
}

// PublishContent serializes one content piece and commits it. For
// draft-flagged types the draft flag is cleared only after the store
// confirms the commit.
func (p *Publisher) PublishContent(ctx context.Context, ref models.ContentRef) (*models.PublishLog, error) {
	file, err := p.loadContent(ctx, ref)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Publish %s: %s", ref.Type, file.title)
	result := p.deps.Writer.Write(ctx, file.path, file.content, message)
	entry := p.record(ctx, file.dataType, ref.Slug, file.title, 1, result)

	if !result.Success {
		return entry, failed(entry)
	}

	if file.setDraft != nil {
		if err := file.setDraft(ctx, false); err != nil {
			return entry, fmt.Errorf("published but failed to clear draft flag: %w", err)
		}
	}

	return entry, nil
}

// PublishContentWithConfig commits a content piece together with
// site.json in one atomic commit, for edits that change both (e.g.
// featuring a new essay on the homepage).
func (p *Publisher) PublishContentWithConfig(ctx context.Context, ref models.ContentRef) (*models.PublishLog, error) {
	file, err := p.loadContent(ctx, ref)
	if err != nil {
		return nil, err
	}

	config, err := p.deps.Site.GetSiteConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load site config: %w", err)
	}
	configJSON, err := serialize.ToJSON(serialize.SiteConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize site config: %w", err)
	}

	ops := []gitstore.FileOp{
		{Path: file.path, Content: file.content},
		{Path: siteConfigPath, Content: configJSON},
	}
	message := fmt.Sprintf("Publish %s: %s (with site config)", ref.Type, file.title)
	result := p.deps.Writer.WriteMany(ctx, ops, message)
	entry := p.record(ctx, file.dataType, ref.Slug, file.title, 2, result)

	if !result.Success {
		return entry, failed(entry)
	}

	if file.setDraft != nil {
		if err := file.setDraft(ctx, false); err != nil {
			return entry, fmt.Errorf("published but failed to clear draft flag: %w", err)
		}
	}

	return entry, nil
}

// DeleteContent removes a content piece. A published piece is first
// deleted from the store; the local row is removed only after that
// commit is confirmed. An unpublished draft is deleted locally without
// touching the store.
func (p *Publisher) DeleteContent(ctx context.Context, ref models.ContentRef) (*models.PublishLog, error) {
	file, err := p.loadContent(ctx, ref)
	if err != nil {
		return nil, err
	}

	published := file.setDraft == nil || !file.draft

	var entry *models.PublishLog
	if published {
		message := fmt.Sprintf("Delete %s: %s", ref.Type, file.title)
		result := p.deps.Writer.Delete(ctx, file.path, message)
		entry = p.record(ctx, file.dataType, ref.Slug, file.title, 1, result)
		if !result.Success {
			return entry, failed(entry)
		}
	}

	if err := p.deleteLocal(ctx, ref.Type, file.id); err != nil {
		return entry, fmt.Errorf("store commit confirmed but local delete failed: %w", err)
	}

	return entry, nil
}

// PublishNowPage serializes and commits the Now page.
func (p *Publisher) PublishNowPage(ctx context.Context) (*models.PublishLog, error) {
	page, err := p.deps.Site.GetNowPage(ctx)
	if err != nil {
		return nil, err
	}

	content, err := serialize.NowPage(page)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize now page: %w", err)
	}

	result := p.deps.Writer.Write(ctx, p.nowPath(), content, "Update now page")
	entry := p.record(ctx, models.PublishDataNow, "now", "Now", 1, result)

	if !result.Success {
		return entry, failed(entry)
	}

	return entry, nil
}

func (p *Publisher) loadContent(ctx context.Context, ref models.ContentRef) (*contentFile, error) {
	switch ref.Type {
	case models.ContentTypeEssay:
		essay, err := p.deps.Essays.GetBySlug(ctx, ref.Slug)
		if err != nil {
			return nil, err
		}
		content, err := serialize.Essay(essay)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize essay: %w", err)
		}
		return &contentFile{
			path:     p.contentPath("essays", ref.Slug),
			content:  content,
			title:    essay.Title,
			dataType: models.PublishDataEssay,
			setDraft: func(ctx context.Context, draft bool) error {
				return p.deps.Essays.SetDraft(ctx, ref.Slug, draft)
			},
			id:    essay.ID,
			draft: essay.Draft,
		}, nil

	case models.ContentTypeFieldNote:
		note, err := p.deps.FieldNotes.GetBySlug(ctx, ref.Slug)
		if err != nil {
			return nil, err
		}
		content, err := serialize.FieldNote(note)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize field note: %w", err)
		}
		return &contentFile{
			path:     p.contentPath("field-notes", ref.Slug),
			content:  content,
			title:    note.Title,
			dataType: models.PublishDataFieldNote,
			setDraft: func(ctx context.Context, draft bool) error {
				return p.deps.FieldNotes.SetDraft(ctx, ref.Slug, draft)
			},
			id:    note.ID,
			draft: note.Draft,
		}, nil

	case models.ContentTypeProject:
		project, err := p.deps.Projects.GetBySlug(ctx, ref.Slug)
		if err != nil {
			return nil, err
		}
		content, err := serialize.Project(project)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize project: %w", err)
		}
		return &contentFile{
			path:     p.contentPath("projects", ref.Slug),
			content:  content,
			title:    project.Title,
			dataType: models.PublishDataProject,
			setDraft: func(ctx context.Context, draft bool) error {
				return p.deps.Projects.SetDraft(ctx, ref.Slug, draft)
			},
			id:    project.ID,
			draft: project.Draft,
		}, nil

	case models.ContentTypeShelf:
		entry, err := p.deps.Shelf.GetBySlug(ctx, ref.Slug)
		if err != nil {
			return nil, err
		}
		content, err := serialize.ShelfEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize shelf entry: %w", err)
		}
		return &contentFile{
			path:     p.contentPath("shelf", ref.Slug),
			content:  content,
			title:    entry.Title,
			dataType: models.PublishDataShelf,
			id:       entry.ID,
		}, nil

	case models.ContentTypeToolkit:
		entry, err := p.deps.Toolkit.GetBySlug(ctx, ref.Slug)
		if err != nil {
			return nil, err
		}
		content, err := serialize.ToolkitEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize toolkit entry: %w", err)
		}
		return &contentFile{
			path:     p.contentPath("toolkit", ref.Slug),
			content:  content,
			title:    entry.Title,
			dataType: models.PublishDataToolkit,
			id:       entry.ID,
		}, nil

	case models.ContentTypeNow:
		return nil, fmt.Errorf("the now page publishes via PublishNowPage")

	default:
		return nil, fmt.Errorf("unknown content type %q", ref.Type)
	}
}

func (p *Publisher) deleteLocal(ctx context.Context, contentType models.ContentType, id uuid.UUID) error {
	switch contentType {
	case models.ContentTypeEssay:
		return p.deps.Essays.Delete(ctx, id)
	case models.ContentTypeFieldNote:
		return p.deps.FieldNotes.Delete(ctx, id)
	case models.ContentTypeProject:
		return p.deps.Projects.Delete(ctx, id)
	case models.ContentTypeShelf:
		return p.deps.Shelf.Delete(ctx, id)
	case models.ContentTypeToolkit:
		return p.deps.Toolkit.Delete(ctx, id)
	default:
		return fmt.Errorf("cannot delete content type %q", contentType)
	}
}

func (p *Publisher) contentPath(dir, slug string) string {
	return path.Join(p.deps.ContentRoot, dir, slug+".md")
}

func (p *Publisher) nowPath() string {
	return path.Join(p.deps.ContentRoot, "now.md")
}
