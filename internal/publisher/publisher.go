// Package publisher orchestrates publishing database records to the
// static site's Git repository. Every publish attempt follows the same
// contract: serialize, commit, then append one audit log entry. Local
// state (the draft flag) changes only after the store confirms the
// commit, so a failed publish leaves the database exactly as it was.
package publisher

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/gitstore"
	logpkg "github.com/nwhitfield/site-studio/internal/logger"
	"github.com/nwhitfield/site-studio/internal/models"
)

// EssayStore is the slice of the essay repository the publisher uses.
type EssayStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.Essay, error)
	SetDraft(ctx context.Context, slug string, draft bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FieldNoteStore is the slice of the field note repository the publisher uses.
type FieldNoteStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.FieldNote, error)
	SetDraft(ctx context.Context, slug string, draft bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProjectStore is the slice of the project repository the publisher uses.
type ProjectStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.Project, error)
	SetDraft(ctx context.Context, slug string, draft bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ShelfStore is the slice of the shelf repository the publisher uses.
type ShelfStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.ShelfEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ToolkitStore is the slice of the toolkit repository the publisher uses.
type ToolkitStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.ToolkitEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SiteStore is the slice of the site repository the publisher uses.
type SiteStore interface {
	GetNowPage(ctx context.Context) (*models.NowPage, error)
	GetSiteConfig(ctx context.Context) (*models.SiteConfig, error)
}

// Deps collects everything a Publisher needs.
type Deps struct {
	Writer     gitstore.Writer
	Logs       database.PublishLogRepositoryInterface
	Sources    database.SourceRepositoryInterface
	Links      database.LinkRepositoryInterface
	Threads    database.ThreadRepositoryInterface
	Essays     EssayStore
	FieldNotes FieldNoteStore
	Projects   ProjectStore
	Shelf      ShelfStore
	Toolkit    ToolkitStore
	Site       SiteStore

	// ContentRoot is the repository directory content files are
	// written under, e.g. "content". Research data and site.json
	// live at fixed paths regardless.
	ContentRoot string

	Logger *zap.Logger
}

// Publisher coordinates serialization, Git commits, and the audit log.
type Publisher struct {
	deps Deps
}

// New creates a publisher.
func New(deps Deps) *Publisher {
	if deps.ContentRoot == "" {
		deps.ContentRoot = "content"
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Publisher{deps: deps}
}

// record appends one audit entry for a finished attempt and returns it.
// The audit log write is best-effort: a log failure never turns a
// successful publish into a failed one.
func (p *Publisher) record(ctx context.Context, dataType models.PublishDataType, slug, title string, count int, result gitstore.Result) *models.PublishLog {
	entry := &models.PublishLog{
		ID:           uuid.New(),
		DataType:     dataType,
		ContentSlug:  slug,
		ContentTitle: title,
		RecordCount:  count,
		CommitSHA:    result.CommitSHA,
		CommitURL:    result.CommitURL,
		Success:      result.Success,
		ErrorMessage: result.Error,
	}

	if err := p.deps.Logs.Create(ctx, entry); err != nil {
		p.deps.Logger.Error("publish_log_write_failed",
			zap.String("data_type", string(dataType)),
			zap.String("slug", slug),
			zap.Error(err),
		)
	}

	if result.Success {
		p.deps.Logger.Info("publish_succeeded",
			zap.String("data_type", string(dataType)),
			zap.String("slug", slug),
			zap.String("commit_sha", result.CommitSHA),
			zap.Int("record_count", count),
		)
	} else {
		p.deps.Logger.Warn("publish_failed",
			zap.String("data_type", string(dataType)),
			zap.String("slug", slug),
			zap.String("error", logpkg.SanitizeString(result.Error, logpkg.MaxErrorMessageLength)),
		)
	}

	return entry
}

// failed wraps a log entry for a failed attempt in an error callers can
// surface, keeping the entry available for the response body.
func failed(entry *models.PublishLog) error {
	return fmt.Errorf("publish failed: %s", entry.ErrorMessage)
}
