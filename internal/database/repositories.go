package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/nwhitfield/site-studio/internal/models"
)

// Repository interfaces for the consumers that need mock implementations
// in tests: the publish orchestrator, the intake service, and the
// background workers.

// SourceRepositoryInterface defines the interface for source repository operations
type SourceRepositoryInterface interface {
	Create(ctx context.Context, source *models.Source) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Source, error)
	GetBySlug(ctx context.Context, slug string) (*models.Source, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, sourceType *models.SourceType, public *bool, tag string) ([]*models.Source, error)
	Update(ctx context.Context, source *models.Source) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LinkRepositoryInterface defines the interface for link repository operations
type LinkRepositoryInterface interface {
	Create(ctx context.Context, link *models.SourceLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SourceLink, error)
	ListAll(ctx context.Context) ([]*models.SourceLink, error)
	ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*models.SourceLink, error)
	ListByContent(ctx context.Context, ref models.ContentRef) ([]*models.SourceLink, error)
	Update(ctx context.Context, link *models.SourceLink) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ThreadRepositoryInterface defines the interface for thread repository operations
type ThreadRepositoryInterface interface {
	Create(ctx context.Context, thread *models.ResearchThread) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ResearchThread, error)
	GetBySlug(ctx context.Context, slug string) (*models.ResearchThread, error)
	List(ctx context.Context, status *models.ThreadStatus, public *bool) ([]*models.ResearchThread, error)
	Update(ctx context.Context, thread *models.ResearchThread) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddEntry(ctx context.Context, entry *models.ThreadEntry) error
	UpdateEntry(ctx context.Context, entry *models.ThreadEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

// RawSourceRepositoryInterface defines the interface for intake card repository operations
type RawSourceRepositoryInterface interface {
	Create(ctx context.Context, raw *models.RawSource) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RawSource, error)
	GetByURL(ctx context.Context, url string) (*models.RawSource, error)
	List(ctx context.Context, phase *models.Phase, decision *models.Decision) ([]*models.RawSource, error)
	Update(ctx context.Context, raw *models.RawSource) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceSuggestions(ctx context.Context, rawSourceID uuid.UUID, suggestions []*models.SuggestedConnection) error
	ListSuggestions(ctx context.Context, rawSourceID uuid.UUID) ([]*models.SuggestedConnection, error)
	SetSuggestionAccepted(ctx context.Context, id uuid.UUID, accepted bool) error
}

// PublishLogRepositoryInterface defines the interface for publish log repository operations
type PublishLogRepositoryInterface interface {
	Create(ctx context.Context, log *models.PublishLog) error
	List(ctx context.Context, dataType *models.PublishDataType, success *bool, limit int) ([]*models.PublishLog, error)
	LastSuccess(ctx context.Context, dataType models.PublishDataType) (*models.PublishLog, error)
}

// Ensure concrete types implement the interfaces
var (
	_ SourceRepositoryInterface     = (*SourceRepository)(nil)
	_ LinkRepositoryInterface       = (*LinkRepository)(nil)
	_ ThreadRepositoryInterface     = (*ThreadRepository)(nil)
	_ RawSourceRepositoryInterface  = (*RawSourceRepository)(nil)
	_ PublishLogRepositoryInterface = (*PublishLogRepository)(nil)
)
