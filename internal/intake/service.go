// Package intake implements the research triage board: URLs and files
// are captured as cards, enriched by background workers, moved across
// the board, and finally triaged. An accepted card is promoted to a
// full source record.
package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/queue"
)

// ErrAlreadyDecided is returned when a card that has been triaged is
// triaged or moved again.
var ErrAlreadyDecided = fmt.Errorf("card has already been decided")

// PromotionError wraps a promotion failure that happened after the
// triage decision was committed. The decision stands; only the source
// record is missing.
type PromotionError struct {
	Err error
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("card accepted but promotion failed: %v", e.Err)
}

func (e *PromotionError) Unwrap() error { return e.Err }

// Service coordinates intake card operations.
type Service struct {
	raws    database.RawSourceRepositoryInterface
	sources database.SourceRepositoryInterface
	jobs    queue.JobQueue
	logger  *zap.Logger
}

// NewService creates an intake service. jobs may be nil in contexts
// without a queue (CLI usage); capture then skips enrichment.
func NewService(raws database.RawSourceRepositoryInterface, sources database.SourceRepositoryInterface, jobs queue.JobQueue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{raws: raws, sources: sources, jobs: jobs, logger: logger}
}

// CaptureInput is a capture request: exactly one of URL or FileName.
type CaptureInput struct {
	URL      string
	FileName string
	Tags     []string
}

// Capture records a URL or file as an intake card. Capturing a URL that
// is already on the board returns the existing card; the second return
// value reports whether a new card was created.
func (s *Service) Capture(ctx context.Context, input CaptureInput) (*models.RawSource, bool, error) {
	if (input.URL == "") == (input.FileName == "") {
		return nil, false, fmt.Errorf("exactly one of url or file_name is required")
	}

	if input.URL != "" {
		existing, err := s.raws.GetByURL(ctx, input.URL)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			s.logger.Info("capture_duplicate",
				zap.String("raw_source_id", existing.ID.String()),
				zap.String("url", input.URL),
			)
			return existing, false, nil
		}
	}

	raw := &models.RawSource{
		ID:         uuid.New(),
		URL:        input.URL,
		FileName:   input.FileName,
		InputType:  models.InputTypeURL,
		Phase:      models.PhaseInbox,
		Decision:   models.DecisionPending,
		Importance: models.ImportanceMedium,
		Tags:       input.Tags,
	}
	switch {
	case input.FileName != "":
		raw.InputType = models.InputTypeFile
		// Nothing to scrape for an uploaded file.
		raw.ScrapeStatus = models.ScrapeStatusComplete
	case s.jobs == nil:
		// No worker will ever pick this card up; a pending status
		// would leave triage waiting on a scrape that cannot happen.
		raw.ScrapeStatus = models.ScrapeStatusFailed
	default:
		raw.ScrapeStatus = models.ScrapeStatusPending
	}

	if err := s.raws.Create(ctx, raw); err != nil {
		return nil, false, err
	}

	s.logger.Info("card_captured",
		zap.String("raw_source_id", raw.ID.String()),
		zap.String("input_type", string(raw.InputType)),
	)

	if raw.InputType == models.InputTypeURL && s.jobs != nil {
		job := queue.NewJob(queue.JobTypeScrapeMetadata, raw.ID)
		if err := s.jobs.Enqueue(ctx, job); err != nil {
			// Enrichment is best-effort; the card is already saved,
			// but mark the scrape failed so triage is not left
			// polling a status that will never change.
			s.logger.Warn("scrape_enqueue_failed",
				zap.String("raw_source_id", raw.ID.String()),
				zap.Error(err),
			)
			raw.ScrapeStatus = models.ScrapeStatusFailed
			if err := s.raws.Update(ctx, raw); err != nil {
				s.logger.Warn("scrape_status_update_failed",
					zap.String("raw_source_id", raw.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	return raw, true, nil
}

// Move places a card in a different board phase. The decided column is
// entered through Triage only.
func (s *Service) Move(ctx context.Context, id uuid.UUID, phase models.Phase) (*models.RawSource, error) {
	switch phase {
	case models.PhaseInbox, models.PhaseReview:
	case models.PhaseDecided:
		return nil, fmt.Errorf("cards enter the decided phase through triage")
	default:
		return nil, fmt.Errorf("unknown phase %q", phase)
	}

	raw, err := s.raws.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !raw.IsPending() {
		return nil, ErrAlreadyDecided
	}

	raw.Phase = phase
	if err := s.raws.Update(ctx, raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// EnrichInput is an operator update to a card's annotations.
type EnrichInput struct {
	Importance *models.Importance
	Tags       []string
}

// Enrich updates a card's operator-editable fields.
func (s *Service) Enrich(ctx context.Context, id uuid.UUID, input EnrichInput) (*models.RawSource, error) {
	raw, err := s.raws.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Importance != nil {
		raw.Importance = *input.Importance
	}
	if input.Tags != nil {
		raw.Tags = input.Tags
	}

	if err := s.raws.Update(ctx, raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// Triage records the decision for a card, stamps decided_at, and moves
// it to the decided phase in one update. Accepting a card additionally
// promotes it to a source; if promotion fails the committed decision
// stands and the error is a *PromotionError.
func (s *Service) Triage(ctx context.Context, id uuid.UUID, decision models.Decision, note string) (*models.RawSource, *models.Source, error) {
	switch decision {
	case models.DecisionAccepted, models.DecisionRejected, models.DecisionDeferred:
	default:
		return nil, nil, fmt.Errorf("invalid triage decision %q", decision)
	}

	raw, err := s.raws.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !raw.IsPending() {
		return nil, nil, ErrAlreadyDecided
	}

	now := time.Now()
	raw.Decision = decision
	raw.DecisionNote = note
	raw.DecidedAt = &now
	raw.Phase = models.PhaseDecided

	if err := s.raws.Update(ctx, raw); err != nil {
		return nil, nil, err
	}

	s.logger.Info("card_triaged",
		zap.String("raw_source_id", raw.ID.String()),
		zap.String("decision", string(decision)),
	)

	if decision != models.DecisionAccepted {
		return raw, nil, nil
	}

	source, err := s.promote(ctx, raw)
	if err != nil {
		return raw, nil, &PromotionError{Err: err}
	}

	raw.PromotedSourceSlug = source.Slug
	if err := s.raws.Update(ctx, raw); err != nil {
		return raw, source, &PromotionError{Err: fmt.Errorf("failed to record promoted slug: %w", err)}
	}

	return raw, source, nil
}

// promote creates a source record from an accepted card, carrying over
// the scraped metadata and tags. The new source starts private.
func (s *Service) promote(ctx context.Context, raw *models.RawSource) (*models.Source, error) {
	slug, err := uniqueSlug(ctx, s.sources, raw.DisplayTitle())
	if err != nil {
		return nil, fmt.Errorf("failed to derive slug: %w", err)
	}

	encountered := raw.CreatedAt
	source := &models.Source{
		ID:               uuid.New(),
		Title:            raw.DisplayTitle(),
		Slug:             slug,
		SourceType:       models.SourceTypeWebsite,
		URL:              raw.URL,
		Publication:      raw.OGSiteName,
		DateEncountered:  &encountered,
		PublicAnnotation: raw.OGDescription,
		PrivateNotes:     raw.DecisionNote,
		Tags:             raw.Tags,
		Public:           false,
	}
	if raw.InputType == models.InputTypeFile {
		source.SourceType = models.SourceTypeOther
	}

	if err := s.sources.Create(ctx, source); err != nil {
		return nil, err
	}

	s.logger.Info("card_promoted",
		zap.String("raw_source_id", raw.ID.String()),
		zap.String("source_slug", source.Slug),
	)

	return source, nil
}
