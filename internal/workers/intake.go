package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/queue"
	"github.com/nwhitfield/site-studio/internal/scraper"
	"github.com/nwhitfield/site-studio/internal/services/suggest"
)

// MetadataFetcher fetches Open Graph metadata for a URL.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Metadata, error)
}

// CatalogBuilder produces the content inventory used for connection
// suggestions.
type CatalogBuilder interface {
	Build(ctx context.Context) ([]suggest.ContentSummary, error)
}

// IntakeWorker processes intake card jobs: metadata scrapes and
// connection suggestions.
type IntakeWorker struct {
	raws     database.RawSourceRepositoryInterface
	fetcher  MetadataFetcher
	provider suggest.Provider
	catalog  CatalogBuilder
	jobQueue queue.JobQueue // for re-enqueueing jobs with delays
	logger   *zap.Logger
}

// NewIntakeWorker creates an intake worker. The provider and catalog
// may be nil, in which case suggestion jobs are acked and dropped.
func NewIntakeWorker(
	raws database.RawSourceRepositoryInterface,
	fetcher MetadataFetcher,
	provider suggest.Provider,
	catalog CatalogBuilder,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *IntakeWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeWorker{
		raws:     raws,
		fetcher:  fetcher,
		provider: provider,
		catalog:  catalog,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessScrapeJob fetches Open Graph metadata for a card and records
// the result. On success a suggestion job is enqueued for the card.
func (w *IntakeWorker) ProcessScrapeJob(ctx context.Context, job *queue.Job) error {
	raw, err := w.raws.GetByID(ctx, job.RawSourceID)
	if err != nil {
		return fmt.Errorf("failed to get raw source: %w", err)
	}

	if raw.InputType != models.InputTypeURL || raw.URL == "" {
		// File uploads have nothing to scrape.
		return nil
	}

	meta, err := w.fetcher.Fetch(ctx, raw.URL)
	if err != nil {
		raw.ScrapeStatus = models.ScrapeStatusFailed
		if updateErr := w.raws.Update(ctx, raw); updateErr != nil {
			w.logger.Error("scrape_status_update_failed",
				zap.String("raw_source_id", raw.ID.String()),
				zap.Error(updateErr),
			)
		}
		return fmt.Errorf("failed to scrape %s: %w", raw.URL, err)
	}

	raw.OGTitle = meta.Title
	raw.OGDescription = meta.Description
	raw.OGImage = meta.Image
	raw.OGSiteName = meta.SiteName
	raw.ScrapeStatus = models.ScrapeStatusComplete
	if err := w.raws.Update(ctx, raw); err != nil {
		return fmt.Errorf("failed to update raw source: %w", err)
	}

	w.logger.Info("card_scraped",
		zap.String("raw_source_id", raw.ID.String()),
		zap.String("url", raw.URL),
		zap.String("title", meta.Title),
	)

	if w.jobQueue != nil {
		followup := queue.NewJob(queue.JobTypeSuggestConnections, raw.ID)
		if err := w.jobQueue.Enqueue(ctx, followup); err != nil {
			// Suggestions are enrichment, not part of the scrape.
			w.logger.Warn("suggest_enqueue_failed",
				zap.String("raw_source_id", raw.ID.String()),
				zap.Error(err),
			)
		}
	}

	return nil
}

// ProcessSuggestJob generates connection suggestions for a card and
// replaces its stored suggestion set.
func (w *IntakeWorker) ProcessSuggestJob(ctx context.Context, job *queue.Job) error {
	if w.provider == nil || w.catalog == nil {
		w.logger.Debug("suggestions_disabled",
			zap.String("raw_source_id", job.RawSourceID.String()),
		)
		return nil
	}

	raw, err := w.raws.GetByID(ctx, job.RawSourceID)
	if err != nil {
		return fmt.Errorf("failed to get raw source: %w", err)
	}

	if !raw.IsPending() {
		// The card was triaged while the job sat in the queue.
		return nil
	}

	catalog, err := w.catalog.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build content catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil
	}

	suggestions, err := w.provider.SuggestConnections(ctx, raw, catalog)
	if err != nil {
		return fmt.Errorf("failed to generate suggestions: %w", err)
	}

	titles := make(map[string]string, len(catalog))
	for _, c := range catalog {
		titles[string(c.Type)+":"+c.Slug] = c.Title
	}

	stored := make([]*models.SuggestedConnection, 0, len(suggestions))
	for _, s := range suggestions {
		stored = append(stored, &models.SuggestedConnection{
			ID:           uuid.New(),
			RawSourceID:  raw.ID,
			ContentType:  s.ContentType,
			ContentSlug:  s.ContentSlug,
			ContentTitle: titles[string(s.ContentType)+":"+s.ContentSlug],
			Confidence:   s.Confidence,
			Reason:       s.Reason,
		})
	}

	if err := w.raws.ReplaceSuggestions(ctx, raw.ID, stored); err != nil {
		return fmt.Errorf("failed to store suggestions: %w", err)
	}

	w.logger.Info("suggestions_stored",
		zap.String("raw_source_id", raw.ID.String()),
		zap.Int("count", len(stored)),
	)
	return nil
}

// ProcessJob dispatches a queue message based on its job type.
func (w *IntakeWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if !job.ShouldProcess() {
		// Not ready yet; return it to the queue.
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Warn("job_ack_failed", zap.Error(ackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeScrapeMetadata:
		if err := w.ProcessScrapeJob(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err, "scrape")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeSuggestConnections:
		if err := w.ProcessSuggestJob(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err, "suggest")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError applies the retry policy for a failed job. Quota and
// rate limit errors are re-enqueued with a delay; other errors use the
// standard retry count before landing in the DLQ.
func (w *IntakeWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, jobKind string) error {
	if suggest.IsQuotaError(err) || suggest.IsRateLimitError(err) {
		retryDelay := suggest.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && w.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayed := &queue.Job{
				ID:          job.ID,
				Type:        job.Type,
				RawSourceID: job.RawSourceID,
				NotBefore:   &notBefore,
				NotAfter:    job.NotAfter,
				Metadata:    job.Metadata,
				CreatedAt:   job.CreatedAt,
				RetryCount:  job.RetryCount + 1,
				MaxRetries:  job.MaxRetries,
			}

			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warn("job_ack_failed", zap.Error(ackErr))
			}

			if enqueueErr := w.jobQueue.Enqueue(ctx, delayed); enqueueErr != nil {
				return fmt.Errorf("%s job throttled, failed to re-enqueue: %w", jobKind, enqueueErr)
			}

			w.logger.Info("job_delayed",
				zap.String("job_id", job.ID.String()),
				zap.String("job_kind", jobKind),
				zap.Time("not_before", notBefore),
				zap.Duration("delay", retryDelay),
			)
			return nil
		}

		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("%s job throttled (job %s): %w", jobKind, job.ID, err)
	}

	if job.CanRetry() {
		job.IncrementRetry()
		w.logger.Warn("job_retrying",
			zap.String("job_id", job.ID.String()),
			zap.String("job_kind", jobKind),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("%s job failed (will retry): %w", jobKind, err)
	}

	w.logger.Error("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_kind", jobKind),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		w.logger.Warn("job_nack_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("%s job failed (max retries): %w", jobKind, err)
}
