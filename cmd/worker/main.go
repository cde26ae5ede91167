package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/config"
	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/logger"
	"github.com/nwhitfield/site-studio/internal/queue"
	"github.com/nwhitfield/site-studio/internal/scraper"
	"github.com/nwhitfield/site-studio/internal/services/suggest"
	"github.com/nwhitfield/site-studio/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("suggestions_enabled", cfg.OpenAIKey != ""),
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	rawSourceRepo := database.NewRawSourceRepository(db)
	essayRepo := database.NewEssayRepository(db)
	fieldNoteRepo := database.NewFieldNoteRepository(db)
	projectRepo := database.NewProjectRepository(db)
	shelfRepo := database.NewShelfRepository(db)
	toolkitRepo := database.NewToolkitRepository(db)

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	fetcher := scraper.New(15 * time.Second)

	// Connection suggestions need an API key; without one the worker
	// still handles scrape jobs.
	var provider suggest.Provider
	var catalog workers.CatalogBuilder
	if cfg.OpenAIKey != "" {
		provider = suggest.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.OpenAIModel, zapLogger)
		catalog = workers.NewContentCatalog(essayRepo, fieldNoteRepo, projectRepo, shelfRepo, toolkitRepo)
		zapLogger.Info("suggestion_provider_initialized", zap.String("model", cfg.OpenAIModel))
	} else {
		zapLogger.Warn("openai_key_not_set_suggestions_disabled")
	}

	worker := workers.NewIntakeWorker(rawSourceRepo, fetcher, provider, catalog, jobQueue, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				if err := worker.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	cancel()

	zapLogger.Info("worker_stopped")
}
