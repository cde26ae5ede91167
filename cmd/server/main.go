package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/captcha"
	"github.com/nwhitfield/site-studio/internal/config"
	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/gitstore"
	"github.com/nwhitfield/site-studio/internal/handlers"
	"github.com/nwhitfield/site-studio/internal/intake"
	"github.com/nwhitfield/site-studio/internal/logger"
	"github.com/nwhitfield/site-studio/internal/middleware"
	"github.com/nwhitfield/site-studio/internal/publisher"
	"github.com/nwhitfield/site-studio/internal/queue"
	"github.com/nwhitfield/site-studio/internal/services/oidc"
	"github.com/nwhitfield/site-studio/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("publishing_configured", cfg.PublishingConfigured()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing, when configured.
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "site-studio-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

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

	// Redis backs the public endpoint's rate limiter.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// RabbitMQ is optional for the API: without it, captures are saved
	// but metadata enrichment is skipped.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("rabbitmq_unavailable_enrichment_disabled", zap.Error(err))
			jobQueue = nil
		} else {
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	}

	// Repositories
	sourceRepo := database.NewSourceRepository(db)
	linkRepo := database.NewLinkRepository(db)
	threadRepo := database.NewThreadRepository(db)
	rawSourceRepo := database.NewRawSourceRepository(db)
	publishLogRepo := database.NewPublishLogRepository(db)
	essayRepo := database.NewEssayRepository(db)
	fieldNoteRepo := database.NewFieldNoteRepository(db)
	projectRepo := database.NewProjectRepository(db)
	shelfRepo := database.NewShelfRepository(db)
	toolkitRepo := database.NewToolkitRepository(db)
	siteRepo := database.NewSiteRepository(db)

	// Services
	intakeService := intake.NewService(rawSourceRepo, sourceRepo, jobQueue, zapLogger)
	captchaVerifier := captcha.New(cfg.RecaptchaSecret, cfg.RecaptchaMinScore, zapLogger)

	var gitWriter gitstore.Writer
	if cfg.PublishingConfigured() {
		gitWriter = gitstore.NewGitHubWriter(cfg.GitHubOwner+"/"+cfg.GitHubRepo, cfg.GitHubBranch, cfg.GitHubToken)
		zapLogger.Info("git_store_configured",
			zap.String("repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo),
			zap.String("branch", cfg.GitHubBranch),
		)
	} else {
		gitWriter = gitstore.Unconfigured()
		zapLogger.Warn("git_store_not_configured_publishing_disabled")
	}

	pub := publisher.New(publisher.Deps{
		Writer:      gitWriter,
		Logs:        publishLogRepo,
		Sources:     sourceRepo,
		Links:       linkRepo,
		Threads:     threadRepo,
		Essays:      essayRepo,
		FieldNotes:  fieldNoteRepo,
		Projects:    projectRepo,
		Shelf:       shelfRepo,
		Toolkit:     toolkitRepo,
		Site:        siteRepo,
		ContentRoot: cfg.ContentRoot,
		Logger:      zapLogger,
	})

	// Operator auth
	jwksManager := oidc.NewJWKSManager()
	verifier := oidc.NewVerifier(jwksManager, cfg.OIDCJWKSURL, cfg.OIDCIssuer, cfg.OIDCAudience)
	operatorAuth := middleware.OperatorAuth(verifier, cfg.OperatorSubject, zapLogger)

	suggestRateLimit, err := middleware.RateLimit(redisClient, "")
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Handlers
	sourceHandler := handlers.NewSourceHandler(sourceRepo, linkRepo)
	linkHandler := handlers.NewLinkHandler(linkRepo, sourceRepo)
	threadHandler := handlers.NewThreadHandler(threadRepo)
	contentHandler := handlers.NewContentHandler(essayRepo, fieldNoteRepo, projectRepo)
	collectionHandler := handlers.NewCollectionHandler(shelfRepo, toolkitRepo)
	siteHandler := handlers.NewSiteHandler(siteRepo)
	intakeHandler := handlers.NewIntakeHandler(intakeService, rawSourceRepo)
	publishHandler := handlers.NewPublishHandler(pub, publishLogRepo)
	publicHandler := handlers.NewPublicHandler(intakeService, captchaVerifier)
	healthChecker := handlers.NewHealthChecker(db, jobQueue)

	r := mux.NewRouter()

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("site-studio-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Public surface: visitor suggestions, rate limited, no auth.
	suggestRouter := apiRouter.PathPrefix("/suggest").Subrouter()
	suggestRouter.Use(suggestRateLimit)
	publicHandler.RegisterRoutes(suggestRouter)

	// Everything else is the operator's.
	sourcesRouter := apiRouter.PathPrefix("/sources").Subrouter()
	sourcesRouter.Use(operatorAuth)
	sourceHandler.RegisterRoutes(sourcesRouter)

	linksRouter := apiRouter.PathPrefix("/links").Subrouter()
	linksRouter.Use(operatorAuth)
	linkHandler.RegisterRoutes(linksRouter)

	backlinksRouter := apiRouter.PathPrefix("/backlinks").Subrouter()
	backlinksRouter.Use(operatorAuth)
	linkHandler.RegisterBacklinkRoutes(backlinksRouter)

	threadsRouter := apiRouter.PathPrefix("/threads").Subrouter()
	threadsRouter.Use(operatorAuth)
	threadHandler.RegisterRoutes(threadsRouter)

	contentRouter := apiRouter.PathPrefix("/content").Subrouter()
	contentRouter.Use(operatorAuth)
	contentHandler.RegisterRoutes(contentRouter)
	collectionHandler.RegisterRoutes(contentRouter)

	siteRouter := apiRouter.PathPrefix("/site").Subrouter()
	siteRouter.Use(operatorAuth)
	siteHandler.RegisterRoutes(siteRouter)

	intakeRouter := apiRouter.PathPrefix("/intake").Subrouter()
	intakeRouter.Use(operatorAuth)
	intakeHandler.RegisterRoutes(intakeRouter)

	publishRouter := apiRouter.PathPrefix("/publish").Subrouter()
	publishRouter.Use(operatorAuth)
	publishHandler.RegisterRoutes(publishRouter)

	// Preflight requests can land on any path; CORS headers are already
	// set by the middleware.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	gcCtx, gcCancel := context.WithCancel(context.Background())
	defer gcCancel()

	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(gcCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	gcCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ retries the connection with backoff to ride out
// broker startup delays.
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 5
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("rabbitmq unreachable after %d attempts: %w", maxRetries, lastErr)
}
