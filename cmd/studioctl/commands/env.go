package commands

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/config"
	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/gitstore"
	"github.com/nwhitfield/site-studio/internal/logger"
	"github.com/nwhitfield/site-studio/internal/publisher"
)

// Verbose is set by the root command's --verbose flag.
var Verbose bool

// newLogger returns a console logger when --verbose is set, otherwise a
// no-op logger so command output stays clean.
func newLogger() *zap.Logger {
	if !Verbose {
		return zap.NewNop()
	}
	l, err := logger.NewDevelopmentLogger(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to build logger: %v\n", err)
		return zap.NewNop()
	}
	return l
}

// openDB loads configuration and connects to the database.
func openDB() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, db, nil
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// newPublisher builds a fully wired publisher against the repositories
// and the configured Git store.
func newPublisher(cfg *config.Config, db *database.DB) (*publisher.Publisher, error) {
	if !cfg.PublishingConfigured() {
		return nil, fmt.Errorf("git store not configured: set GITHUB_TOKEN, GITHUB_OWNER, and GITHUB_REPO")
	}

	writer := gitstore.NewGitHubWriter(cfg.GitHubOwner+"/"+cfg.GitHubRepo, cfg.GitHubBranch, cfg.GitHubToken)

	return publisher.New(publisher.Deps{
		Writer:      writer,
		Logs:        database.NewPublishLogRepository(db),
		Sources:     database.NewSourceRepository(db),
		Links:       database.NewLinkRepository(db),
		Threads:     database.NewThreadRepository(db),
		Essays:      database.NewEssayRepository(db),
		FieldNotes:  database.NewFieldNoteRepository(db),
		Projects:    database.NewProjectRepository(db),
		Shelf:       database.NewShelfRepository(db),
		Toolkit:     database.NewToolkitRepository(db),
		Site:        database.NewSiteRepository(db),
		ContentRoot: cfg.ContentRoot,
		Logger:      newLogger(),
	}), nil
}
