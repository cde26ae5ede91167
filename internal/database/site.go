package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nwhitfield/site-studio/internal/models"
)

// SiteRepository handles the Now page and site config singletons. Both
// live in single-row tables keyed by a fixed id.
type SiteRepository struct {
	db *DB
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// GetNowPage retrieves the Now page singleton.
func (r *SiteRepository) GetNowPage(ctx context.Context) (*models.NowPage, error) {
	page := &models.NowPage{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, body, updated_at FROM now_page LIMIT 1`,
	).Scan(&page.ID, &page.Body, &page.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("now page not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get now page: %w", err)
	}

	return page, nil
}

// UpdateNowPage replaces the Now page body.
func (r *SiteRepository) UpdateNowPage(ctx context.Context, page *models.NowPage) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE now_page SET body = $2, updated_at = $3 WHERE id = $1 RETURNING updated_at`,
		page.ID, page.Body, time.Now(),
	).Scan(&page.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("now page not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update now page: %w", err)
	}

	return nil
}

// GetSiteConfig retrieves the site config singleton. The nav, design
// tokens, and settings are stored as jsonb columns.
func (r *SiteRepository) GetSiteConfig(ctx context.Context) (*models.SiteConfig, error) {
	var navJSON, designJSON, settingsJSON []byte
	config := &models.SiteConfig{}

	err := r.db.QueryRowContext(ctx,
		`SELECT nav, design, settings, updated_at FROM site_config LIMIT 1`,
	).Scan(&navJSON, &designJSON, &settingsJSON, &config.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("site config not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site config: %w", err)
	}

	if err := json.Unmarshal(navJSON, &config.Nav); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nav: %w", err)
	}
	if err := json.Unmarshal(designJSON, &config.Design); err != nil {
		return nil, fmt.Errorf("failed to unmarshal design tokens: %w", err)
	}
	if err := json.Unmarshal(settingsJSON, &config.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return config, nil
}

// UpdateSiteConfig replaces the site config singleton.
func (r *SiteRepository) UpdateSiteConfig(ctx context.Context, config *models.SiteConfig) error {
	navJSON, err := json.Marshal(config.Nav)
	if err != nil {
		return fmt.Errorf("failed to marshal nav: %w", err)
	}
	designJSON, err := json.Marshal(config.Design)
	if err != nil {
		return fmt.Errorf("failed to marshal design tokens: %w", err)
	}
	settingsJSON, err := json.Marshal(config.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`UPDATE site_config SET nav = $1, design = $2, settings = $3, updated_at = $4 RETURNING updated_at`,
		navJSON, designJSON, settingsJSON, time.Now(),
	).Scan(&config.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("site config not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update site config: %w", err)
	}

	return nil
}
