package publisher

import (
	"context"
	"fmt"

	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/serialize"
)

// PublishSiteConfig serializes the site config singleton and commits
// site.json.
func (p *Publisher) PublishSiteConfig(ctx context.Context) (*models.PublishLog, error) {
	config, err := p.deps.Site.GetSiteConfig(ctx)
	if err != nil {
		return nil, err
	}

	content, err := serialize.ToJSON(serialize.SiteConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize site config: %w", err)
	}

	result := p.deps.Writer.Write(ctx, siteConfigPath, content, "Update site config")
	entry := p.record(ctx, models.PublishDataSiteConfig, "", "Site config", 1, result)

	if !result.Success {
		return entry, failed(entry)
	}

	return entry, nil
}
