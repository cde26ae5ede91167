package serialize

import (
	"github.com/nwhitfield/site-studio/internal/models"
)

// SiteConfigJSON is the published shape of site.json: navigation,
// design tokens, and site-wide settings in one aggregate.
type SiteConfigJSON struct {
	Nav       []NavItemJSON    `json:"nav"`
	Design    DesignTokensJSON `json:"design"`
	Settings  SettingsJSON     `json:"settings"`
	UpdatedAt string           `json:"updatedAt"`
}

// NavItemJSON is one navigation entry.
type NavItemJSON struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Order int    `json:"order"`
}

// DesignTokensJSON carries the site-wide visual settings.
type DesignTokensJSON struct {
	AccentColor     string `json:"accentColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	HeadingFont     string `json:"headingFont"`
	BodyFont        string `json:"bodyFont"`
}

// SettingsJSON carries site-wide settings and featured-content slugs.
type SettingsJSON struct {
	Title               string `json:"title"`
	Tagline             string `json:"tagline"`
	Author              string `json:"author"`
	BaseURL             string `json:"baseUrl"`
	FeaturedEssaySlug   string `json:"featuredEssaySlug"`
	FeaturedProjectSlug string `json:"featuredProjectSlug"`
}

// SiteConfig maps the site configuration aggregate to its published shape.
func SiteConfig(cfg *models.SiteConfig) SiteConfigJSON {
	nav := make([]NavItemJSON, 0, len(cfg.Nav))
	for _, item := range cfg.Nav {
		nav = append(nav, NavItemJSON{Label: item.Label, Href: item.Href, Order: item.Order})
	}
	return SiteConfigJSON{
		Nav: nav,
		Design: DesignTokensJSON{
			AccentColor:     cfg.Design.AccentColor,
			BackgroundColor: cfg.Design.BackgroundColor,
			TextColor:       cfg.Design.TextColor,
			HeadingFont:     cfg.Design.HeadingFont,
			BodyFont:        cfg.Design.BodyFont,
		},
		Settings: SettingsJSON{
			Title:               cfg.Settings.Title,
			Tagline:             cfg.Settings.Tagline,
			Author:              cfg.Settings.Author,
			BaseURL:             cfg.Settings.BaseURL,
			FeaturedEssaySlug:   cfg.Settings.FeaturedEssaySlug,
			FeaturedProjectSlug: cfg.Settings.FeaturedProjectSlug,
		},
		UpdatedAt: cfg.UpdatedAt.UTC().Format(dateLayout),
	}
}
