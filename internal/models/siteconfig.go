package models

import "time"

// NavItem is one entry in the site's top navigation.
type NavItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Order int    `json:"order"`
}

// DesignTokens are the site-wide visual settings exported to site.json.
type DesignTokens struct {
	AccentColor     string `json:"accent_color"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	HeadingFont     string `json:"heading_font"`
	BodyFont        string `json:"body_font"`
}

// SiteSettings are site-wide settings, including the homepage's featured
// content references.
type SiteSettings struct {
	Title               string `json:"title"`
	Tagline             string `json:"tagline"`
	Author              string `json:"author"`
	BaseURL             string `json:"base_url"`
	FeaturedEssaySlug   string `json:"featured_essay_slug"`
	FeaturedProjectSlug string `json:"featured_project_slug"`
}

// SiteConfig aggregates navigation, design tokens, and settings into the
// single site.json the static site reads.
type SiteConfig struct {
	Nav       []NavItem    `json:"nav"`
	Design    DesignTokens `json:"design"`
	Settings  SiteSettings `json:"settings"`
	UpdatedAt time.Time    `json:"updated_at"`
}
