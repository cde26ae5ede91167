package publisher

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nwhitfield/site-studio/internal/backlink"
	"github.com/nwhitfield/site-studio/internal/gitstore"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/serialize"
)

// Fixed paths the static site reads research data and site config from.
const (
	sourcesPath    = "research/sources.json"
	linksPath      = "research/links.json"
	threadsPath    = "research/threads.json"
	backlinksPath  = "research/backlinks.json"
	siteConfigPath = "site.json"
)

// PublishResearch publishes the full research dataset in one atomic
// commit: sources, links, threads, and the derived backlink graph. Only
// public sources and threads are exported; links are restricted to the
// exported sources so the published graph is self-consistent. The
// record count on the audit entry is sources + links + threads (the
// backlink graph is derived, not counted).
func (p *Publisher) PublishResearch(ctx context.Context) (*models.PublishLog, error) {
	public := true

	sources, err := p.deps.Sources.List(ctx, nil, &public, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	allLinks, err := p.deps.Links.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}

	publicIDs := make(map[uuid.UUID]bool, len(sources))
	for _, s := range sources {
		publicIDs[s.ID] = true
	}
	links := make([]*models.SourceLink, 0, len(allLinks))
	for _, l := range allLinks {
		if publicIDs[l.SourceID] {
			links = append(links, l)
		}
	}

	threads, err := p.deps.Threads.List(ctx, nil, &public)
	if err != nil {
		return nil, fmt.Errorf("failed to load threads: %w", err)
	}

	sourcesJSON := make([]serialize.SourceJSON, 0, len(sources))
	for _, s := range sources {
		sourcesJSON = append(sourcesJSON, serialize.Source(s))
	}
	linksJSON := make([]serialize.LinkJSON, 0, len(links))
	for _, l := range links {
		linksJSON = append(linksJSON, serialize.Link(l))
	}
	threadsJSON := make([]serialize.ThreadJSON, 0, len(threads))
	for _, t := range threads {
		threadsJSON = append(threadsJSON, serialize.Thread(t))
	}
	graphJSON := serialize.Backlinks(backlink.All(links))

	ops := make([]gitstore.FileOp, 0, 4)
	for _, f := range []struct {
		path string
		v    any
	}{
		{sourcesPath, sourcesJSON},
		{linksPath, linksJSON},
		{threadsPath, threadsJSON},
		{backlinksPath, graphJSON},
	} {
		content, err := serialize.ToJSON(f.v)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %s: %w", f.path, err)
		}
		ops = append(ops, gitstore.FileOp{Path: f.path, Content: content})
	}

	recordCount := len(sources) + len(links) + len(threads)
	message := fmt.Sprintf("Publish research data (%d records)", recordCount)
	result := p.deps.Writer.WriteMany(ctx, ops, message)
	entry := p.record(ctx, models.PublishDataResearch, "", "Research data", recordCount, result)

	if !result.Success {
		return entry, failed(entry)
	}

	return entry, nil
}
