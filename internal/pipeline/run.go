package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osgraph/osgraph/internal/browser"
	"github.com/osgraph/osgraph/internal/cache"
	"github.com/osgraph/osgraph/internal/graph"
	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
	"github.com/osgraph/osgraph/internal/oracle"
	"github.com/osgraph/osgraph/internal/scrape"
)

// Summary is what a finished run reports back to the CLI.
type Summary struct {
	RunID     string
	Dir       string
	Links     int
	Documents int
	Failed    int
	Nodes     int
	Edges     int
	Elapsed   time.Duration
}

// Run executes a complete investigation of subject. Only configuration and
// browser bootstrap errors are fatal; everything downstream degrades per
// link or per document.
func Run(ctx context.Context, cfg *model.Config, subject string) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger.Info("run started", "run_id", runID, "subject", subject)

	reasoner, err := oracle.NewClient(cfg.Oracle)
	if err != nil {
		return nil, err
	}

	session, err := browser.NewSession(cfg.Browser)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("browser shutdown", "err", err)
		}
	}()

	var store cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			store = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
	}

	var api APIFetcher
	if len(cfg.Scrape.APITokens) > 0 {
		api = scrape.NewAPIClient(cfg.Scrape, store)
	}
	var profile ProfileFetcher
	if cfg.Scrape.ProfileAPIKey != "" {
		profile = scrape.NewProfileClient(cfg.Scrape, store)
	}

	searcher := NewSearcher(session, api, cfg.Search)
	links, err := searcher.Discover(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	logger.Info("discovery complete", "links", len(links))

	dispatcher := NewDispatcher(session, api, profile, cfg.Scrape)
	docs, failed := dispatcher.Run(ctx, links)

	g := graph.New()
	assembler := NewAssembler(reasoner)
	applied, assembleFailed := assembler.Assemble(ctx, g, subject, docs)
	failed = append(failed, assembleFailed...)
	logger.Info("assembly complete", "documents", applied, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	dir, err := RunDir(cfg.Output.DataDir, subject, start)
	if err != nil {
		return nil, err
	}
	if err := WriteArtifacts(dir, g, docs, failed); err != nil {
		logger.Warn("artifact write incomplete", "err", err)
	}

	return &Summary{
		RunID:     runID,
		Dir:       dir,
		Links:     len(links),
		Documents: len(docs),
		Failed:    len(failed),
		Nodes:     g.NodeCount(),
		Edges:     g.EdgeCount(),
		Elapsed:   time.Since(start).Round(time.Second),
	}, nil
}
