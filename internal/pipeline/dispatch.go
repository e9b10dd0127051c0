package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
	"github.com/osgraph/osgraph/internal/normalize"
	"github.com/osgraph/osgraph/internal/util"
	"github.com/osgraph/osgraph/internal/worker"
)

// Document is one successfully retrieved page, reduced to oracle-ready text.
type Document struct {
	URL     string
	Content string
	Tier    string // "fast", "api", "profile"
}

// FailedLink records a link that exhausted every tier.
type FailedLink struct {
	URL    string
	Reason string
}

// ProfileFetcher resolves professional-network profiles through a broker.
type ProfileFetcher interface {
	Configured() bool
	Fetch(ctx context.Context, profileURL string) (string, error)
}

// Dispatcher routes every discovered link through the retrieval tiers:
// direct browser fetch first, the metered API when the browser is blocked.
// Known-hostile domains skip the browser entirely. A host that just
// throttled or challenged the browser is never hit by the browser again;
// the link escalates immediately.
type Dispatcher struct {
	retriever Retriever
	api       APIFetcher
	profile   ProfileFetcher
	robots    *util.RobotsChecker
	limiter   *worker.Limiter
	cfg       model.ScrapeConfig
}

// NewDispatcher wires the tiers together. api and profile may be nil when
// the corresponding service is not configured; robots is consulted only in
// polite mode.
func NewDispatcher(retriever Retriever, api APIFetcher, profile ProfileFetcher, cfg model.ScrapeConfig) *Dispatcher {
	d := &Dispatcher{
		retriever: retriever,
		api:       api,
		profile:   profile,
		limiter:   worker.NewLimiter(1, 1),
		cfg:       cfg,
	}
	if cfg.RespectRobots {
		d.robots = util.NewRobotsChecker("osgraph", cfg.HTTPTimeout)
	}
	return d
}

// Run retrieves every link. Each input link ends up in exactly one of the
// two return slices.
func (d *Dispatcher) Run(ctx context.Context, links []string) ([]Document, []FailedLink) {
	direct, skipped := d.partition(ctx, links)

	docs, escalate := d.fastTier(ctx, direct)
	escalate = append(escalate, skipped...)

	apiDocs, failed := d.escalationTier(ctx, escalate)
	docs = append(docs, apiDocs...)

	logger.Info("dispatch complete",
		"links", len(links), "documents", len(docs), "failed", len(failed))
	return docs, failed
}

// partition splits links into browser candidates and links that must never
// touch the browser. Skip matching is a substring test against the whole
// link, so subdomains and path variants match too.
func (d *Dispatcher) partition(ctx context.Context, links []string) (direct, skipped []string) {
	for _, link := range links {
		if d.skipDomain(link) {
			logger.Debug("link skipped for browser", "url", link)
			skipped = append(skipped, link)
			continue
		}
		if d.robots != nil && !d.robots.IsAllowed(ctx, link) {
			logger.Debug("robots disallows direct fetch", "url", link)
			skipped = append(skipped, link)
			continue
		}
		direct = append(direct, link)
	}
	return direct, skipped
}

func (d *Dispatcher) skipDomain(link string) bool {
	for _, domain := range d.cfg.SkipDomains {
		if strings.Contains(link, domain) {
			return true
		}
	}
	return false
}

// fastTier fetches direct links concurrently under the admission ceiling,
// with per-domain pacing. Any failure, throttling and challenges included,
// sends the link straight to escalation: the fast tier never retries.
func (d *Dispatcher) fastTier(ctx context.Context, links []string) (docs []Document, escalate []string) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.FastConcurrency)

	for _, link := range links {
		g.Go(func() error {
			if err := d.limiter.Wait(gctx, link); err != nil {
				mu.Lock()
				escalate = append(escalate, link)
				mu.Unlock()
				return nil
			}

			markup, err := d.retriever.Fast(gctx, link)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Debug("fast fetch failed", "url", link, "err", err)
				escalate = append(escalate, link)
				return nil
			}
			if text := normalize.Normalize(markup); text != "" {
				docs = append(docs, Document{URL: link, Content: text, Tier: "fast"})
			} else {
				escalate = append(escalate, link)
			}
			return nil
		})
	}
	_ = g.Wait()
	return docs, escalate
}

// escalationTier spends metered credits on everything the browser could not
// or must not retrieve. The remote service carries the load, so the fan-out
// has no shared ceiling.
func (d *Dispatcher) escalationTier(ctx context.Context, links []string) (docs []Document, failed []FailedLink) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, link := range links {
		g.Go(func() error {
			doc, err := d.escalate(gctx, link)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, FailedLink{URL: link, Reason: err.Error()})
				return nil
			}
			docs = append(docs, doc)
			return nil
		})
	}
	_ = g.Wait()
	return docs, failed
}

func (d *Dispatcher) escalate(ctx context.Context, link string) (Document, error) {
	if d.profile != nil && d.profile.Configured() && strings.Contains(link, "linkedin.com/in/") {
		content, err := d.profile.Fetch(ctx, link)
		if err != nil {
			return Document{}, err
		}
		return Document{URL: link, Content: content, Tier: "profile"}, nil
	}
	if d.api == nil {
		return Document{}, errors.New("no escalation service configured")
	}
	content, err := d.api.Fetch(ctx, link, true)
	if err != nil {
		return Document{}, err
	}
	return Document{URL: link, Content: content, Tier: "api"}, nil
}
