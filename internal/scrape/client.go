// Package scrape holds the escalation-tier clients: a metered scraping API
// for links the browser cannot retrieve, and a profile API for professional
// network pages that are never fetched directly.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/osgraph/osgraph/internal/cache"
	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
	"github.com/osgraph/osgraph/internal/util"
)

// ErrNoTokens is returned when the client is constructed without API keys.
var ErrNoTokens = errors.New("no scraping API tokens configured")

// APIClient calls the remote scraping service. Responses are cached and
// concurrent requests for the same URL are collapsed, since every call
// spends metered credits.
type APIClient struct {
	baseURL    string
	tokens     []string
	httpClient *http.Client
	cache      cache.Cache
	group      singleflight.Group
}

// NewAPIClient builds a client over the configured token pool. The cache may
// be nil to disable caching.
func NewAPIClient(cfg model.ScrapeConfig, store cache.Cache) *APIClient {
	return &APIClient{
		baseURL: cfg.APIBaseURL,
		tokens:  cfg.APITokens,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, ""),
			},
		},
		cache: store,
	}
}

// Fetch retrieves target through the scraping service. With markdown set the
// service renders the page to structured text; otherwise raw markup is
// returned. A 400 response is retried once with premium residential routing,
// the only automatic retry in the whole retrieval path.
func (c *APIClient) Fetch(ctx context.Context, target string, markdown bool) (string, error) {
	if len(c.tokens) == 0 {
		return "", ErrNoTokens
	}

	key := cache.Key(fmt.Sprintf("%s|markdown=%v", target, markdown))
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			logger.Debug("scrape cache hit", "url", target)
			return string(data), nil
		}
	}

	body, err, _ := c.group.Do(key, func() (any, error) {
		content, err := c.fetch(ctx, target, markdown, false)
		if err == nil {
			return content, nil
		}
		var badReq *statusError
		if errors.As(err, &badReq) && badReq.code == http.StatusBadRequest {
			logger.Debug("retrying with premium routing", "url", target)
			return c.fetch(ctx, target, markdown, true)
		}
		return "", err
	})
	if err != nil {
		return "", err
	}

	content := body.(string)
	if c.cache != nil {
		_ = c.cache.Set(key, []byte(content), 0)
	}
	return content, nil
}

func (c *APIClient) fetch(ctx context.Context, target string, markdown, premium bool) (string, error) {
	q := url.Values{}
	q.Set("token", c.tokens[rand.IntN(len(c.tokens))])
	q.Set("url", target)
	if markdown {
		q.Set("output", "markdown")
	}
	if premium {
		q.Set("super", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, url: target}
	}

	logger.Debug("scraped via API", "url", target, "bytes", len(data), "elapsed", time.Since(start).Round(time.Millisecond))
	return string(data), nil
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("scrape %s: status %d", e.url, e.code)
}
