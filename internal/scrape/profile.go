package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/osgraph/osgraph/internal/cache"
	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
	"github.com/osgraph/osgraph/internal/util"
)

// ErrNoProfileKey is returned when the profile service is not configured.
var ErrNoProfileKey = errors.New("no profile API key configured")

// ProfileClient resolves professional-network profile pages through a data
// broker instead of fetching them directly. The response is the broker's
// structured JSON document for the profile.
type ProfileClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      cache.Cache
}

// NewProfileClient builds a profile client. The cache may be nil.
func NewProfileClient(cfg model.ScrapeConfig, store cache.Cache) *ProfileClient {
	return &ProfileClient{
		baseURL: cfg.ProfileBaseURL,
		apiKey:  cfg.ProfileAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, ""),
			},
		},
		cache: store,
	}
}

// Configured reports whether the client holds an API key.
func (c *ProfileClient) Configured() bool { return c.apiKey != "" }

// Fetch resolves a profile URL to the broker's JSON document.
func (c *ProfileClient) Fetch(ctx context.Context, profileURL string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoProfileKey
	}

	key := cache.Key("profile|" + profileURL)
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			logger.Debug("profile cache hit", "url", profileURL)
			return string(data), nil
		}
	}

	q := url.Values{}
	q.Set("url", profileURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve profile %s: %w", profileURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve profile %s: status %d", profileURL, resp.StatusCode)
	}

	if c.cache != nil {
		_ = c.cache.Set(key, data, 0)
	}
	logger.Debug("profile resolved", "url", profileURL, "bytes", len(data))
	return string(data), nil
}
