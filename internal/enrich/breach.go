// Package enrich resolves identifiers pulled from the assembled graph
// against external account databases: breach corpora for emails, site
// enumeration for usernames and email registrations.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
)

// Breach is one breach record an account appeared in.
type Breach struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	DataClasses []string `json:"DataClasses"`
}

// BreachClient queries the breach corpus. The service enforces a hard
// per-key request interval, so the limiter is not optional.
type BreachClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewBreachClient builds a client paced at one request per cfg.BreachInterval.
func NewBreachClient(cfg model.EnrichConfig) *BreachClient {
	return &BreachClient{
		baseURL:    cfg.BreachBaseURL,
		apiKey:     cfg.BreachAPIKey,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.BreachInterval), 1),
	}
}

// Configured reports whether the client holds an API key.
func (c *BreachClient) Configured() bool { return c.apiKey != "" }

// Lookup returns the breaches an account appears in. A clean account returns
// an empty slice and no error.
func (c *BreachClient) Lookup(ctx context.Context, account string) ([]Breach, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no breach API key configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/breachedaccount/%s?truncateResponse=false", c.baseURL, url.PathEscape(account))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("hibp-api-key", c.apiKey)
	req.Header.Set("User-Agent", "osgraph")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("breach lookup %s: %w", account, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		var breaches []Breach
		if err := json.Unmarshal(data, &breaches); err != nil {
			return nil, fmt.Errorf("decode breaches for %s: %w", account, err)
		}
		logger.Debug("breach lookup", "account", account, "breaches", len(breaches))
		return breaches, nil
	case http.StatusNotFound:
		// Not breached.
		return nil, nil
	default:
		return nil, fmt.Errorf("breach lookup %s: status %d", account, resp.StatusCode)
	}
}
