// Package pipeline runs a full investigation: discovery, tiered retrieval,
// oracle-driven graph assembly, and run artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/osgraph/osgraph/internal/browser"
	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
)

// Retriever fetches pages through the browser session. Fast is the minimal
// ritual; Slow imitates a reading human.
type Retriever interface {
	Fast(ctx context.Context, url string) (string, error)
	Slow(ctx context.Context, url string) (string, error)
}

// APIFetcher is the metered escalation service.
type APIFetcher interface {
	Fetch(ctx context.Context, target string, markdown bool) (string, error)
}

// resultSelector marks organic result containers on the search provider's
// markup. Sponsored and widget blocks use other classes and are skipped.
const resultSelector = "tF2Cxc"

// Searcher pages through web search results for a subject. Search pages are
// heavily bot-guarded, so retrieval always uses the slow ritual and falls
// back to the raw escalation API when the browser is challenged.
type Searcher struct {
	retriever Retriever
	api       APIFetcher
	cfg       model.SearchConfig
}

// NewSearcher builds a searcher. api may be nil when no escalation service
// is configured.
func NewSearcher(retriever Retriever, api APIFetcher, cfg model.SearchConfig) *Searcher {
	return &Searcher{retriever: retriever, api: api, cfg: cfg}
}

// Discover returns candidate links for the subject across the configured
// number of result pages, deduplicated and in encounter order. A page that
// yields nothing ends the paging early.
func (s *Searcher) Discover(ctx context.Context, subject string) ([]string, error) {
	var links []string
	seen := make(map[string]bool)

	for page := 0; page < s.cfg.Pages; page++ {
		pageURL := fmt.Sprintf("https://www.google.com/search?q=%s&start=%d",
			url.QueryEscape(`"`+subject+`"`), page*s.cfg.ResultsPerPage+1)

		markup, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return links, ctx.Err()
			}
			logger.Warn("search page failed", "page", page, "err", err)
			continue
		}

		pageLinks := extractResultLinks(markup)
		logger.Debug("search page parsed", "page", page, "links", len(pageLinks))
		if len(pageLinks) == 0 {
			break
		}
		for _, link := range pageLinks {
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
	}

	if len(links) == 0 {
		return nil, fmt.Errorf("no results found for %q", subject)
	}
	return links, nil
}

func (s *Searcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	markup, err := s.retriever.Slow(ctx, pageURL)
	if err == nil {
		return markup, nil
	}
	if s.api != nil && (errors.Is(err, browser.ErrRateLimited) || errors.Is(err, browser.ErrCaptchaDetected)) {
		logger.Debug("search page escalated", "url", pageURL, "cause", err)
		return s.api.Fetch(ctx, pageURL, false)
	}
	return "", err
}

// extractResultLinks pulls the first anchor out of each organic result
// container.
func extractResultLinks(markup string) []string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, resultSelector) {
			if href := firstAnchor(n); href != "" {
				links = append(links, href)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func firstAnchor(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, a := range n.Attr {
			if a.Key == "href" && strings.HasPrefix(a.Val, "http") {
				return a.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := firstAnchor(c); href != "" {
			return href
		}
	}
	return ""
}
