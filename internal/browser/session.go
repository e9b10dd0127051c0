// Package browser drives a real Chromium instance for page retrieval. A
// single Session owns the browser process for the lifetime of a run; every
// retrieval opens a fresh page hardened against automation fingerprinting
// and closes it before returning.
package browser

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/osgraph/osgraph/internal/logger"
	"github.com/osgraph/osgraph/internal/model"
)

// personas are plausible desktop user-agent strings, one picked at random
// per page.
var personas = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
}

// challengeMarkers appear in the rendered text of bot-challenge interstitials.
var challengeMarkers = []string{
	"verify you are human",
	"i'm not a robot",
	"unusual traffic from your computer",
	"checking your browser",
	"access denied",
	"enable javascript and cookies to continue",
}

// Session wraps a launched browser. Safe for concurrent retrievals: each
// call operates on its own page.
type Session struct {
	cfg      model.BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewSession launches the browser and connects to it. Failure here is fatal
// to the run; there is no degraded mode without a browser.
func NewSession(cfg model.BrowserConfig) (*Session, error) {
	l := launcher.New().Headless(cfg.Headless)
	if cfg.ProxyServer != "" {
		l = l.Proxy(cfg.ProxyServer)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	if cfg.ProxyServer != "" && cfg.ProxyUsername != "" {
		wait := b.HandleAuth(cfg.ProxyUsername, cfg.ProxyPassword)
		go func() { _ = wait() }()
	}

	logger.Debug("browser session started", "headless", cfg.Headless, "proxy", cfg.ProxyServer != "")
	return &Session{cfg: cfg, launcher: l, browser: b}, nil
}

// Fast retrieves a page with the minimal ritual: navigate, wait for load,
// short settle, capture markup.
func (s *Session) Fast(ctx context.Context, url string) (string, error) {
	return s.retrieve(ctx, url, false)
}

// Slow retrieves a page while imitating a reading human: randomized
// incremental scrolls with pauses before capture. Used for search result
// pages and for links escalated out of the fast tier.
func (s *Session) Slow(ctx context.Context, url string) (string, error) {
	return s.retrieve(ctx, url, true)
}

func (s *Session) retrieve(ctx context.Context, url string, slow bool) (markup string, err error) {
	page, err := stealth.Page(s.browser)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(s.cfg.NavigationTimeout)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: personas[rand.IntN(len(personas))],
	}); err != nil {
		return "", fmt.Errorf("set user agent: %w", err)
	}

	// The first response event of a fresh page is the document itself; its
	// status distinguishes throttling from ordinary failures.
	var resp proto.NetworkResponseReceived
	wait := page.WaitEvent(&resp)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()
	if resp.Response != nil && resp.Response.Status == 429 {
		return "", fmt.Errorf("%s: %w", url, ErrRateLimited)
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}
	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return "", err
	}

	if slow {
		// Scrolling a page whose body has not attached yet throws; wait for it.
		if _, err := page.Element("body"); err != nil {
			return "", fmt.Errorf("wait body %s: %w", url, err)
		}
		if err := s.scrollThrough(ctx, page); err != nil {
			return "", err
		}
	}

	markup, err = page.HTML()
	if err != nil {
		return "", fmt.Errorf("capture %s: %w", url, err)
	}
	if marker := challengeIn(markup); marker != "" {
		logger.Debug("challenge page detected", "url", url, "marker", marker)
		return "", fmt.Errorf("%s: %w", url, ErrCaptchaDetected)
	}
	return markup, nil
}

// scrollThrough performs 3 to 6 partial scrolls with human-scale pauses.
func (s *Session) scrollThrough(ctx context.Context, page *rod.Page) error {
	for i, n := 0, 3+rand.IntN(4); i < n; i++ {
		if err := page.Mouse.Scroll(0, float64(300+rand.IntN(600)), 1); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		if err := sleep(ctx, time.Duration(500+rand.IntN(1000))*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// Close tears down the browser and its process. The session is unusable
// afterwards.
func (s *Session) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	logger.Debug("browser session closed")
	return err
}

func challengeIn(markup string) string {
	lower := strings.ToLower(markup)
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
