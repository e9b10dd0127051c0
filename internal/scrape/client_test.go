package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osgraph/osgraph/internal/cache"
	"github.com/osgraph/osgraph/internal/model"
)

func testScrapeConfig(baseURL string, tokens ...string) model.ScrapeConfig {
	return model.ScrapeConfig{
		APIBaseURL:  baseURL,
		APITokens:   tokens,
		HTTPTimeout: 5 * time.Second,
	}
}

func TestAPIClient_FetchMarkdown(t *testing.T) {
	var gotToken, gotURL, gotOutput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		gotURL = r.URL.Query().Get("url")
		gotOutput = r.URL.Query().Get("output")
		w.Write([]byte("# Rendered\n\ncontent"))
	}))
	defer srv.Close()

	c := NewAPIClient(testScrapeConfig(srv.URL, "tok-1"), nil)
	out, err := c.Fetch(context.Background(), "https://example.com/page", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "# Rendered\n\ncontent" {
		t.Errorf("unexpected body: %q", out)
	}
	if gotToken != "tok-1" {
		t.Errorf("token = %q, want tok-1", gotToken)
	}
	if gotURL != "https://example.com/page" {
		t.Errorf("url = %q", gotURL)
	}
	if gotOutput != "markdown" {
		t.Errorf("output = %q, want markdown", gotOutput)
	}
}

func TestAPIClient_RawOmitsOutputParam(t *testing.T) {
	var gotOutput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOutput = r.URL.Query().Get("output")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := NewAPIClient(testScrapeConfig(srv.URL, "tok-1"), nil)
	if _, err := c.Fetch(context.Background(), "https://example.com", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOutput != "" {
		t.Errorf("raw fetch must not request markdown rendering, got output=%q", gotOutput)
	}
}

func TestAPIClient_PremiumRetryOn400(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			if r.URL.Query().Get("super") != "" {
				t.Error("first attempt must not use premium routing")
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("super") != "true" {
			t.Error("retry must set super=true")
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewAPIClient(testScrapeConfig(srv.URL, "tok-1"), nil)
	out, err := c.Fetch(context.Background(), "https://hard.example.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("unexpected body: %q", out)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected exactly 2 calls, got %d", calls)
	}
}

func TestAPIClient_NoRetryOnOtherStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAPIClient(testScrapeConfig(srv.URL, "tok-1"), nil)
	if _, err := c.Fetch(context.Background(), "https://example.com", true); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("non-400 failures must not retry, got %d calls", calls)
	}
}

func TestAPIClient_CacheAvoidsSecondCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("cached content"))
	}))
	defer srv.Close()

	c := NewAPIClient(testScrapeConfig(srv.URL, "tok-1"), cache.NewMemoryCache(time.Minute, time.Minute))
	for i := 0; i < 3; i++ {
		out, err := c.Fetch(context.Background(), "https://example.com/same", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "cached content" {
			t.Errorf("unexpected body: %q", out)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
}

func TestAPIClient_EmptyTokenPool(t *testing.T) {
	c := NewAPIClient(testScrapeConfig("http://unused"), nil)
	if _, err := c.Fetch(context.Background(), "https://example.com", true); err != ErrNoTokens {
		t.Fatalf("expected ErrNoTokens, got %v", err)
	}
}

func TestProfileClient_BearerAuth(t *testing.T) {
	var gotAuth, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotURL = r.URL.Query().Get("url")
		w.Write([]byte(`{"full_name":"John Doe"}`))
	}))
	defer srv.Close()

	c := NewProfileClient(model.ScrapeConfig{
		ProfileBaseURL: srv.URL,
		ProfileAPIKey:  "pk-1",
		HTTPTimeout:    5 * time.Second,
	}, nil)

	out, err := c.Fetch(context.Background(), "https://linkedin.com/in/johndoe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"full_name":"John Doe"}` {
		t.Errorf("unexpected body: %q", out)
	}
	if gotAuth != "Bearer pk-1" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotURL != "https://linkedin.com/in/johndoe" {
		t.Errorf("url = %q", gotURL)
	}
}

func TestProfileClient_Unconfigured(t *testing.T) {
	c := NewProfileClient(model.ScrapeConfig{}, nil)
	if c.Configured() {
		t.Error("client without key must report unconfigured")
	}
	if _, err := c.Fetch(context.Background(), "https://linkedin.com/in/x"); err != ErrNoProfileKey {
		t.Fatalf("expected ErrNoProfileKey, got %v", err)
	}
}
