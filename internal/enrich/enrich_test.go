package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/osgraph/osgraph/internal/graph"
	"github.com/osgraph/osgraph/internal/model"
)

func testBreachClient(baseURL string) *BreachClient {
	return NewBreachClient(model.EnrichConfig{
		BreachBaseURL:  baseURL,
		BreachAPIKey:   "key-1",
		BreachInterval: time.Millisecond,
		HTTPTimeout:    5 * time.Second,
	})
}

func TestBreachLookup_Found(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("hibp-api-key")
		gotPath = r.URL.Path
		w.Write([]byte(`[{"Name":"Adobe","Title":"Adobe","Domain":"adobe.com","BreachDate":"2013-10-04","DataClasses":["Email addresses","Passwords"]}]`))
	}))
	defer srv.Close()

	breaches, err := testBreachClient(srv.URL).Lookup(context.Background(), "john@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(breaches) != 1 || breaches[0].Name != "Adobe" {
		t.Errorf("unexpected breaches: %+v", breaches)
	}
	if gotKey != "key-1" {
		t.Errorf("hibp-api-key header = %q", gotKey)
	}
	if gotPath != "/breachedaccount/john@example.com" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestBreachLookup_NotBreached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	breaches, err := testBreachClient(srv.URL).Lookup(context.Background(), "clean@example.com")
	if err != nil {
		t.Fatalf("404 must mean clean, got error: %v", err)
	}
	if breaches != nil {
		t.Errorf("expected no breaches, got %+v", breaches)
	}
}

func TestBreachLookup_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := testBreachClient(srv.URL).Lookup(context.Background(), "x@example.com"); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestParseSiteHits(t *testing.T) {
	out := `[*] Checking username johndoe on:
[+] GitHub: https://github.com/johndoe
[+] Reddit: https://reddit.com/user/johndoe
[-] Twitter: Not Found
[+] malformed line without separator
`
	hits := parseSiteHits(out)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].Site != "GitHub" || hits[0].URL != "https://github.com/johndoe" {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
}

func TestParseDomainHits(t *testing.T) {
	out := `[x] spotify.com
[+] twitter.com
[+] instagram.com
[-] github.com
[+] not a domain line
`
	hits := parseDomainHits(out)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].Site != "twitter.com" || hits[1].Site != "instagram.com" {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

type fakeEnumerator struct {
	hits []Hit
	err  error
}

func (f *fakeEnumerator) Enumerate(ctx context.Context, id string) ([]Hit, error) {
	return f.hits, f.err
}

func TestRunner_FailuresRecordedNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := &Runner{
		Breach:    testBreachClient(srv.URL),
		Usernames: &fakeEnumerator{err: errors.New("tool missing")},
		Emails:    &fakeEnumerator{hits: []Hit{{Site: "twitter.com"}}},
	}
	report := r.Run(context.Background(), graph.Identifiers{
		Emails:    []string{"john@example.com"},
		Usernames: []string{"johndoe"},
	})

	if len(report.Emails) != 1 || len(report.Usernames) != 1 {
		t.Fatalf("unexpected report shape: %+v", report)
	}
	if len(report.Emails[0].Accounts) != 1 {
		t.Errorf("email enumeration hits lost: %+v", report.Emails[0])
	}
	if len(report.Usernames[0].Errors) != 1 {
		t.Errorf("username tool failure must be recorded: %+v", report.Usernames[0])
	}
}
