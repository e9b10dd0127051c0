package worker

import (
	"context"
	"testing"
)

func TestLimiter_DefaultBurst(t *testing.T) {
	if l := NewLimiter(10, -1); l.defaultBurst != 1 {
		t.Errorf("expected burst 1 for invalid input, got %d", l.defaultBurst)
	}
}

func TestLimiter_PerDomainBuckets(t *testing.T) {
	l := NewLimiter(0.001, 1)

	if !l.Allow("http://a.example.com/page") {
		t.Error("first request to a domain must pass")
	}
	if l.Allow("http://a.example.com/other") {
		t.Error("second request must be paced (burst exhausted)")
	}
	if !l.Allow("http://b.example.com/page") {
		t.Error("a different domain has its own bucket")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	if err := l.Wait(context.Background(), "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if l.Allow("::invalid") {
		t.Error("invalid URL must not be allowed")
	}
	if err := l.Wait(context.Background(), "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
