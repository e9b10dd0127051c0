package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestChallengeIn(t *testing.T) {
	cases := []struct {
		markup string
		want   bool
	}{
		{"<html><body>John Doe, engineer at Acme</body></html>", false},
		{"<html><body>Please Verify You Are Human to continue</body></html>", true},
		{"<html><body>We detected unusual traffic from your computer network</body></html>", true},
		{"<html><body>ACCESS DENIED</body></html>", true},
		{"", false},
	}
	for _, c := range cases {
		got := challengeIn(c.markup) != ""
		if got != c.want {
			t.Errorf("challengeIn(%q) = %v, want %v", c.markup, got, c.want)
		}
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	wrapped := fmt.Errorf("https://example.com: %w", ErrRateLimited)
	if !errors.Is(wrapped, ErrRateLimited) {
		t.Error("wrapped rate-limit error not recognized")
	}
	if errors.Is(wrapped, ErrCaptchaDetected) {
		t.Error("rate-limit error must not match captcha sentinel")
	}
}

func TestSleepRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleep(ctx, 10*time.Second); err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("sleep did not return promptly on cancellation")
	}
}

func TestSleepZeroDuration(t *testing.T) {
	if err := sleep(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
