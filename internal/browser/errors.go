package browser

import "errors"

// Signaled conditions the dispatcher must branch on, as opposed to generic
// retrieval errors. Both route the link to the escalation tier.
var (
	// ErrRateLimited is signaled when the target responds with HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrCaptchaDetected is signaled when the rendered page carries a known
	// bot-challenge marker.
	ErrCaptchaDetected = errors.New("captcha detected")
)
