package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dandibbert/pixvel/internal/shared"
)

// responseClass is the closed set of outcomes an upstream response can be
// classified into. Exactly one classification function produces these; the
// retry and refresh logic consumes them, which keeps the policy table (who
// retries, who refreshes, who fails fast) in one place.
type responseClass int

const (
	classOK responseClass = iota
	classAuth
	classRateLimited
	classUpstream
)

// upstreamErrorBody is the error envelope the platform returns on failures.
type upstreamErrorBody struct {
	Error struct {
		UserMessage string `json:"user_message"`
		Message     string `json:"message"`
	} `json:"error"`
}

// classifyResponse maps an upstream HTTP status and body to a responseClass.
//
// A 401, or a 400 whose error message carries an OAuth or invalid-grant
// marker, is an authentication failure (the token died, refresh may help).
// A "Limit" marker means throttling (back off, never retry). Everything else
// non-2xx is a plain upstream error (fail fast).
func classifyResponse(status int, body []byte) (responseClass, string) {
	if status >= 200 && status < 300 {
		return classOK, ""
	}

	var parsed upstreamErrorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Error.Message
	if status == 401 ||
		(status == 400 && (strings.Contains(message, "OAuth") || strings.Contains(message, "invalid_grant"))) {
		return classAuth, message
	}

	if message == "" {
		message = parsed.Error.UserMessage
	}
	if strings.Contains(parsed.Error.Message, "Limit") || strings.Contains(parsed.Error.UserMessage, "Limit") {
		return classRateLimited, message
	}

	return classUpstream, message
}

// UpstreamError is a non-auth, non-throttle upstream failure carrying the
// status and message the platform returned. Never retried.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API error (%d): %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return shared.ErrUpstreamRequest
}

// retryPolicy controls the generic transient-failure retry wrapper.
//
// sleep is injectable so tests can record delays instead of elapsing them.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		maxRetries: 2,
		baseDelay:  time.Second,
		maxDelay:   5 * time.Second,
		sleep:      sleepContext,
	}
}

// delay returns the backoff before retry number attempt+1: baseDelay doubled
// per attempt, capped at maxDelay.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.baseDelay << attempt
	if d > p.maxDelay {
		d = p.maxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withRetry invokes fn up to maxRetries+1 times, backing off between
// attempts. Only errors classified as transient network failures are retried;
// rate-limit and every other error class fail immediately so the caller can
// take the right remedial action instead of amplifying load.
func withRetry(ctx context.Context, policy retryPolicy, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !errors.Is(lastErr, shared.ErrTransientNetwork) || attempt == policy.maxRetries {
			return lastErr
		}

		if err := policy.sleep(ctx, policy.delay(attempt)); err != nil {
			return err
		}
	}

	return lastErr
}
