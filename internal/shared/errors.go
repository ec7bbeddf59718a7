package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed      = fmt.Errorf("authentication failed")
	ErrRefreshFailed   = fmt.Errorf("token refresh failed")
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrSessionExpired  = fmt.Errorf("session expired")

	// Upstream API errors
	ErrTransientNetwork   = fmt.Errorf("transient network failure")
	ErrRateLimited        = fmt.Errorf("rate limited by upstream")
	ErrUpstreamRequest    = fmt.Errorf("upstream request failed")
	ErrContentUnavailable = fmt.Errorf("novel content not available")

	// Persistence errors
	ErrPositionNotFound = fmt.Errorf("reading position not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
