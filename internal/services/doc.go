// Package services implements the protocol layer for the upstream platform:
// request signing, token exchange, and the resilient API client.
//
// # Request Signing
//
// Every upstream call carries a freshly generated X-Client-Time /
// X-Client-Hash pair (see signer.go) plus the mobile client fingerprint
// headers the platform validates.
//
// # Token Service
//
// [OAuthService] exchanges a long-lived refresh credential for a short-lived
// access credential. A failed exchange is terminal for that credential; the
// refresh token rotates on every use.
//
// # Resilient Client
//
// [PixivClient] is the unit the server talks to the platform through. Every
// call runs through a generic retry wrapper that retries only transient
// network failures (up to 2 extra attempts, exponential backoff 1s..5s).
// Responses are classified into a closed set (success, authentication
// failure, rate-limited, other upstream error) by one function, and the
// remedial action differs per class: refresh-and-retry once, fail fast so the
// caller can back off, or surface the upstream status directly.
//
// Rotated credential pairs propagate to the session store through a
// [TokenRefreshFunc] callback; the client never owns persistence.
//
// # Error Handling
//
// Failures wrap sentinels from the shared package:
//   - [shared.ErrAuthFailed] : upstream rejected the credentials
//   - [shared.ErrRefreshFailed] : the one-shot refresh (or its retry) failed
//   - [shared.ErrRateLimited] : upstream throttling, never retried
//   - [shared.ErrTransientNetwork] : connection/timeout/DNS, retried
//   - [shared.ErrContentUnavailable] : webview extraction miss
//
// plus [UpstreamError] for any other non-2xx response.
package services
