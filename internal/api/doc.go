// Package api is the rate-limited, retrying dispatcher for remote
// health-data requests.
//
// # Request Pipeline
//
// Every request acquires a token from a token bucket (burst of immediate
// calls, fixed refill rate; an empty bucket suspends the caller for the
// exact remaining wait), ensures the auth manager holds a live session,
// then issues the call under a hard timeout and classifies the outcome:
//
//   - 401: one auth recovery via HandleAuthError, then a single retry of
//     the same request with refreshed headers. A second 401 is final.
//   - 429: the Retry-After header is honored (default 60s), up to the
//     retry budget.
//   - 408/5xx, network failures, timeouts: exponential backoff
//     min(initial·2^attempt, max), bounded by the retry budget.
//   - Any other non-2xx: immediate failure carrying the status and a body
//     excerpt.
//
// The retry loop is an explicit bounded loop; it never recurses, so stack
// depth and cancellation behavior are predictable.
//
// # Results
//
// All outcomes, including expected failures, come back as a Result value;
// Request never returns a Go error for auth expiry, rate limiting, or
// network trouble. Callers branch on Result.Success and the typed error
// in Result.Err.
package api
