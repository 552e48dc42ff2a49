// Package retry provides backoff strategies and retry logic for transient
// failures of remote calls.
//
// Retries are reserved for idempotent listing and connectivity calls. The
// per-profile enrichment loop never retries; it only uses the backoff
// strategies here to stretch its pause after consecutive failures.
//
// Basic usage:
//
//	cfg := retry.DefaultConfig(3, time.Second)
//	page, err := retry.DoWithResult(ctx, cfg, func(ctx context.Context) (*Page, error) {
//		return api.followersPage(ctx, id, cursor)
//	})
//
// Delays depend on the error type. Rate limit errors carrying a Retry-After
// value never wait less than the server asked for.
package retry
