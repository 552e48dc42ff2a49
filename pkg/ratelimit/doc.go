// Package ratelimit paces requests to the remote profile service.
//
// Two layers apply. A token bucket from golang.org/x/time/rate guards every
// HTTP request the client sends. On top of it, AdaptivePacer inserts a
// randomized pause between consecutive profile fetches: a short range after a
// success, a longer one after a failure. Consecutive failures can stretch the
// failure pause geometrically, and a Retry-After value on a rate limit error
// sets a floor.
//
// Usage:
//
//	pacer := ratelimit.NewAdaptivePacer(ratelimit.DefaultPacerConfig(),
//		ratelimit.WithLimiter(ratelimit.NewRequestLimiter(30, 1)),
//	)
//	if err := pacer.Acquire(ctx); err != nil {
//		return err
//	}
//	_, fetchErr := api.FetchProfile(ctx, id)
//	if _, err := pacer.Pause(ctx, fetchErr); err != nil {
//		return err
//	}
package ratelimit
