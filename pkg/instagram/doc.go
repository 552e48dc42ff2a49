// Package instagram talks to Instagram's private mobile API.
//
// A Client carries transport settings: headers, the request limiter and the
// retry policy for listing pages. It holds no session. Authenticate (or
// NewAPI) binds it to one session and returns an API, which every remote
// operation needs:
//
//	client := instagram.NewClient(30*time.Second, log,
//	    instagram.WithLimiter(ratelimit.NewRequestLimiter(30, 1)))
//
//	api, err := client.Authenticate(ctx, instagram.Credentials{
//	    Username: user,
//	    Password: pass,
//	}, saved)
//	if err != nil {
//	    return err
//	}
//
//	followers, err := api.ListFollowers(ctx, api.UserID())
//
// Listing pages are retried on transient errors. FetchProfile is not; the
// caller decides what a failed profile means.
//
// Every failure is an *errors.Error from igrelations/pkg/errors whose Type
// tells rate limits, auth problems and missing accounts apart.
package instagram
