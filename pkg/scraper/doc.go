// Package scraper runs the follower relationship ETL end to end.
//
// A run lists the followers and the following of one account, derives the
// mutual, not following back and not followed back sets, enriches the
// selected set one profile at a time and exports the records to every
// configured sink.
//
// Architecture:
//
// The Scraper ties together:
//   - a Remote, normally the *instagram.API returned by Connect
//   - a Pacer that sleeps between profile fetches
//   - the enrich pipeline and its terminal progress lines
//   - the export fan-out to files, the database and the object store
//   - run metrics and desktop notifications
//
// Usage:
//
//	client := scraper.NewClient(cfg.Instagram, log)
//	api, err := scraper.Connect(ctx, client, cfg.Instagram, sessions, log)
//	if err != nil {
//	    return err
//	}
//
//	s, err := scraper.New(cfg, api)
//	if err != nil {
//	    return err
//	}
//	outcome, err := s.Collect(ctx, scraper.CollectOptions{
//	    Category:     relations.Mutual,
//	    IncludeOwner: true,
//	})
//
// Failure handling:
//
// Setup and listing failures abort the run before any profile is fetched.
// A failed profile fetch is logged and skipped. An interrupted enrichment
// exports nothing. Each sink succeeds or fails on its own; Collect returns
// an error after every sink was attempted when any of them failed.
package scraper
