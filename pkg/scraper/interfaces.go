package scraper

import (
	"context"
	"time"

	"igrelations/pkg/enrich"
	"igrelations/pkg/models"
)

// Remote defines the profile service operations a run needs.
// *instagram.API satisfies it.
type Remote interface {
	UserID() models.AccountID
	ListFollowers(ctx context.Context, id models.AccountID) (map[models.AccountID]models.AccountSummary, error)
	ListFollowing(ctx context.Context, id models.AccountID) (map[models.AccountID]models.AccountSummary, error)
	ResolveUsername(ctx context.Context, username string) (models.AccountID, error)
	FetchProfile(ctx context.Context, id models.AccountID) (*models.RawProfile, error)
}

// Pacer paces enrichment and can estimate how long a run takes
type Pacer interface {
	enrich.Pacer
	Estimate(n int) time.Duration
}
