// Package normalize maps raw profile data into exported records.
//
// Empty strings become nil so that blank upstream data and absent values are
// never conflated. URLs are checked for absence before they are stringified.
package normalize

import (
	"net/url"

	"igrelations/pkg/models"
)

// Text returns nil for the empty string and a fresh pointer otherwise
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// URL stringifies u, or returns nil when u is absent or renders empty
func URL(u *url.URL) *string {
	if u == nil {
		return nil
	}
	return Text(u.String())
}

// Profile builds the record for a fetched profile with sequence id seq
func Profile(raw models.RawProfile, seq int) models.EnrichedRecord {
	return models.EnrichedRecord{
		ID:              seq,
		PK:              raw.PK,
		Username:        Text(raw.Username),
		FullName:        Text(raw.FullName),
		ProfilePicURLHD: URL(raw.ProfilePicURLHD),
		IsPrivate:       raw.IsPrivate,
		MediaCount:      raw.MediaCount,
		FollowerCount:   raw.FollowerCount,
		FollowingCount:  raw.FollowingCount,
		Biography:       Text(raw.Biography),
	}
}

// Record re-applies the absence rules to an existing record
func Record(r models.EnrichedRecord) models.EnrichedRecord {
	out := r
	out.Username = reapply(r.Username)
	out.FullName = reapply(r.FullName)
	out.ProfilePicURLHD = reapply(r.ProfilePicURLHD)
	out.Biography = reapply(r.Biography)
	return out
}

func reapply(s *string) *string {
	if s == nil {
		return nil
	}
	return Text(*s)
}
