package relations

import (
	"fmt"
	"sort"
	"strings"

	"igrelations/pkg/models"
)

// IDSet is an unordered set of account identifiers
type IDSet map[models.AccountID]struct{}

// NewIDSet creates a set holding ids
func NewIDSet(ids ...models.AccountID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// FromSummaries builds a set from the keys of a listing
func FromSummaries(m map[models.AccountID]models.AccountSummary) IDSet {
	s := make(IDSet, len(m))
	for id := range m {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id models.AccountID) {
	s[id] = struct{}{}
}

func (s IDSet) Contains(id models.AccountID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}

// With returns a copy of s that also holds id
func (s IDSet) With(id models.AccountID) IDSet {
	out := make(IDSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}

// Sorted returns the members in ascending order
func (s IDSet) Sorted() []models.AccountID {
	out := make([]models.AccountID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Intersect returns a ∩ b
func Intersect(a, b IDSet) IDSet {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	out := make(IDSet)
	for id := range small {
		if large.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Difference returns a \ b
func Difference(a, b IDSet) IDSet {
	out := make(IDSet)
	for id := range a {
		if !b.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Union returns a ∪ b
func Union(a, b IDSet) IDSet {
	out := make(IDSet, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}

// Category selects which relationship set gets enriched
type Category int

const (
	Mutual Category = iota + 1
	NotFollowingBack
	NotFollowedBack
)

// Categories lists every category in prompt order
var Categories = []Category{Mutual, NotFollowingBack, NotFollowedBack}

func (c Category) String() string {
	switch c {
	case Mutual:
		return "mutual"
	case NotFollowingBack:
		return "not-following-back"
	case NotFollowedBack:
		return "not-followed-back"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Label is the human readable name used in prompts and progress output
func (c Category) Label() string {
	switch c {
	case Mutual:
		return "mutual"
	case NotFollowingBack:
		return "not following back"
	case NotFollowedBack:
		return "not followed back"
	default:
		return c.String()
	}
}

// Slug is the file name fragment for exports
func (c Category) Slug() string {
	switch c {
	case Mutual:
		return "mutuals"
	case NotFollowingBack:
		return "not_following_back"
	case NotFollowedBack:
		return "not_followed_back"
	default:
		return "accounts"
	}
}

// SheetTitle is the spreadsheet tab name for exports
func (c Category) SheetTitle() string {
	switch c {
	case Mutual:
		return "Mutual Followers"
	case NotFollowingBack:
		return "Not Following Back"
	case NotFollowedBack:
		return "Not Followed Back"
	default:
		return "Accounts"
	}
}

// ParseCategory accepts the prompt digit or the category name
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "mutual", "mutuals":
		return Mutual, nil
	case "2", "not-following-back", "not_following_back":
		return NotFollowingBack, nil
	case "3", "not-followed-back", "not_followed_back":
		return NotFollowedBack, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}

// Breakdown holds both listings and every derived category
type Breakdown struct {
	Followers        IDSet
	Following        IDSet
	Mutual           IDSet
	NotFollowingBack IDSet
	NotFollowedBack  IDSet
}

// Compute derives the categories from the follower and following sets.
// NotFollowingBack holds followers the owner does not follow; NotFollowedBack
// holds accounts the owner follows that do not follow back.
func Compute(followers, following IDSet) Breakdown {
	if followers == nil {
		followers = IDSet{}
	}
	if following == nil {
		following = IDSet{}
	}
	return Breakdown{
		Followers:        followers,
		Following:        following,
		Mutual:           Intersect(followers, following),
		NotFollowingBack: Difference(followers, following),
		NotFollowedBack:  Difference(following, followers),
	}
}

// Select returns the set for c
func (b Breakdown) Select(c Category) (IDSet, error) {
	switch c {
	case Mutual:
		return b.Mutual, nil
	case NotFollowingBack:
		return b.NotFollowingBack, nil
	case NotFollowedBack:
		return b.NotFollowedBack, nil
	default:
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
}
