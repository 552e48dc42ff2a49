package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// AccountID identifies a remote account. The remote service sends it either
// as a JSON number or as a quoted string.
type AccountID int64

func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id *AccountID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id %q: %w", data, err)
	}
	*id = AccountID(v)
	return nil
}

// ParseAccountID parses a decimal account id
func ParseAccountID(s string) (AccountID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid account id %q: must be positive", s)
	}
	return AccountID(v), nil
}

type AccountSummary struct {
	PK        AccountID `json:"pk"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IsPrivate bool      `json:"is_private"`
}

type RawProfile struct {
	PK              AccountID
	Username        string
	FullName        string
	ProfilePicURLHD *url.URL
	IsPrivate       bool
	MediaCount      int
	FollowerCount   int
	FollowingCount  int
	Biography       string
}

// EnrichedRecord is one exported row. Nil text fields mean the value is absent.
type EnrichedRecord struct {
	ID              int       `json:"id"`
	PK              AccountID `json:"pk"`
	Username        *string   `json:"username"`
	FullName        *string   `json:"full_name"`
	ProfilePicURLHD *string   `json:"profile_pic_url_hd"`
	IsPrivate       bool      `json:"is_private"`
	MediaCount      int       `json:"media_count"`
	FollowerCount   int       `json:"follower_count"`
	FollowingCount  int       `json:"following_count"`
	Biography       *string   `json:"biography"`
}

// Columns is the declared column order shared by every tabular sink
var Columns = []string{
	"id",
	"pk",
	"username",
	"full_name",
	"profile_pic_url_hd",
	"is_private",
	"media_count",
	"follower_count",
	"following_count",
	"biography",
}

// Values returns the record's cells in Columns order, nil for absent values
func (r EnrichedRecord) Values() []interface{} {
	return []interface{}{
		r.ID,
		int64(r.PK),
		deref(r.Username),
		deref(r.FullName),
		deref(r.ProfilePicURLHD),
		r.IsPrivate,
		r.MediaCount,
		r.FollowerCount,
		r.FollowingCount,
		deref(r.Biography),
	}
}

// Strings returns the record's cells in Columns order as text, absent values as ""
func (r EnrichedRecord) Strings() []string {
	return []string{
		strconv.Itoa(r.ID),
		r.PK.String(),
		text(r.Username),
		text(r.FullName),
		text(r.ProfilePicURLHD),
		strconv.FormatBool(r.IsPrivate),
		strconv.Itoa(r.MediaCount),
		strconv.Itoa(r.FollowerCount),
		strconv.Itoa(r.FollowingCount),
		text(r.Biography),
	}
}

// DisplayName returns the username or, when absent, the account id
func (r EnrichedRecord) DisplayName() string {
	if r.Username != nil {
		return *r.Username
	}
	return r.PK.String()
}

func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MarshalRecords encodes records as an indented JSON array, never "null"
func MarshalRecords(records []EnrichedRecord) ([]byte, error) {
	if records == nil {
		records = []EnrichedRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
