package instagram

import (
	"fmt"
	"net/url"
	"strings"

	"igrelations/pkg/models"
)

const (
	// DefaultBaseURL is the private API host used by the mobile app
	DefaultBaseURL = "https://i.instagram.com"

	// AppID is sent as X-IG-App-ID; web_profile_info refuses requests without it
	AppID = "936619743392459"

	LoginPath       = "/api/v1/accounts/login/"
	CurrentUserPath = "/api/v1/accounts/current_user/"
	WebProfilePath  = "/api/v1/users/web_profile_info/"

	// PageSize is the listing page size requested from friendships endpoints
	PageSize = 200
)

// FollowersPath returns the followers listing path of id
func FollowersPath(id models.AccountID) string {
	return fmt.Sprintf("/api/v1/friendships/%s/followers/", id)
}

// FollowingPath returns the following listing path of id
func FollowingPath(id models.AccountID) string {
	return fmt.Sprintf("/api/v1/friendships/%s/following/", id)
}

// UserInfoPath returns the profile info path of id
func UserInfoPath(id models.AccountID) string {
	return fmt.Sprintf("/api/v1/users/%s/info/", id)
}

// pageQuery builds the query of one listing page
func pageQuery(maxID string) url.Values {
	q := url.Values{}
	q.Set("count", fmt.Sprint(PageSize))
	if maxID != "" {
		q.Set("max_id", maxID)
	}
	return q
}

// ProfileURL returns the public profile URL of username
func ProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("https://www.instagram.com/%s/", username)
}

// IsValidUsername checks the characters and length Instagram allows
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips a leading @, a profile URL prefix and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	for _, prefix := range []string{"https://www.instagram.com/", "https://instagram.com/", "www.instagram.com/", "instagram.com/"} {
		username = strings.TrimPrefix(username, prefix)
	}
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
