package instagram

import (
	"bytes"
	"encoding/json"

	"igrelations/pkg/models"
)

// apiStatus is the envelope every private API response carries
type apiStatus struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ErrorType    string `json:"error_type"`
	RequireLogin bool   `json:"require_login"`
	Spam         bool   `json:"spam"`
}

type loginResponse struct {
	apiStatus
	LoggedInUser      models.AccountSummary `json:"logged_in_user"`
	TwoFactorRequired bool                  `json:"two_factor_required"`
}

type currentUserResponse struct {
	apiStatus
	User models.AccountSummary `json:"user"`
}

type webProfileResponse struct {
	apiStatus
	Data struct {
		User *struct {
			ID       models.AccountID `json:"id"`
			Username string           `json:"username"`
		} `json:"user"`
	} `json:"data"`
}

type friendshipsResponse struct {
	apiStatus
	Users     []models.AccountSummary `json:"users"`
	NextMaxID cursor                  `json:"next_max_id"`
	BigList   bool                    `json:"big_list"`
}

type userInfoResponse struct {
	apiStatus
	User userInfo `json:"user"`
}

type userInfo struct {
	PK                  models.AccountID `json:"pk"`
	Username            string           `json:"username"`
	FullName            string           `json:"full_name"`
	IsPrivate           bool             `json:"is_private"`
	MediaCount          int              `json:"media_count"`
	FollowerCount       int              `json:"follower_count"`
	FollowingCount      int              `json:"following_count"`
	Biography           string           `json:"biography"`
	HDProfilePicURLInfo *picture         `json:"hd_profile_pic_url_info"`
}

type picture struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// cursor is a pagination token sent as either a string or a number
type cursor string

func (c *cursor) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = cursor(s)
		return nil
	}
	*c = cursor(bytes.TrimSpace(data))
	return nil
}
