package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"igrelations/pkg/auth"
	errs "igrelations/pkg/errors"
	"igrelations/pkg/models"
	"igrelations/pkg/retry"
)

// Credentials are the account login and password
type Credentials struct {
	Username string
	Password string
}

// API is a Client bound to one authenticated session. It is the session
// capability every remote operation needs.
type API struct {
	client *Client

	mu      sync.RWMutex
	session auth.Session
}

// NewAPI binds c to sess without verifying it
func NewAPI(c *Client, sess *auth.Session) *API {
	return &API{client: c, session: *sess}
}

// Authenticate returns an API for the saved session when it still works,
// otherwise logs in with creds.
func (c *Client) Authenticate(ctx context.Context, creds Credentials, saved *auth.Session) (*API, error) {
	if saved.Valid() {
		api := NewAPI(c, saved)
		me, err := api.CurrentUser(ctx)
		if err == nil {
			api.mu.Lock()
			api.session.UserID = me.PK
			if me.Username != "" {
				api.session.Username = me.Username
			}
			api.mu.Unlock()
			c.logger.InfoWithFields("reusing saved session", map[string]interface{}{
				"username": me.Username,
				"user_id":  me.PK.String(),
			})
			return api, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnWithFields("saved session rejected", map[string]interface{}{
			"username": saved.Username,
			"error":    err.Error(),
		})
	}

	sess, err := c.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return NewAPI(c, sess), nil
}

// Login performs a password login and returns the resulting session
func (c *Client) Login(ctx context.Context, creds Credentials) (*auth.Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "username and password are required to log in")
	}

	deviceID := uuid.NewString()
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM:0:%d:%s", c.now().Unix(), creds.Password))
	form.Set("device_id", deviceID)
	form.Set("guid", deviceID)
	form.Set("login_attempt_count", "0")

	var lr loginResponse
	resp, err := c.call(ctx, nil, http.MethodPost, LoginPath, nil, form, &lr)
	if err != nil {
		return nil, err
	}
	if lr.TwoFactorRequired {
		return nil, errs.New(errs.ErrorTypeAuth, resp.StatusCode, "two-factor authentication is not supported; provide session cookies instead")
	}

	sess := &auth.Session{
		Username:      creds.Username,
		UserID:        lr.LoggedInUser.PK,
		Authorization: resp.Header.Get("ig-set-authorization"),
		DeviceID:      deviceID,
		UserAgent:     c.headers["User-Agent"],
		LastModified:  c.now(),
	}
	absorbCookies(sess, resp.Cookies())
	if lr.LoggedInUser.Username != "" {
		sess.Username = lr.LoggedInUser.Username
	}
	if !sess.Valid() {
		return nil, errs.New(errs.ErrorTypeAuth, resp.StatusCode, "login response carried no session")
	}

	c.logger.InfoWithFields("logged in", map[string]interface{}{
		"username": sess.Username,
		"user_id":  sess.UserID.String(),
	})
	return sess, nil
}

func absorbCookies(sess *auth.Session, cookies []*http.Cookie) {
	for _, ck := range cookies {
		if ck.Value == "" || ck.Value == `""` {
			continue
		}
		switch ck.Name {
		case "sessionid":
			sess.SessionID = ck.Value
		case "csrftoken":
			sess.CSRFToken = ck.Value
		case "ds_user_id":
			sess.DSUserID = ck.Value
			if sess.UserID == 0 {
				if id, err := models.ParseAccountID(ck.Value); err == nil {
					sess.UserID = id
				}
			}
		case "mid":
			sess.MID = ck.Value
		}
	}
}

// Session returns a copy of the current session, including refreshed cookies
func (a *API) Session() *auth.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.session
	return &s
}

// UserID returns the id of the authenticated account
func (a *API) UserID() models.AccountID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.UserID
}

func (a *API) call(ctx context.Context, method, path string, query url.Values, target interface{}) error {
	sess := a.Session()
	resp, err := a.client.call(ctx, sess, method, path, query, nil, target)
	if resp != nil {
		a.mu.Lock()
		for _, ck := range resp.Cookies() {
			if ck.Name == "csrftoken" && ck.Value != "" {
				a.session.CSRFToken = ck.Value
			}
		}
		a.mu.Unlock()
	}
	return err
}

// CurrentUser returns the authenticated account
func (a *API) CurrentUser(ctx context.Context) (*models.AccountSummary, error) {
	var resp currentUserResponse
	if err := a.call(ctx, http.MethodGet, CurrentUserPath, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User.PK == 0 {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "session is not logged in")
	}
	return &resp.User, nil
}

// ResolveUsername looks up the account id of username
func (a *API) ResolveUsername(ctx context.Context, username string) (models.AccountID, error) {
	username = SanitizeUsername(username)
	if !IsValidUsername(username) {
		return 0, errs.New(errs.ErrorTypeConfig, 0, fmt.Sprintf("invalid username %q", username))
	}

	q := url.Values{}
	q.Set("username", username)
	var resp webProfileResponse
	if err := a.call(ctx, http.MethodGet, WebProfilePath, q, &resp); err != nil {
		return 0, err
	}
	if resp.Data.User == nil || resp.Data.User.ID == 0 {
		return 0, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("user %s not found", username))
	}
	return resp.Data.User.ID, nil
}

// ListFollowers returns every account following id
func (a *API) ListFollowers(ctx context.Context, id models.AccountID) (map[models.AccountID]models.AccountSummary, error) {
	return a.listAll(ctx, FollowersPath(id), "followers")
}

// ListFollowing returns every account id follows
func (a *API) ListFollowing(ctx context.Context, id models.AccountID) (map[models.AccountID]models.AccountSummary, error) {
	return a.listAll(ctx, FollowingPath(id), "following")
}

func (a *API) listAll(ctx context.Context, path, kind string) (map[models.AccountID]models.AccountSummary, error) {
	out := make(map[models.AccountID]models.AccountSummary)
	seen := make(map[cursor]bool)
	var next cursor
	pages := 0

	for {
		maxID := next
		page, err := retry.DoWithResult(ctx, a.client.retry, func(ctx context.Context) (*friendshipsResponse, error) {
			var resp friendshipsResponse
			if err := a.call(ctx, http.MethodGet, path, pageQuery(string(maxID)), &resp); err != nil {
				return nil, err
			}
			return &resp, nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s page %d: %w", kind, pages+1, err)
		}
		pages++

		for _, u := range page.Users {
			if u.PK != 0 {
				out[u.PK] = u
			}
		}

		a.client.logger.DebugWithFields("fetched listing page", map[string]interface{}{
			"kind":  kind,
			"page":  pages,
			"users": len(page.Users),
			"total": len(out),
		})

		next = cursor(strings.TrimSpace(string(page.NextMaxID)))
		if next == "" || seen[next] {
			break
		}
		seen[next] = true
	}

	a.client.logger.InfoWithFields("listing complete", map[string]interface{}{
		"kind":  kind,
		"pages": pages,
		"total": len(out),
	})
	return out, nil
}

// FetchProfile fetches the full profile of id. It is never retried.
func (a *API) FetchProfile(ctx context.Context, id models.AccountID) (*models.RawProfile, error) {
	var resp userInfoResponse
	if err := a.call(ctx, http.MethodGet, UserInfoPath(id), nil, &resp); err != nil {
		return nil, err
	}

	u := resp.User
	if u.PK == 0 {
		u.PK = id
	}
	p := &models.RawProfile{
		PK:             u.PK,
		Username:       u.Username,
		FullName:       u.FullName,
		IsPrivate:      u.IsPrivate,
		MediaCount:     u.MediaCount,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		Biography:      u.Biography,
	}
	if u.HDProfilePicURLInfo != nil && u.HDProfilePicURLInfo.URL != "" {
		if pic, err := url.Parse(u.HDProfilePicURLInfo.URL); err == nil && pic.Scheme != "" {
			p.ProfilePicURLHD = pic
		}
	}
	return p, nil
}
