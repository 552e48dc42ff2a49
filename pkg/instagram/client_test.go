package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igrelations/pkg/auth"
	errs "igrelations/pkg/errors"
	"igrelations/pkg/logger"
	"igrelations/pkg/models"
	"igrelations/pkg/retry"
)

type countingLimiter struct{ calls int32 }

func (l *countingLimiter) Wait(ctx context.Context) error {
	atomic.AddInt32(&l.calls, 1)
	return ctx.Err()
}

func noDelayRetry(attempts int) *retry.Config {
	cfg := retry.DefaultConfig(attempts, 0)
	cfg.Delay = func(error, int) time.Duration { return 0 }
	cfg.Logger = logger.NewNopLogger()
	return cfg
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	opts = append([]Option{WithBaseURL(server.URL), WithRetry(noDelayRetry(3))}, opts...)
	return NewClient(5*time.Second, log, opts...), log
}

func testSession() *auth.Session {
	return &auth.Session{
		Username:  "owner",
		UserID:    42,
		SessionID: "42%3Asession%3A1",
		CSRFToken: "csrf-token",
	}
}

func TestCheckResponseStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   errs.ErrorType
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, errs.ErrorTypeRateLimit},
		{"unauthorized", http.StatusUnauthorized, `{"message":"login_required"}`, errs.ErrorTypeAuth},
		{"forbidden", http.StatusForbidden, `{}`, errs.ErrorTypeAuth},
		{"not found", http.StatusNotFound, `{}`, errs.ErrorTypeNotFound},
		{"server error", http.StatusBadGateway, `{}`, errs.ErrorTypeServerError},
		{"checkpoint", http.StatusBadRequest, `{"status":"fail","message":"checkpoint_required"}`, errs.ErrorTypeAuth},
		{"spam", http.StatusBadRequest, `{"status":"fail","spam":true,"message":"feedback_required"}`, errs.ErrorTypeRateLimit},
		{"please wait", http.StatusBadRequest, `{"status":"fail","message":"Please wait a few minutes before you try again."}`, errs.ErrorTypeRateLimit},
		{"unknown", http.StatusBadRequest, `{"status":"fail","message":"something odd"}`, errs.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}), WithRetry(noDelayRetry(1)))

			_, err := NewAPI(client, testSession()).CurrentUser(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.TypeOf(err))
		})
	}
}

func TestRateLimitRetryAfter(t *testing.T) {
	client, log := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "90")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := NewAPI(client, testSession()).FetchProfile(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, 90*time.Second, errs.RetryAfterOf(err))
	assert.True(t, log.HasMessage("Rate limit reached, backing off"))
}

func TestFailBodyWithOKStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"fail","message":"login_required","require_login":true}`)
	}))

	_, err := NewAPI(client, testSession()).FetchProfile(context.Background(), 7)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

func TestInvalidJSON(t *testing.T) {
	client, log := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not json</html>`)
	}))

	_, err := NewAPI(client, testSession()).FetchProfile(context.Background(), 7)
	assert.Equal(t, errs.ErrorTypeParsing, errs.TypeOf(err))
	assert.True(t, log.HasMessage("failed to parse JSON response"))
}

func TestSessionIsApplied(t *testing.T) {
	var gotCookie, gotCSRF, gotAppID string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err == nil {
			gotCookie = c.Value
		}
		gotCSRF = r.Header.Get("X-CSRFToken")
		gotAppID = r.Header.Get("X-IG-App-ID")
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "rotated"})
		fmt.Fprint(w, `{"status":"ok","user":{"pk":42,"username":"owner"}}`)
	}))

	api := NewAPI(client, testSession())
	me, err := api.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AccountID(42), me.PK)
	assert.Equal(t, "42%3Asession%3A1", gotCookie)
	assert.Equal(t, "csrf-token", gotCSRF)
	assert.Equal(t, AppID, gotAppID)
	assert.Equal(t, "rotated", api.Session().CSRFToken)
}

func TestListFollowersPaginates(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "/api/v1/friendships/42/followers/", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("count"))

		switch r.URL.Query().Get("max_id") {
		case "":
			fmt.Fprint(w, `{"status":"ok","users":[{"pk":1,"username":"a"},{"pk":"2","username":"b"}],"next_max_id":"cursor-1"}`)
		case "cursor-1":
			fmt.Fprint(w, `{"status":"ok","users":[{"pk":3,"username":"c"},{"pk":1,"username":"a"}],"next_max_id":400}`)
		case "400":
			fmt.Fprint(w, `{"status":"ok","users":[{"pk":4,"username":"d"}],"next_max_id":null}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("max_id"))
		}
	}))

	got, err := NewAPI(client, testSession()).ListFollowers(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, "b", got[2].Username)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestListStopsOnRepeatedCursor(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, `{"status":"ok","users":[{"pk":5}],"next_max_id":"same"}`)
	}))

	got, err := NewAPI(client, testSession()).ListFollowing(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestListRetriesServerErrors(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"ok","users":[{"pk":9,"username":"z"}]}`)
	}))

	got, err := NewAPI(client, testSession()).ListFollowing(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestListDoesNotRetryAuth(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := NewAPI(client, testSession()).ListFollowers(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
	assert.Contains(t, err.Error(), "followers page 1")
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestFetchProfile(t *testing.T) {
	limiter := &countingLimiter{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/7/info/":
			fmt.Fprint(w, `{"status":"ok","user":{"pk":"7","username":"seven","full_name":"","is_private":true,
				"media_count":12,"follower_count":340,"following_count":56,"biography":"hi",
				"hd_profile_pic_url_info":{"url":"https://cdn.example.com/p.jpg","width":1080,"height":1080}}}`)
		case "/api/v1/users/8/info/":
			fmt.Fprint(w, `{"status":"ok","user":{"pk":8,"username":"eight"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}), WithLimiter(limiter))
	api := NewAPI(client, testSession())

	p, err := api.FetchProfile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.AccountID(7), p.PK)
	assert.Equal(t, "seven", p.Username)
	assert.Equal(t, "", p.FullName)
	assert.True(t, p.IsPrivate)
	assert.Equal(t, 12, p.MediaCount)
	assert.Equal(t, 340, p.FollowerCount)
	assert.Equal(t, 56, p.FollowingCount)
	require.NotNil(t, p.ProfilePicURLHD)
	assert.Equal(t, "https://cdn.example.com/p.jpg", p.ProfilePicURLHD.String())

	p, err = api.FetchProfile(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, p.ProfilePicURLHD)

	_, err = api.FetchProfile(context.Background(), 9)
	assert.Equal(t, errs.ErrorTypeNotFound, errs.TypeOf(err))

	assert.Equal(t, int32(3), atomic.LoadInt32(&limiter.calls))
}

func TestResolveUsername(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("username") {
		case "someone":
			fmt.Fprint(w, `{"status":"ok","data":{"user":{"id":"1234","username":"someone"}}}`)
		default:
			fmt.Fprint(w, `{"status":"ok","data":{"user":null}}`)
		}
	}))
	api := NewAPI(client, testSession())

	id, err := api.ResolveUsername(context.Background(), "@someone")
	require.NoError(t, err)
	assert.Equal(t, models.AccountID(1234), id)

	_, err = api.ResolveUsername(context.Background(), "nobody")
	assert.Equal(t, errs.ErrorTypeNotFound, errs.TypeOf(err))

	_, err = api.ResolveUsername(context.Background(), "bad name!")
	assert.Equal(t, errs.ErrorTypeConfig, errs.TypeOf(err))
}

func TestLogin(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, LoginPath, r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "owner", r.PostForm.Get("username"))
		assert.Contains(t, r.PostForm.Get("enc_password"), "#PWD_INSTAGRAM:0:")
		assert.NotEmpty(t, r.PostForm.Get("device_id"))

		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "new-session"})
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "new-csrf"})
		http.SetCookie(w, &http.Cookie{Name: "ds_user_id", Value: "42"})
		w.Header().Set("ig-set-authorization", "Bearer IGT:2:token")
		fmt.Fprint(w, `{"status":"ok","logged_in_user":{"pk":42,"username":"owner"}}`)
	}))

	sess, err := client.Login(context.Background(), Credentials{Username: "owner", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "new-session", sess.SessionID)
	assert.Equal(t, "new-csrf", sess.CSRFToken)
	assert.Equal(t, "42", sess.DSUserID)
	assert.Equal(t, models.AccountID(42), sess.UserID)
	assert.Equal(t, "Bearer IGT:2:token", sess.Authorization)
	assert.NotEmpty(t, sess.DeviceID)

	_, err = client.Login(context.Background(), Credentials{Username: "owner"})
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

func TestLoginTwoFactor(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status":"fail","message":"","two_factor_required":true,"error_type":"two_factor_required"}`)
	}))

	_, err := client.Login(context.Background(), Credentials{Username: "owner", Password: "secret"})
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

func TestAuthenticateReusesSavedSession(t *testing.T) {
	var logins int32
	client, log := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CurrentUserPath:
			fmt.Fprint(w, `{"status":"ok","user":{"pk":42,"username":"owner"}}`)
		case LoginPath:
			atomic.AddInt32(&logins, 1)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	saved := testSession()
	saved.UserID = 0
	api, err := client.Authenticate(context.Background(), Credentials{}, saved)
	require.NoError(t, err)
	assert.Equal(t, models.AccountID(42), api.UserID())
	assert.Equal(t, int32(0), atomic.LoadInt32(&logins))
	assert.True(t, log.HasMessage("reusing saved session"))
}

func TestAuthenticateFallsBackToLogin(t *testing.T) {
	client, log := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CurrentUserPath:
			w.WriteHeader(http.StatusUnauthorized)
		case LoginPath:
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "fresh"})
			fmt.Fprint(w, `{"status":"ok","logged_in_user":{"pk":42,"username":"owner"}}`)
		}
	}))

	api, err := client.Authenticate(context.Background(), Credentials{Username: "owner", Password: "pw"}, testSession())
	require.NoError(t, err)
	assert.Equal(t, "fresh", api.Session().SessionID)
	assert.True(t, log.HasMessage("saved session rejected"))

	_, err = client.Authenticate(context.Background(), Credentials{}, nil)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

func TestCancelledContext(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAPI(client, testSession()).FetchProfile(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUsernameHelpers(t *testing.T) {
	assert.Equal(t, "someone", SanitizeUsername(" https://www.instagram.com/someone/ "))
	assert.Equal(t, "someone", SanitizeUsername("@someone"))
	assert.True(t, IsValidUsername("some.one_1"))
	assert.False(t, IsValidUsername("some-one"))
	assert.False(t, IsValidUsername(""))
	assert.Equal(t, "https://www.instagram.com/x/", ProfileURL("x"))
	assert.Equal(t, "", ProfileURL(""))
}
