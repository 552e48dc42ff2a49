package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"igrelations/pkg/auth"
	errs "igrelations/pkg/errors"
	"igrelations/pkg/logger"
	"igrelations/pkg/ratelimit"
	"igrelations/pkg/retry"
)

// Client sends requests to the private API. It holds no session; an API
// value binds a Client to one authenticated session.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter sets the limiter waited on before every request
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetry sets the retry policy for listing pages
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.headers["User-Agent"] = ua
		}
	}
}

// NewClient creates a new client
func NewClient(timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent":           "Instagram 219.0.0.12.117 Android (31/12; 420dpi; 1080x2400; samsung; SM-G991B; o1s; exynos2100; en_US; 346138365)",
			"Accept":               "*/*",
			"Accept-Language":      "en-US",
			"X-IG-App-ID":          AppID,
			"X-IG-Capabilities":    "3brTvw==",
			"X-IG-Connection-Type": "WIFI",
		},
		baseURL: DefaultBaseURL,
		limiter: ratelimit.Unlimited{},
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = retry.DefaultConfig(3, time.Second)
		c.retry.Logger = log
	}
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// do sends one request after waiting on the limiter
func (c *Client) do(ctx context.Context, sess *auth.Session, method, path string, query, form url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	if sess != nil {
		applySession(req, sess)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":      method,
			"path":        path,
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "network error")
	}

	logger.LogRequest(c.logger, method, path, resp.StatusCode, time.Since(start))
	return resp, nil
}

func applySession(req *http.Request, sess *auth.Session) {
	if sess.Authorization != "" {
		req.Header.Set("Authorization", sess.Authorization)
	}
	if sess.CSRFToken != "" {
		req.Header.Set("X-CSRFToken", sess.CSRFToken)
	}
	if sess.UserAgent != "" {
		req.Header.Set("User-Agent", sess.UserAgent)
	}
	for name, value := range map[string]string{
		"sessionid":  sess.SessionID,
		"csrftoken":  sess.CSRFToken,
		"ds_user_id": sess.DSUserID,
		"mid":        sess.MID,
	} {
		if value != "" {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}
}

// call sends a request and decodes a successful JSON body into target
func (c *Client) call(ctx context.Context, sess *auth.Session, method, path string, query, form url.Values, target interface{}) (*http.Response, error) {
	resp, err := c.do(ctx, sess, method, path, query, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if err := c.checkResponseStatus(resp, path, body); err != nil {
		return resp, err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return resp, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "failed to parse JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	var status apiStatus
	if json.Unmarshal(body, &status) == nil && status.Status == "fail" {
		return resp, statusError(resp.StatusCode, status)
	}
	return resp, nil
}

// checkResponseStatus maps an HTTP status and error body onto a typed error
func (c *Client) checkResponseStatus(resp *http.Response, path string, body []byte) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var status apiStatus
	_ = json.Unmarshal(body, &status)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e := errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
		e.RetryAfter = errs.ParseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		logger.LogRateLimit(c.logger, path, e.RetryAfter)
		return e
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, messageOr(status, "authentication required"))
	case resp.StatusCode == http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, messageOr(status, "resource not found"))
	case resp.StatusCode >= 500:
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, messageOr(status, "server error"))
	default:
		return statusError(resp.StatusCode, status)
	}
}

// statusError classifies a "fail" body
func statusError(code int, status apiStatus) error {
	msg := messageOr(status, fmt.Sprintf("unexpected status code: %d", code))
	lower := strings.ToLower(status.Message + " " + status.ErrorType)

	switch {
	case status.RequireLogin,
		strings.Contains(lower, "login_required"),
		strings.Contains(lower, "challenge_required"),
		strings.Contains(lower, "checkpoint"),
		strings.Contains(lower, "bad_password"),
		strings.Contains(lower, "two_factor"),
		strings.Contains(lower, "invalid_user"),
		strings.Contains(lower, "password"):
		return errs.New(errs.ErrorTypeAuth, code, msg)
	case status.Spam, strings.Contains(lower, "please wait"), strings.Contains(lower, "rate_limit"):
		return errs.New(errs.ErrorTypeRateLimit, code, msg)
	case strings.Contains(lower, "user not found"), strings.Contains(lower, "not found"):
		return errs.New(errs.ErrorTypeNotFound, code, msg)
	default:
		return errs.New(errs.ErrorTypeUnknown, code, msg)
	}
}

func messageOr(status apiStatus, fallback string) string {
	if status.Message != "" {
		return status.Message
	}
	if status.ErrorType != "" {
		return status.ErrorType
	}
	return fallback
}
