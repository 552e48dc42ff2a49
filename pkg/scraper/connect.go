package scraper

import (
	"context"
	"fmt"

	"igrelations/pkg/auth"
	"igrelations/pkg/config"
	errs "igrelations/pkg/errors"
	"igrelations/pkg/instagram"
	"igrelations/pkg/logger"
	"igrelations/pkg/ratelimit"
	"igrelations/pkg/retry"
)

// NewClient builds the remote client described by cfg
func NewClient(cfg config.InstagramConfig, log logger.Logger, opts ...instagram.Option) *instagram.Client {
	retryCfg := retry.DefaultConfig(cfg.MaxRetries, cfg.RetryDelay)
	retryCfg.Logger = log

	base := []instagram.Option{
		instagram.WithRetry(retryCfg),
		instagram.WithLimiter(ratelimit.NewRequestLimiter(cfg.RequestsPerMinute, cfg.BurstSize)),
	}
	if cfg.BaseURL != "" {
		base = append(base, instagram.WithBaseURL(cfg.BaseURL))
	}
	if cfg.UserAgent != "" {
		base = append(base, instagram.WithUserAgent(cfg.UserAgent))
	}
	return instagram.NewClient(cfg.Timeout, log, append(base, opts...)...)
}

// Connect authenticates against the remote service, reusing the session
// saved for the configured username when it is still accepted. The
// resulting session is saved again.
func Connect(ctx context.Context, client *instagram.Client, cfg config.InstagramConfig, sessions *auth.Manager, log logger.Logger) (*instagram.API, error) {
	if cfg.Username == "" {
		return nil, errs.New(errs.ErrorTypeConfig, 0, "no account username configured (set ACCOUNT_USERNAME)")
	}

	var saved *auth.Session
	if sessions != nil {
		s, err := sessions.Retrieve(cfg.Username)
		if err != nil {
			log.WithField("username", cfg.Username).Debug("no saved session")
		} else {
			saved = s
		}
	}

	if !saved.Valid() && cfg.Password == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "no saved session and no password (set ACCOUNT_PASSWORD or run 'igrelations auth login')")
	}

	api, err := client.Authenticate(ctx, instagram.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
	}, saved)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	if sessions != nil {
		if err := sessions.Store(api.Session()); err != nil {
			log.WithError(err).Warn("failed to save session")
		}
	}
	return api, nil
}
