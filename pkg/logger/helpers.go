package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed HTTP request at a level matching its status
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit logs a rate limited response
func LogRateLimit(l Logger, endpoint string, retryAfter time.Duration) {
	l.WarnWithFields("Rate limit reached, backing off", map[string]interface{}{
		"endpoint":       endpoint,
		"retry_after_ms": retryAfter.Milliseconds(),
		"action":         "rate_limited",
	})
}

// LogFetch logs the outcome of one profile fetch
func LogFetch(l Logger, pk fmt.Stringer, username string, err error, took time.Duration) {
	fields := map[string]interface{}{
		"pk":          pk.String(),
		"duration_ms": took.Milliseconds(),
	}
	if err != nil {
		l.WithError(err).WarnWithFields("profile fetch failed", fields)
		return
	}
	fields["username"] = username
	l.DebugWithFields("profile fetched", fields)
}

// LogSinkResult logs the outcome of one export sink
func LogSinkResult(l Logger, sink, location string, records int, skipped bool, err error) {
	fields := map[string]interface{}{
		"sink":     sink,
		"location": location,
		"records":  records,
		"skipped":  skipped,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("export failed", fields)
		return
	}
	l.InfoWithFields("export completed", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, cfg map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", cfg)
}

// LogMetrics logs run metrics
func LogMetrics(l Logger, operation string, metrics map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": operation,
		"type":      "metrics",
	}
	for k, v := range metrics {
		fields[k] = v
	}
	l.InfoWithFields("Run metrics", fields)
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
