// Package sentry reports unexpected errors to Better Stack Errors, which
// accepts the Sentry protocol.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds error tracking settings. An empty Token disables reporting.
type Config struct {
	Token       string
	Host        string // e.g. errors.betterstack.com
	Environment string
	Release     string
	SampleRate  float64 // 0 means 1.0
	Debug       bool
}

// DSN builds the Better Stack DSN. The project ID is required by the SDK
// and ignored by the backend.
func DSN(token, host string) string {
	return fmt.Sprintf("https://%s@%s/1", token, host)
}

// Init configures the global hub. It is a no-op when cfg.Token is empty.
func Init(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return errors.New("sentry: host is required when token is set")
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              DSN(cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       rate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		BeforeSend:       scrub,
	})
}

// scrub drops request bodies, which carry user queries, and cookies.
func scrub(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		event.Request.Data = ""
		event.Request.Cookies = ""
	}
	return event
}

// Enabled reports whether a client is bound to the global hub.
func Enabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// Flush waits up to timeout for queued events.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// Capture reports err with optional tags. Cancellations are not reported.
// The hub attached to ctx (set by the HTTP middleware) is preferred.
func Capture(ctx context.Context, err error, tags map[string]string) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
