package sentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
)

func TestDSN(t *testing.T) {
	t.Parallel()
	if got := DSN("tok", "errors.betterstack.com"); got != "https://tok@errors.betterstack.com/1" {
		t.Errorf("DSN() = %q", got)
	}
}

func TestInit_Disabled(t *testing.T) {
	t.Parallel()
	if err := Init(Config{}); err != nil {
		t.Errorf("Init() with empty token error = %v", err)
	}
}

func TestInit_MissingHost(t *testing.T) {
	t.Parallel()
	if err := Init(Config{Token: "tok"}); err == nil {
		t.Error("Init() without host should fail")
	}
}

func TestInit_Enabled(t *testing.T) {
	// Global hub: not parallel.
	if err := Init(Config{Token: "tok", Host: "errors.betterstack.com", Environment: "test"}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !Enabled() {
		t.Error("Enabled() = false after Init")
	}

	// Capture must not panic with or without a request hub.
	Capture(context.Background(), errors.New("boom"), map[string]string{"route": "/api/query"})
	Capture(context.Background(), context.Canceled, nil)
	Capture(context.Background(), nil, nil)
	Flush(100 * time.Millisecond)
}

func TestScrub(t *testing.T) {
	t.Parallel()
	event := &sentry.Event{Request: &sentry.Request{Data: `{"query":"where is my hostel"}`, Cookies: "sid=1", URL: "/api/query"}}
	out := scrub(event, nil)
	if out.Request.Data != "" || out.Request.Cookies != "" {
		t.Errorf("scrub() left %+v", out.Request)
	}
	if out.Request.URL != "/api/query" {
		t.Error("scrub() removed the URL")
	}
	if scrub(&sentry.Event{}, nil) == nil {
		t.Error("scrub() dropped an event without a request")
	}
}
