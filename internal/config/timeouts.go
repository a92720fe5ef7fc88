// Package config provides application configuration and centralized timeout constants.
//
// Query-path budgets are sized so that the slowest path (embed, then
// generate) still finishes inside the HTTP write timeout.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Query bodies are tiny JSON objects.
	HTTPRead = 10 * time.Second

	// HTTPWrite must cover EmbedDefault + GenerateDefault + serialization.
	HTTPWrite = 60 * time.Second

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second

	// ReadinessCheckTimeout bounds the database ping in /readyz.
	ReadinessCheckTimeout = 3 * time.Second
)

// External call budgets
const (
	// EmbedDefault bounds a single query embedding, including retries.
	EmbedDefault = 10 * time.Second

	// GenerateDefault bounds a single text generation, including provider fallback.
	GenerateDefault = 30 * time.Second

	// ClassifyDefault bounds the optional semantic classification.
	ClassifyDefault = 5 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of pooled connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// SnapshotPollDefault is how often R2 is checked for a newer dataset.
	SnapshotPollDefault = 5 * time.Minute

	// SnapshotLoadTimeout bounds download plus load of one snapshot.
	SnapshotLoadTimeout = 2 * time.Minute

	// MetricsUpdateInterval is how often dataset size gauges are refreshed.
	MetricsUpdateInterval = 5 * time.Minute

	// RateLimiterCleanupInterval is how often idle per-client limiters are removed.
	RateLimiterCleanupInterval = 5 * time.Minute

	// StartupLoadTimeout bounds the initial dataset load.
	StartupLoadTimeout = time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default time allowed for in-flight requests to finish.
	GracefulShutdown = 30 * time.Second
)
