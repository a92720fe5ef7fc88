package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Data        DataConfig
	Resolver    ResolverConfig
	RateLimit   RateLimitConfig
	LLM         LLMConfig
	Redis       RedisConfig
	R2          R2Config
	Sentry      SentryConfig
	BetterStack BetterStackConfig
	Metrics     MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	LogLevel        string
	ServiceName     string
	ShutdownTimeout time.Duration
	MapsAPIKey      string   // Served to the map frontend via /api/config
	CORSOrigins     []string // "*" allows any origin
}

// DataConfig holds dataset locations.
type DataConfig struct {
	DataDir      string // Directory holding the SQLite database
	DBFile       string // Database file name inside DataDir
	KnowledgeDir string // Directory of *.txt files for ingestion
	SeedFile     string // Optional YAML catalog; empty uses the embedded seed
}

// ResolverConfig holds query pipeline settings.
type ResolverConfig struct {
	CampusName      string
	TopK            int
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
	ClassifyTimeout time.Duration
	ClassifyEnabled bool // Consult the semantic classifier when no entity matched
}

// RateLimitConfig holds token bucket settings.
type RateLimitConfig struct {
	ClientBurst  float64 // Per client IP burst
	ClientRefill float64 // Per client IP tokens per second
	ClientDaily  int     // Per client IP rolling 24h quota, 0 disables
	LLMBurst     float64 // Shared outbound LLM burst
	LLMRefill    float64 // Shared outbound LLM tokens per second
}

// LLMConfig holds provider credentials and model chains.
type LLMConfig struct {
	Providers         []string // Provider order, e.g. gemini,groq,anthropic
	GeminiAPIKey      string
	GroqAPIKey        string
	CerebrasAPIKey    string
	AnthropicAPIKey   string
	GeminiModels      []string
	GroqModels        []string
	CerebrasModels    []string
	AnthropicModels   []string
	EmbeddingModel    string
	EmbeddingDims     int
	EmbeddingCacheTTL time.Duration
}

// RedisConfig enables the Redis embedding cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// R2Config holds Cloudflare R2 snapshot settings.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	SnapshotKey     string
	PollInterval    time.Duration
}

// SentryConfig holds Better Stack Errors (Sentry protocol) settings.
type SentryConfig struct {
	Token       string
	Host        string
	Environment string
	SampleRate  float64
}

// BetterStackConfig holds Better Stack log shipping settings.
type BetterStackConfig struct {
	Token    string
	Endpoint string
}

// MetricsConfig holds /metrics Basic Auth settings.
type MetricsConfig struct {
	AuthEnabled bool
	Username    string
	Password    string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(EnvPort, "8000"),
			LogLevel:        getEnv(EnvLogLevel, "info"),
			ServiceName:     getEnv(EnvServiceName, "campus-navigator"),
			ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
			MapsAPIKey:      getEnv(EnvMapsAPIKey, ""),
			CORSOrigins:     getListEnv(EnvCORSOrigins, []string{"*"}),
		},
		Data: DataConfig{
			DataDir:      getEnv(EnvDataDir, getDefaultDataDir()),
			DBFile:       getEnv(EnvDBFile, "campus.db"),
			KnowledgeDir: getEnv(EnvKnowledgeDir, "Data"),
			SeedFile:     getEnv(EnvSeedFile, ""),
		},
		Resolver: ResolverConfig{
			CampusName:      getEnv(EnvCampusName, "IISER Thiruvananthapuram"),
			TopK:            getIntEnv(EnvTopK, 3),
			EmbedTimeout:    getDurationEnv(EnvEmbedTimeout, EmbedDefault),
			GenerateTimeout: getDurationEnv(EnvGenerateTimeout, GenerateDefault),
			ClassifyTimeout: getDurationEnv(EnvClassifyTimeout, ClassifyDefault),
			ClassifyEnabled: getBoolEnv(EnvClassifyEnabled, false),
		},
		RateLimit: RateLimitConfig{
			ClientBurst:  getFloatEnv(EnvClientRateBurst, 20),
			ClientRefill: getFloatEnv(EnvClientRateRefill, 0.5),
			ClientDaily:  getIntEnv(EnvClientRateDaily, 0),
			LLMBurst:     getFloatEnv(EnvLLMRateBurst, 30),
			LLMRefill:    getFloatEnv(EnvLLMRateRefill, 1),
		},
		LLM: LLMConfig{
			Providers:         getListEnv(EnvLLMProviders, []string{"gemini", "groq", "cerebras", "anthropic"}),
			GeminiAPIKey:      getEnv(EnvGeminiAPIKey, ""),
			GroqAPIKey:        getEnv(EnvGroqAPIKey, ""),
			CerebrasAPIKey:    getEnv(EnvCerebrasAPIKey, ""),
			AnthropicAPIKey:   getEnv(EnvAnthropicAPIKey, ""),
			GeminiModels:      getListEnv(EnvGeminiModels, nil),
			GroqModels:        getListEnv(EnvGroqModels, nil),
			CerebrasModels:    getListEnv(EnvCerebrasModels, nil),
			AnthropicModels:   getListEnv(EnvAnthropicModels, nil),
			EmbeddingModel:    getEnv(EnvEmbeddingModel, ""),
			EmbeddingDims:     getIntEnv(EnvEmbeddingDims, 0),
			EmbeddingCacheTTL: getDurationEnv(EnvEmbeddingCacheTTL, 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv(EnvRedisAddr, ""),
			Password: getEnv(EnvRedisPassword, ""),
			DB:       getIntEnv(EnvRedisDB, 0),
			Prefix:   getEnv(EnvRedisPrefix, "campus:"),
		},
		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/campus.db.zst"),
			PollInterval:    getDurationEnv(EnvR2SnapshotPollInterval, SnapshotPollDefault),
		},
		Sentry: SentryConfig{
			Token:       getEnv(EnvSentryToken, ""),
			Host:        getEnv(EnvSentryHost, ""),
			Environment: getEnv(EnvSentryEnvironment, "production"),
			SampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		},
		BetterStack: BetterStackConfig{
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},
		Metrics: MetricsConfig{
			AuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
			Username:    getEnv(EnvMetricsUsername, "prometheus"),
			Password:    getEnv(EnvMetricsPassword, ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	if c.Data.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.Resolver.TopK <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvTopK, c.Resolver.TopK))
	}
	for key, d := range map[string]time.Duration{
		EnvEmbedTimeout:    c.Resolver.EmbedTimeout,
		EnvGenerateTimeout: c.Resolver.GenerateTimeout,
		EnvClassifyTimeout: c.Resolver.ClassifyTimeout,
		EnvShutdownTimeout: c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", key, d))
		}
	}
	if c.RateLimit.ClientBurst <= 0 || c.RateLimit.ClientRefill <= 0 {
		errs = append(errs, errors.New("client rate limit burst and refill must be positive"))
	}
	if c.RateLimit.LLMBurst <= 0 || c.RateLimit.LLMRefill <= 0 {
		errs = append(errs, errors.New("LLM rate limit burst and refill must be positive"))
	}
	if c.R2.Enabled {
		if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			errs = append(errs, errors.New("R2 is enabled but account, credentials or bucket are missing"))
		}
		if c.R2.PollInterval <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvR2SnapshotPollInterval, c.R2.PollInterval))
		}
	}
	if c.Sentry.Token != "" && c.Sentry.Host == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvSentryHost, EnvSentryToken))
	}
	if c.Metrics.AuthEnabled && c.Metrics.Password == "" {
		errs = append(errs, fmt.Errorf("%s is required when metrics auth is enabled", EnvMetricsPassword))
	}

	return errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping blanks.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Data.DataDir, c.Data.DBFile)
}

// R2Endpoint returns the S3-compatible endpoint for the configured account.
func (c *Config) R2Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID)
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	l := c.LLM
	return l.GeminiAPIKey != "" || l.GroqAPIKey != "" || l.CerebrasAPIKey != "" || l.AnthropicAPIKey != ""
}

// HasEmbedder reports whether query embeddings can be computed.
// Only Gemini offers an embedding model in the provider set.
func (c *Config) HasEmbedder() bool {
	return c.LLM.GeminiAPIKey != ""
}
