package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "CAMPUS_PORT"
	EnvLogLevel        = "CAMPUS_LOG_LEVEL"
	EnvShutdownTimeout = "CAMPUS_SHUTDOWN_TIMEOUT"
	EnvServiceName     = "CAMPUS_SERVICE_NAME"
	EnvMapsAPIKey      = "CAMPUS_MAPS_API_KEY"
	EnvCORSOrigins     = "CAMPUS_CORS_ORIGINS"

	// Data
	EnvDataDir      = "CAMPUS_DATA_DIR"
	EnvDBFile       = "CAMPUS_DB_FILE"
	EnvKnowledgeDir = "CAMPUS_KNOWLEDGE_DIR"
	EnvSeedFile     = "CAMPUS_SEED_FILE"

	// Resolver
	EnvTopK            = "CAMPUS_TOP_K"
	EnvEmbedTimeout    = "CAMPUS_EMBED_TIMEOUT"
	EnvGenerateTimeout = "CAMPUS_GENERATE_TIMEOUT"
	EnvClassifyTimeout = "CAMPUS_CLASSIFY_TIMEOUT"
	EnvClassifyEnabled = "CAMPUS_CLASSIFY_ENABLED"
	EnvCampusName      = "CAMPUS_NAME"

	// Rate Limits
	EnvClientRateBurst  = "CAMPUS_CLIENT_RATE_BURST"
	EnvClientRateRefill = "CAMPUS_CLIENT_RATE_REFILL"
	EnvClientRateDaily  = "CAMPUS_CLIENT_RATE_DAILY"
	EnvLLMRateBurst     = "CAMPUS_LLM_RATE_BURST"
	EnvLLMRateRefill    = "CAMPUS_LLM_RATE_REFILL"

	// LLM Feature
	EnvLLMProviders      = "CAMPUS_LLM_PROVIDERS"
	EnvGeminiAPIKey      = "CAMPUS_GEMINI_API_KEY"
	EnvGroqAPIKey        = "CAMPUS_GROQ_API_KEY"
	EnvCerebrasAPIKey    = "CAMPUS_CEREBRAS_API_KEY"
	EnvAnthropicAPIKey   = "CAMPUS_ANTHROPIC_API_KEY"
	EnvGeminiModels      = "CAMPUS_GEMINI_MODELS"
	EnvGroqModels        = "CAMPUS_GROQ_MODELS"
	EnvCerebrasModels    = "CAMPUS_CEREBRAS_MODELS"
	EnvAnthropicModels   = "CAMPUS_ANTHROPIC_MODELS"
	EnvEmbeddingModel    = "CAMPUS_EMBEDDING_MODEL"
	EnvEmbeddingDims     = "CAMPUS_EMBEDDING_DIMENSIONS"
	EnvEmbeddingCacheTTL = "CAMPUS_EMBEDDING_CACHE_TTL"

	// Redis Feature
	EnvRedisAddr     = "CAMPUS_REDIS_ADDR"
	EnvRedisPassword = "CAMPUS_REDIS_PASSWORD"
	EnvRedisDB       = "CAMPUS_REDIS_DB"
	EnvRedisPrefix   = "CAMPUS_REDIS_PREFIX"

	// R2 Snapshot Feature
	EnvR2Enabled              = "CAMPUS_R2_ENABLED"
	EnvR2AccountID            = "CAMPUS_R2_ACCOUNT_ID"
	EnvR2AccessKeyID          = "CAMPUS_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey      = "CAMPUS_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName           = "CAMPUS_R2_BUCKET_NAME"
	EnvR2SnapshotKey          = "CAMPUS_R2_SNAPSHOT_KEY"
	EnvR2SnapshotPollInterval = "CAMPUS_R2_SNAPSHOT_POLL_INTERVAL"

	// Sentry Feature
	EnvSentryToken       = "CAMPUS_SENTRY_TOKEN"
	EnvSentryHost        = "CAMPUS_SENTRY_HOST"
	EnvSentryEnvironment = "CAMPUS_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "CAMPUS_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "CAMPUS_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "CAMPUS_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "CAMPUS_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "CAMPUS_METRICS_USERNAME"
	EnvMetricsPassword    = "CAMPUS_METRICS_PASSWORD"
)
