package app

import (
	"context"
	"fmt"

	"github.com/campusnav/campus-navigator-go/internal/cache"
	"github.com/campusnav/campus-navigator-go/internal/config"
	"github.com/campusnav/campus-navigator-go/internal/genai"
	"github.com/campusnav/campus-navigator-go/internal/intent"
	"github.com/campusnav/campus-navigator-go/internal/logger"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/ratelimit"
	"github.com/campusnav/campus-navigator-go/internal/resolver"
)

// providers holds the external capabilities handed to the resolver. Any
// of them may be nil when the matching provider is not configured.
type providers struct {
	embedder   resolver.Embedder
	generator  resolver.TextGenerator
	classifier intent.SemanticClassifier
}

// BuildLLMConfig maps application config onto provider chains. Unknown
// provider names are skipped with a warning.
func BuildLLMConfig(cfg *config.Config, log *logger.Logger) genai.LLMConfig {
	llm := genai.DefaultLLMConfig()

	llm.Gemini.APIKey = cfg.LLM.GeminiAPIKey
	llm.Groq.APIKey = cfg.LLM.GroqAPIKey
	llm.Cerebras.APIKey = cfg.LLM.CerebrasAPIKey
	llm.Anthropic.APIKey = cfg.LLM.AnthropicAPIKey

	if len(cfg.LLM.GeminiModels) > 0 {
		llm.Gemini.GenerateModels = cfg.LLM.GeminiModels
	}
	if len(cfg.LLM.GroqModels) > 0 {
		llm.Groq.GenerateModels = cfg.LLM.GroqModels
	}
	if len(cfg.LLM.CerebrasModels) > 0 {
		llm.Cerebras.GenerateModels = cfg.LLM.CerebrasModels
	}
	if len(cfg.LLM.AnthropicModels) > 0 {
		llm.Anthropic.GenerateModels = cfg.LLM.AnthropicModels
	}
	if cfg.LLM.EmbeddingModel != "" {
		llm.EmbeddingModel = cfg.LLM.EmbeddingModel
	}
	llm.EmbeddingDims = cfg.LLM.EmbeddingDims

	if len(cfg.LLM.Providers) > 0 {
		order := make([]genai.Provider, 0, len(cfg.LLM.Providers))
		for _, name := range cfg.LLM.Providers {
			p := genai.Provider(name)
			if llm.GetProviderConfig(p) == nil {
				log.WithField("provider", name).Warn("Ignoring unknown LLM provider")
				continue
			}
			order = append(order, p)
		}
		if len(order) > 0 {
			llm.Providers = order
		}
	}
	return llm
}

func newCache(ctx context.Context, cfg *config.Config, log *logger.Logger) cache.Client {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryClient(0)
	}
	c, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-memory embedding cache")
		return cache.NewMemoryClient(0)
	}
	log.WithField("addr", cfg.Redis.Addr).Info("Redis embedding cache enabled")
	return c
}

func newProviders(ctx context.Context, cfg *config.Config, c cache.Client, m *metrics.Metrics, log *logger.Logger) (providers, error) {
	var p providers
	if !cfg.HasLLMProvider() {
		log.Warn("No LLM provider configured: descriptions stay as stored and questions get the fixed fallback")
		return p, nil
	}

	llm := BuildLLMConfig(cfg, log)
	opts := []genai.ChainOption{
		genai.WithLimiter(ratelimit.New(cfg.RateLimit.LLMBurst, cfg.RateLimit.LLMRefill)),
		genai.WithMetrics(m),
		genai.WithLogger(log.WithModule("genai").Logger),
	}

	gen, err := genai.NewGenerator(ctx, llm, opts...)
	if err != nil {
		return p, fmt.Errorf("text generator: %w", err)
	}
	if gen != nil {
		p.generator = gen
	}

	if cfg.Resolver.ClassifyEnabled {
		cls, err := genai.NewClassifier(ctx, llm, opts...)
		if err != nil {
			return p, fmt.Errorf("classifier: %w", err)
		}
		if cls != nil {
			p.classifier = cls
		}
	}

	emb, err := genai.NewEmbedder(ctx, llm, opts...)
	if err != nil {
		return p, fmt.Errorf("embedder: %w", err)
	}
	if emb != nil {
		p.embedder = genai.NewCachedEmbedder(emb, c, llm.EmbeddingModel, llm.EmbeddingDims, cfg.LLM.EmbeddingCacheTTL, m)
	}

	names := make([]string, 0, len(llm.Providers))
	for _, pr := range llm.ConfiguredProviders() {
		names = append(names, pr.String())
	}
	log.WithFields(map[string]any{
		"providers":  names,
		"embeddings": p.embedder != nil,
		"classifier": p.classifier != nil,
	}).Info("LLM features enabled")
	return p, nil
}
