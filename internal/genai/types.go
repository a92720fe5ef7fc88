// Package genai talks to hosted LLM APIs for the resolver: free-text
// generation, query classification, and text embeddings.
//
// Providers:
//   - Gemini through google.golang.org/genai (generation, classification, embeddings)
//   - Groq and Cerebras through github.com/openai/openai-go/v3 (OpenAI-compatible)
//   - Anthropic through github.com/liushuangls/go-anthropic/v2 (generation)
//
// Every call goes through a chain: each model is retried with backoff, then
// the next model of the same provider, then the next provider in order.
package genai

import (
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderGroq      Provider = "groq"
	ProviderCerebras  Provider = "cerebras"
	ProviderAnthropic Provider = "anthropic"
)

// ProviderEndpoint holds base URLs for OpenAI-compatible providers.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// IsOpenAICompatible reports whether p is served by the OpenAI SDK.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// SupportsClassification reports whether p has a function-calling classifier.
func (p Provider) SupportsClassification() bool {
	return p == ProviderGemini || p.IsOpenAICompatible()
}

func (p Provider) String() string {
	return string(p)
}

// Operation names used in logs and metrics.
const (
	OpGenerate = "generate"
	OpClassify = "classify"
	OpEmbed    = "embed"
)

// RetryConfig controls per-model retries.
type RetryConfig struct {
	// MaxAttempts includes the first call.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// ProviderConfig holds one provider's credentials and model chains.
type ProviderConfig struct {
	APIKey         string
	GenerateModels []string
	ClassifyModels []string
}

// LLMConfig is the full provider setup.
type LLMConfig struct {
	// Providers is the fallback order. Providers without an API key are skipped.
	Providers []Provider

	Gemini    ProviderConfig
	Groq      ProviderConfig
	Cerebras  ProviderConfig
	Anthropic ProviderConfig

	RetryConfig RetryConfig

	EmbeddingModel string
	// EmbeddingDims truncates embeddings when positive. Query and corpus
	// vectors must share the same value.
	EmbeddingDims int
}

var (
	DefaultGeminiGenerateModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}
	DefaultGeminiClassifyModels = []string{"gemini-2.5-flash-lite"}

	DefaultGroqGenerateModels = []string{"llama-3.3-70b-versatile", "meta-llama/llama-4-maverick-17b-128e-instruct"}
	DefaultGroqClassifyModels = []string{"meta-llama/llama-4-maverick-17b-128e-instruct", "llama-3.1-8b-instant"}

	DefaultCerebrasGenerateModels = []string{"llama-3.3-70b", "llama-3.1-8b"}
	DefaultCerebrasClassifyModels = []string{"llama-3.3-70b"}

	DefaultAnthropicGenerateModels = []string{"claude-3-5-haiku-latest"}

	DefaultProviders = []Provider{ProviderGemini, ProviderGroq, ProviderCerebras, ProviderAnthropic}
)

const (
	DefaultEmbeddingModel = "gemini-embedding-001"

	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultLLMConfig returns the default chains. API keys are supplied by the caller.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Providers: DefaultProviders,
		Gemini: ProviderConfig{
			GenerateModels: DefaultGeminiGenerateModels,
			ClassifyModels: DefaultGeminiClassifyModels,
		},
		Groq: ProviderConfig{
			GenerateModels: DefaultGroqGenerateModels,
			ClassifyModels: DefaultGroqClassifyModels,
		},
		Cerebras: ProviderConfig{
			GenerateModels: DefaultCerebrasGenerateModels,
			ClassifyModels: DefaultCerebrasClassifyModels,
		},
		Anthropic: ProviderConfig{
			GenerateModels: DefaultAnthropicGenerateModels,
		},
		RetryConfig:    DefaultRetryConfig(),
		EmbeddingModel: DefaultEmbeddingModel,
	}
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// HasAnyProvider reports whether any provider has an API key.
func (c *LLMConfig) HasAnyProvider() bool {
	return len(c.ConfiguredProviders()) > 0
}

// HasProvider reports whether p has an API key.
func (c *LLMConfig) HasProvider(p Provider) bool {
	pc := c.GetProviderConfig(p)
	return pc != nil && pc.APIKey != ""
}

// GetProviderConfig returns nil for an unknown provider.
func (c *LLMConfig) GetProviderConfig(p Provider) *ProviderConfig {
	switch p {
	case ProviderGemini:
		return &c.Gemini
	case ProviderGroq:
		return &c.Groq
	case ProviderCerebras:
		return &c.Cerebras
	case ProviderAnthropic:
		return &c.Anthropic
	default:
		return nil
	}
}

// ConfiguredProviders returns Providers filtered to those with an API key,
// in order and without duplicates.
func (c *LLMConfig) ConfiguredProviders() []Provider {
	seen := make(map[Provider]struct{}, len(c.Providers))
	var out []Provider
	for _, p := range c.Providers {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if c.HasProvider(p) {
			out = append(out, p)
		}
	}
	return out
}
