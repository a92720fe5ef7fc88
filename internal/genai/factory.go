package genai

import (
	"context"
	"log/slog"

	"github.com/liushuangls/go-anthropic/v2"
)

// NewGenerator builds the generation chain: every GenerateModels entry of
// every configured provider, in provider order. It returns nil when no
// provider has an API key.
func NewGenerator(ctx context.Context, cfg LLMConfig, opts ...ChainOption) (*FallbackGenerator, error) {
	var members []Generator
	for _, p := range cfg.ConfiguredProviders() {
		pc := cfg.GetProviderConfig(p)
		switch {
		case p == ProviderGemini:
			client, err := newGeminiClient(ctx, pc.APIKey)
			if err != nil {
				slog.WarnContext(ctx, "skipping gemini generator", "error", err)
				continue
			}
			for _, m := range pc.GenerateModels {
				members = append(members, newGeminiGenerator(client, m))
			}
		case p.IsOpenAICompatible():
			client, err := newOpenAIClient(p, pc.APIKey, "")
			if err != nil {
				slog.WarnContext(ctx, "skipping generator", "provider", p, "error", err)
				continue
			}
			for _, m := range pc.GenerateModels {
				members = append(members, &openaiGenerator{client: client, provider: p, model: m})
			}
		case p == ProviderAnthropic:
			client := anthropic.NewClient(pc.APIKey)
			for _, m := range pc.GenerateModels {
				members = append(members, newAnthropicGenerator(client, m))
			}
		}
	}

	if len(members) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured for generation")
		return nil, nil //nolint:nilnil // no provider configured is not an error
	}
	slog.InfoContext(ctx, "generator configured",
		"primary", members[0].Provider(),
		"model", members[0].Model(),
		"chain_size", len(members))
	return NewFallbackGenerator(members, opts...), nil
}

// NewClassifier builds the classification chain from providers with a
// function-calling implementation. It returns nil when none is configured.
func NewClassifier(ctx context.Context, cfg LLMConfig, opts ...ChainOption) (*FallbackClassifier, error) {
	var members []Classifier
	for _, p := range cfg.ConfiguredProviders() {
		if !p.SupportsClassification() {
			continue
		}
		pc := cfg.GetProviderConfig(p)
		if p == ProviderGemini {
			client, err := newGeminiClient(ctx, pc.APIKey)
			if err != nil {
				slog.WarnContext(ctx, "skipping gemini classifier", "error", err)
				continue
			}
			for _, m := range pc.ClassifyModels {
				members = append(members, newGeminiClassifier(client, m))
			}
			continue
		}
		client, err := newOpenAIClient(p, pc.APIKey, "")
		if err != nil {
			slog.WarnContext(ctx, "skipping classifier", "provider", p, "error", err)
			continue
		}
		for _, m := range pc.ClassifyModels {
			members = append(members, newOpenAIClassifier(client, p, m))
		}
	}

	if len(members) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured for classification")
		return nil, nil //nolint:nilnil // no provider configured is not an error
	}
	slog.InfoContext(ctx, "classifier configured",
		"primary", members[0].Provider(),
		"chain_size", len(members))
	return NewFallbackClassifier(members, opts...), nil
}

// NewEmbedder builds the Gemini embedder, or returns nil when no Gemini key
// is configured.
func NewEmbedder(ctx context.Context, cfg LLMConfig, opts ...ChainOption) (*GeminiEmbedder, error) {
	if !cfg.HasProvider(ProviderGemini) {
		slog.InfoContext(ctx, "no gemini key, embeddings disabled")
		return nil, nil //nolint:nilnil // no provider configured is not an error
	}
	return NewGeminiEmbedder(ctx, cfg.Gemini.APIKey, cfg.EmbeddingModel, cfg.EmbeddingDims, opts...)
}
