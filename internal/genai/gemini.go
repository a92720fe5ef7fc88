package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/campusnav/campus-navigator-go/internal/intent"
)

func newGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// geminiGenerator implements Generator.
type geminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func newGeminiGenerator(client *genai.Client, model string) *geminiGenerator {
	return &geminiGenerator{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(GeneratorSystemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.4),
			MaxOutputTokens:   512,
		},
	}
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", WrapError(fmt.Errorf("generate content: %w", err), ProviderGemini, 0)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", WrapError(errEmptyResponse, ProviderGemini, 0)
	}
	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "generation completed",
			"provider", ProviderGemini,
			"model", g.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return text, nil
}

func (g *geminiGenerator) Provider() Provider { return ProviderGemini }
func (g *geminiGenerator) Model() string      { return g.model }

// geminiClassifier implements Classifier with forced function calling.
type geminiClassifier struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func newGeminiClassifier(client *genai.Client, model string) *geminiClassifier {
	return &geminiClassifier{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(ClassifierSystemPrompt, genai.RoleUser),
			Tools:             []*genai.Tool{{FunctionDeclarations: BuildClassifierFunctions()}},
			ToolConfig: &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{
					Mode: genai.FunctionCallingConfigModeAny,
				},
			},
			Temperature:     genai.Ptr[float32](0),
			MaxOutputTokens: 128,
		},
	}
}

func (c *geminiClassifier) Classify(ctx context.Context, query string) (intent.Label, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(query), c.config)
	if err != nil {
		return "", WrapError(fmt.Errorf("generate content: %w", err), ProviderGemini, 0)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", WrapError(errEmptyResponse, ProviderGemini, 0)
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			return labelFromFunction(part.FunctionCall.Name)
		}
	}
	return "", WrapError(fmt.Errorf("%w: no function call", errMalformed), ProviderGemini, 0)
}

func (c *geminiClassifier) Provider() Provider { return ProviderGemini }
func (c *geminiClassifier) Model() string      { return c.model }
