package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/campusnav/campus-navigator-go/internal/intent"
)

// newOpenAIClient builds a client for an OpenAI-compatible provider.
// baseURL overrides ProviderEndpoint when set.
func newOpenAIClient(provider Provider, apiKey, baseURL string) (openai.Client, error) {
	if baseURL == "" {
		var ok bool
		if baseURL, ok = ProviderEndpoint[provider]; !ok {
			return openai.Client{}, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
		}
	}
	return openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	), nil
}

// openaiGenerator implements Generator for Groq and Cerebras.
type openaiGenerator struct {
	client   openai.Client
	provider Provider
	model    string
}

func (g *openaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(GeneratorSystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.4),
		MaxTokens:   openai.Int(512),
	})
	if err != nil {
		return "", WrapError(fmt.Errorf("chat completion: %w", err), g.provider, 0)
	}
	if len(resp.Choices) == 0 {
		return "", WrapError(errEmptyResponse, g.provider, 0)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", WrapError(errEmptyResponse, g.provider, 0)
	}
	slog.DebugContext(ctx, "generation completed",
		"provider", g.provider,
		"model", g.model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func (g *openaiGenerator) Provider() Provider { return g.provider }
func (g *openaiGenerator) Model() string      { return g.model }

// openaiClassifier implements Classifier with tool_choice "required".
type openaiClassifier struct {
	client   openai.Client
	provider Provider
	model    string
	tools    []openai.ChatCompletionToolUnionParam
}

func newOpenAIClassifier(client openai.Client, provider Provider, model string) *openaiClassifier {
	return &openaiClassifier{
		client:   client,
		provider: provider,
		model:    model,
		tools:    buildOpenAITools(),
	}
}

// buildOpenAITools converts the Gemini declarations to JSON Schema tools.
// OpenAI expects lowercase type names.
func buildOpenAITools() []openai.ChatCompletionToolUnionParam {
	decls := BuildClassifierFunctions()
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(decls))
	for _, fd := range decls {
		properties := make(map[string]any, len(fd.Parameters.Properties))
		for name, schema := range fd.Parameters.Properties {
			properties[name] = map[string]string{
				"type":        strings.ToLower(string(schema.Type)),
				"description": schema.Description,
			}
		}
		tools = append(tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        fd.Name,
			Description: openai.String(fd.Description),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": properties,
			},
		}))
	}
	return tools
}

func (c *openaiClassifier) Classify(ctx context.Context, query string) (intent.Label, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(ClassifierSystemPrompt),
			openai.UserMessage(query),
		},
		Tools: c.tools,
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoRequired)),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(128),
	})
	if err != nil {
		return "", WrapError(fmt.Errorf("chat completion: %w", err), c.provider, 0)
	}
	if len(resp.Choices) == 0 {
		return "", WrapError(errEmptyResponse, c.provider, 0)
	}

	for _, tc := range resp.Choices[0].Message.ToolCalls {
		if tc.Type == "function" {
			return labelFromFunction(tc.Function.Name)
		}
	}
	return "", WrapError(fmt.Errorf("%w: no tool call", errMalformed), c.provider, 0)
}

func (c *openaiClassifier) Provider() Provider { return c.provider }
func (c *openaiClassifier) Model() string      { return c.model }
