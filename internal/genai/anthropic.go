package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// anthropicGenerator implements Generator on the Messages API.
type anthropicGenerator struct {
	client *anthropic.Client
	model  string
}

func newAnthropicGenerator(client *anthropic.Client, model string) *anthropicGenerator {
	return &anthropicGenerator{client: client, model: model}
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.4)
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(g.model),
		System: GeneratorSystemPrompt,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
		MaxTokens:   512,
		Temperature: &temperature,
	})
	if err != nil {
		return "", WrapError(fmt.Errorf("create messages: %w", err), ProviderAnthropic, 0)
	}

	var b strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" && c.Text != nil {
			b.WriteString(*c.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", WrapError(errEmptyResponse, ProviderAnthropic, 0)
	}
	return text, nil
}

func (g *anthropicGenerator) Provider() Provider { return ProviderAnthropic }
func (g *anthropicGenerator) Model() string      { return g.model }
