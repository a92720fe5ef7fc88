package genai

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/campusnav/campus-navigator-go/internal/intent"
)

func TestConfiguredProviders(t *testing.T) {
	cfg := DefaultLLMConfig()
	if cfg.HasAnyProvider() {
		t.Fatal("default config should have no keys")
	}

	cfg.Providers = []Provider{ProviderGroq, ProviderGemini, ProviderGroq, ProviderAnthropic}
	cfg.Groq.APIKey = "g"
	cfg.Anthropic.APIKey = "a"

	got := cfg.ConfiguredProviders()
	want := []Provider{ProviderGroq, ProviderAnthropic}
	if !slices.Equal(got, want) {
		t.Errorf("ConfiguredProviders() = %v, want %v", got, want)
	}
	if cfg.HasProvider(ProviderGemini) {
		t.Error("HasProvider(gemini) without key")
	}
	if cfg.GetProviderConfig(Provider("other")) != nil {
		t.Error("GetProviderConfig(unknown) != nil")
	}
}

func TestProviderCapabilities(t *testing.T) {
	tests := []struct {
		p        Provider
		openai   bool
		classify bool
	}{
		{ProviderGemini, false, true},
		{ProviderGroq, true, true},
		{ProviderCerebras, true, true},
		{ProviderAnthropic, false, false},
	}
	for _, tt := range tests {
		if got := tt.p.IsOpenAICompatible(); got != tt.openai {
			t.Errorf("%s.IsOpenAICompatible() = %v", tt.p, got)
		}
		if got := tt.p.SupportsClassification(); got != tt.classify {
			t.Errorf("%s.SupportsClassification() = %v", tt.p, got)
		}
	}
}

func TestBuildClassifierFunctions(t *testing.T) {
	decls := BuildClassifierFunctions()
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(decls))
	}
	for _, d := range decls {
		if _, err := labelFromFunction(d.Name); err != nil {
			t.Errorf("declaration %q does not map to a label: %v", d.Name, err)
		}
		if _, ok := d.Parameters.Properties[subjectParam]; !ok {
			t.Errorf("declaration %q lacks %q", d.Name, subjectParam)
		}
	}

	if _, err := labelFromFunction("book_room"); err == nil {
		t.Error("labelFromFunction accepted an unknown name")
	}
	if got, _ := labelFromFunction(" location_search "); got != intent.LabelLocationSearch {
		t.Errorf("labelFromFunction trims: got %q", got)
	}
}

func TestBuildOpenAITools(t *testing.T) {
	tools := buildOpenAITools()
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}
	for _, tool := range tools {
		fn := tool.GetFunction()
		if fn == nil {
			t.Fatal("tool is not a function tool")
		}
		props, ok := fn.Parameters["properties"].(map[string]any)
		if !ok {
			t.Fatalf("%s: properties = %T", fn.Name, fn.Parameters["properties"])
		}
		subject, ok := props[subjectParam].(map[string]string)
		if !ok || subject["type"] != strings.ToLower("STRING") {
			t.Errorf("%s: subject schema = %v", fn.Name, props[subjectParam])
		}
	}
}

func TestFactories_NoKeys(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultLLMConfig()

	gen, err := NewGenerator(ctx, cfg)
	if err != nil || gen != nil {
		t.Errorf("NewGenerator() = %v, %v; want nil, nil", gen, err)
	}
	cls, err := NewClassifier(ctx, cfg)
	if err != nil || cls != nil {
		t.Errorf("NewClassifier() = %v, %v; want nil, nil", cls, err)
	}
	emb, err := NewEmbedder(ctx, cfg)
	if err != nil || emb != nil {
		t.Errorf("NewEmbedder() = %v, %v; want nil, nil", emb, err)
	}
}

func TestNewGenerator_AnthropicOnly(t *testing.T) {
	cfg := DefaultLLMConfig()
	cfg.Anthropic.APIKey = "test-key"

	gen, err := NewGenerator(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if gen.Len() != len(DefaultAnthropicGenerateModels) {
		t.Errorf("Len() = %d, want %d", gen.Len(), len(DefaultAnthropicGenerateModels))
	}
}
