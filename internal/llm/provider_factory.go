package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	// DefaultModel is served through the OpenAI-compatible gateway
	DefaultModel       = "anthropic/claude-haiku-4.5"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultMaxTokens   = 4096
)

// ProviderConfig carries what the factory needs to build a provider
type ProviderConfig struct {
	Provider     string // openai (default) or gemini
	Model        string
	MaxTokens    int64
	OpenAIAPIKey string
	OpenAIURL    string // Base URL of the OpenAI-compatible gateway
	GeminiAPIKey string
}

// ProviderFactory creates the provider chosen at startup
type ProviderFactory struct {
	cfg ProviderConfig
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg ProviderConfig) *ProviderFactory {
	return &ProviderFactory{cfg: cfg}
}

// GetProvider returns the configured provider
func (f *ProviderFactory) GetProvider(ctx context.Context) (Provider, error) {
	maxTokens := f.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	switch strings.ToLower(strings.TrimSpace(f.cfg.Provider)) {
	case "", providerNameOpenAI:
		if f.cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		model := f.cfg.Model
		if model == "" {
			model = DefaultModel
		}
		return NewOpenAIProvider(f.cfg.OpenAIAPIKey, f.cfg.OpenAIURL, model, maxTokens), nil

	case providerNameGemini:
		if f.cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		model := f.cfg.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		return NewGeminiProvider(ctx, f.cfg.GeminiAPIKey, model, maxTokens)

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: openai, gemini)", f.cfg.Provider)
	}
}
