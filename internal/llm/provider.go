package llm

import (
	"context"
	"time"
)

// Provider defines the interface for chat-completion backends.
// Implementations return the raw message content untouched; turning it into
// typed output is the reconciler's job.
type Provider interface {
	// Complete sends a single prompt and returns the raw completion.
	// Failures are *apierr.Error values of kind completion or empty_response.
	Complete(ctx context.Context, request *CompletionRequest) (*RawCompletion, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string

	// Model returns the model the provider sends requests to
	Model() string
}

// CompletionRequest contains the rendered prompt plus labels for tracing
type CompletionRequest struct {
	Prompt string
	Mode   string // magic_words or tension_seeds
}

// Content block types
const (
	BlockTypeText = "text"
)

// ContentBlock is one typed block of a multi-part message
type ContentBlock struct {
	Type    string
	Text    string
	Content string // Some gateways put block text here instead of Text
}

// RawCompletion is the untrusted model output.
// Exactly one of Text or Blocks is set.
type RawCompletion struct {
	Text     *string
	Blocks   []ContentBlock
	Model    string
	Usage    Usage
	Duration time.Duration
}

// Usage holds token counts reported by the provider
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// ToMap converts usage to the field map used by logs and traces
func (u Usage) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":  u.PromptTokens,
		"output_tokens": u.CompletionTokens,
		"total_tokens":  u.TotalTokens,
	}
}
