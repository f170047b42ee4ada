package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/apierr"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/logger"
	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"

	// Block types for non-text Gemini parts
	blockTypeThought        = "thought"
	blockTypeFunctionCall   = "function_call"
	blockTypeInlineData     = "inline_data"
	blockTypeExecutableCode = "executable_code"
	blockTypeUnknown        = "unknown"
)

// GeminiProvider implements Provider using Google's Gemini API
type GeminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int64
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string, maxTokens int64) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Model returns the configured model
func (p *GeminiProvider) Model() string {
	return p.model
}

// Complete sends the prompt with a JSON response MIME type
func (p *GeminiProvider) Complete(ctx context.Context, request *CompletionRequest) (*RawCompletion, error) {
	startTime := time.Now()
	logger.Debug("Completion started", logger.Fields{
		"provider":   providerNameGemini,
		"model":      p.model,
		"mode":       request.Mode,
		"prompt_len": len(request.Prompt),
	})

	span := sentry.StartSpan(ctx, "llm.complete")
	defer span.Finish()
	span.Description = p.model
	span.SetTag("provider", providerNameGemini)
	span.SetTag("model", p.model)
	span.SetTag("mode", request.Mode)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: mimeTypeJSON,
		MaxOutputTokens:  int32(p.maxTokens),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(request.Prompt), config)
	duration := time.Since(startTime)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetTag("success", "false")
		logger.Warn("Completion request failed", logger.Fields{
			"provider":    providerNameGemini,
			"model":       p.model,
			"mode":        request.Mode,
			"duration_ms": duration.Milliseconds(),
			"error":       err.Error(),
		})
		return nil, apierr.Wrap(err, apierr.KindCompletion, "AI provider request failed").
			WithDetail(truncateString(err.Error(), maxErrorPreviewChars))
	}

	logger.Debug("Completion finished", logger.Fields{
		"provider":    providerNameGemini,
		"model":       p.model,
		"mode":        request.Mode,
		"duration_ms": duration.Milliseconds(),
	})

	completion, err := p.processGeminiResponse(result)
	if err != nil {
		span.SetTag("success", "false")
		return nil, err
	}
	completion.Duration = duration
	span.SetTag("success", "true")
	return completion, nil
}

// processGeminiResponse maps the first candidate's parts onto content blocks
func (p *GeminiProvider) processGeminiResponse(result *genai.GenerateContentResponse) (*RawCompletion, error) {
	if result == nil || len(result.Candidates) == 0 ||
		result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, apierr.New(apierr.KindEmptyResponse, "No response from AI").WithDetail("gemini returned no candidates")
	}

	parts := result.Candidates[0].Content.Parts
	blocks := make([]ContentBlock, 0, len(parts))
	for _, part := range parts {
		if part == nil {
			continue
		}
		blocks = append(blocks, partToBlock(part))
	}

	completion := &RawCompletion{
		Blocks: blocks,
		Model:  p.model,
	}
	if result.ModelVersion != "" {
		completion.Model = result.ModelVersion
	}
	if usage := result.UsageMetadata; usage != nil {
		completion.Usage = Usage{
			PromptTokens:     int64(usage.PromptTokenCount),
			CompletionTokens: int64(usage.CandidatesTokenCount),
			TotalTokens:      int64(usage.TotalTokenCount),
		}
	}
	return completion, nil
}

func partToBlock(part *genai.Part) ContentBlock {
	switch {
	case part.Thought:
		return ContentBlock{Type: blockTypeThought, Text: part.Text}
	case part.FunctionCall != nil:
		return ContentBlock{Type: blockTypeFunctionCall}
	case part.InlineData != nil:
		return ContentBlock{Type: blockTypeInlineData}
	case part.ExecutableCode != nil:
		return ContentBlock{Type: blockTypeExecutableCode}
	case part.Text != "":
		return ContentBlock{Type: BlockTypeText, Text: part.Text}
	default:
		return ContentBlock{Type: blockTypeUnknown}
	}
}
