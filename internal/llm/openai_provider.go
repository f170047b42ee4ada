package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/apierr"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/logger"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	// Provider name
	providerNameOpenAI = "openai"

	// Logging limits
	maxErrorPreviewChars = 500
)

// OpenAIProvider implements Provider with the Chat Completions API of any
// OpenAI-compatible gateway
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int64
}

// NewOpenAIProvider creates a new OpenAI provider. An empty baseURL uses the
// SDK default. Extra options are appended after the defaults.
func NewOpenAIProvider(apiKey, baseURL, model string, maxTokens int64, opts ...option.RequestOption) *OpenAIProvider {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// The pipeline never retries a completion; retries belong to the caller
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	client := openai.NewClient(clientOpts...)
	return &OpenAIProvider{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Model returns the configured model
func (p *OpenAIProvider) Model() string {
	return p.model
}

// chatCompletionBody keeps message content as raw JSON, since gateways return
// either a string or an array of typed blocks
type chatCompletionBody struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends the prompt as a single user message in JSON-object mode
func (p *OpenAIProvider) Complete(ctx context.Context, request *CompletionRequest) (*RawCompletion, error) {
	startTime := time.Now()
	logger.Debug("Completion started", logger.Fields{
		"provider":   providerNameOpenAI,
		"model":      p.model,
		"mode":       request.Mode,
		"prompt_len": len(request.Prompt),
	})

	span := sentry.StartSpan(ctx, "llm.complete")
	defer span.Finish()
	span.Description = p.model
	span.SetTag("provider", providerNameOpenAI)
	span.SetTag("model", p.model)
	span.SetTag("mode", request.Mode)

	var body chatCompletionBody
	_, err := p.client.Chat.Completions.New(ctx, p.buildRequestParams(request), option.WithResponseBodyInto(&body))
	duration := time.Since(startTime)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetTag("success", "false")
		logger.Warn("Completion request failed", logger.Fields{
			"provider":    providerNameOpenAI,
			"model":       p.model,
			"mode":        request.Mode,
			"duration_ms": duration.Milliseconds(),
			"error":       err.Error(),
		})
		return nil, wrapOpenAIError(err)
	}

	logger.Debug("Completion finished", logger.Fields{
		"provider":    providerNameOpenAI,
		"model":       p.model,
		"mode":        request.Mode,
		"duration_ms": duration.Milliseconds(),
	})

	if len(body.Choices) == 0 {
		span.SetTag("success", "false")
		return nil, apierr.New(apierr.KindEmptyResponse, "No response from AI").WithDetail("completion has no choices")
	}

	completion, err := decodeMessageContent(body.Choices[0].Message.Content)
	if err != nil {
		span.SetTag("success", "false")
		return nil, err
	}

	completion.Model = body.Model
	if completion.Model == "" {
		completion.Model = p.model
	}
	completion.Duration = duration
	completion.Usage = Usage{
		PromptTokens:     body.Usage.PromptTokens,
		CompletionTokens: body.Usage.CompletionTokens,
		TotalTokens:      body.Usage.TotalTokens,
	}
	span.SetTag("success", "true")
	span.SetData("total_tokens", completion.Usage.TotalTokens)
	return completion, nil
}

// buildRequestParams converts a CompletionRequest to chat completion params
func (p *OpenAIProvider) buildRequestParams(request *CompletionRequest) openai.ChatCompletionNewParams {
	jsonObject := shared.NewResponseFormatJSONObjectParam()
	return openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(request.Prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &jsonObject,
		},
		MaxTokens: openai.Int(p.maxTokens),
	}
}

// decodeMessageContent maps message content (string, block array or null)
// onto a RawCompletion
func decodeMessageContent(raw json.RawMessage) (*RawCompletion, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, apierr.New(apierr.KindEmptyResponse, "No response from AI").WithDetail("message content is null")
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, apierr.Wrap(err, apierr.KindCompletion, "Malformed completion content")
		}
		if text == "" {
			return nil, apierr.New(apierr.KindEmptyResponse, "No response from AI").WithDetail("message content is empty")
		}
		return &RawCompletion{Text: &text}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, apierr.Wrap(err, apierr.KindCompletion, "Malformed completion content")
		}
		if len(items) == 0 {
			return nil, apierr.New(apierr.KindEmptyResponse, "No response from AI").WithDetail("message content has no blocks")
		}
		blocks := make([]ContentBlock, 0, len(items))
		for _, item := range items {
			blocks = append(blocks, decodeBlock(item))
		}
		return &RawCompletion{Blocks: blocks}, nil

	default:
		return nil, apierr.New(apierr.KindCompletion, "Malformed completion content").
			WithDetail("unexpected content: " + truncateString(string(trimmed), maxErrorPreviewChars))
	}
}

// decodeBlock reads one content block; text fields of the wrong type are
// treated as absent
func decodeBlock(raw json.RawMessage) ContentBlock {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ContentBlock{}
	}
	return ContentBlock{
		Type:    stringField(fields, "type"),
		Text:    stringField(fields, "text"),
		Content: stringField(fields, "content"),
	}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// wrapOpenAIError turns any SDK failure into a completion error
func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apierr.Wrap(err, apierr.KindCompletion, "AI provider request failed").
			WithDetail(fmt.Sprintf("provider status %d: %s", apiErr.StatusCode, truncateString(apiErr.Message, maxErrorPreviewChars)))
	}
	return apierr.Wrap(err, apierr.KindCompletion, "AI provider request failed").
		WithDetail(truncateString(err.Error(), maxErrorPreviewChars))
}

// truncateString truncates a string to a maximum length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
