package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/apierr"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if seen != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func completionBody(content string) string {
	return `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "anthropic/claude-haiku-4.5",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": ` + content + `}}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 80, "total_tokens": 200}
	}`
}

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("test-api-key", "", DefaultModel, DefaultMaxTokens)
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())
	assert.Equal(t, DefaultModel, provider.Model())
	assert.NotNil(t, provider.client)
}

func TestOpenAIProvider_BuildRequestParams(t *testing.T) {
	provider := NewOpenAIProvider("test-key", "", "test-model", 1024)

	params := provider.buildRequestParams(&CompletionRequest{Prompt: "write lenses", Mode: "magic_words"})

	assert.Equal(t, "test-model", params.Model)
	require.Len(t, params.Messages, 1)
	require.NotNil(t, params.Messages[0].OfUser)
	assert.Equal(t, "write lenses", params.Messages[0].OfUser.Content.OfString.Value)
	assert.NotNil(t, params.ResponseFormat.OfJSONObject)
	assert.Equal(t, int64(1024), params.MaxTokens.Value)
}

func TestOpenAIProvider_CompleteStringContent(t *testing.T) {
	var seen map[string]any
	server := newGatewayServer(t, http.StatusOK, completionBody(`"{\"tensionSeeds\":[]}"`), &seen)
	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

	completion, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "hello", Mode: "tension_seeds"})
	require.NoError(t, err)

	require.NotNil(t, completion.Text)
	assert.Equal(t, `{"tensionSeeds":[]}`, *completion.Text)
	assert.Nil(t, completion.Blocks)
	assert.Equal(t, "anthropic/claude-haiku-4.5", completion.Model)
	assert.Equal(t, int64(200), completion.Usage.TotalTokens)

	assert.Equal(t, "test-model", seen["model"])
	format, ok := seen["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIProvider_CompleteBlockContent(t *testing.T) {
	content := `[
		{"type": "thinking", "text": "hmm"},
		{"type": "text", "text": "{\"a\":"},
		{"type": "text", "content": "1}"},
		{"type": "text", "text": 42}
	]`
	server := newGatewayServer(t, http.StatusOK, completionBody(content), nil)
	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

	completion, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "hello"})
	require.NoError(t, err)

	assert.Nil(t, completion.Text)
	require.Len(t, completion.Blocks, 4)
	assert.Equal(t, ContentBlock{Type: "thinking", Text: "hmm"}, completion.Blocks[0])
	assert.Equal(t, ContentBlock{Type: BlockTypeText, Text: `{"a":`}, completion.Blocks[1])
	assert.Equal(t, ContentBlock{Type: BlockTypeText, Content: "1}"}, completion.Blocks[2])
	assert.Equal(t, ContentBlock{Type: BlockTypeText}, completion.Blocks[3])
}

func TestOpenAIProvider_CompleteEmptyContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"null content", "null"},
		{"empty string", `""`},
		{"empty block array", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newGatewayServer(t, http.StatusOK, completionBody(tt.content), nil)
			provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

			_, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "hello"})
			require.Error(t, err)
			assert.True(t, apierr.IsKind(err, apierr.KindEmptyResponse))
		})
	}
}

func TestOpenAIProvider_CompleteNoChoices(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK, `{"id":"x","model":"m","choices":[]}`, nil)
	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

	_, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindEmptyResponse))
}

func TestOpenAIProvider_CompleteUnexpectedContent(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK, completionBody(`{"nested": true}`), nil)
	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

	_, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindCompletion))
}

func TestOpenAIProvider_CompleteUpstreamError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)
	_, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "hello"})
	require.Error(t, err)

	apiErr := apierr.As(err)
	assert.Equal(t, apierr.KindCompletion, apiErr.Kind)
	assert.Contains(t, apiErr.Detail, "503")
	assert.Equal(t, 1, calls, "provider must not retry")
}

func TestOpenAIProvider_CompleteHonoursCancellation(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK, completionBody(`"{}"`), nil)
	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Complete(ctx, &CompletionRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindCompletion))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Writer()
	log.SetOutput(&buf)
	logger.SetDevelopment(true)
	t.Cleanup(func() {
		log.SetOutput(previous)
		logger.SetDevelopment(false)
	})
	return &buf
}

func TestOpenAIProvider_CompleteLogsStructuredFields(t *testing.T) {
	buf := captureLog(t)
	server := newGatewayServer(t, http.StatusOK, completionBody(`"{}"`), nil)
	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

	_, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "secret user text", Mode: "magic_words"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] Completion started {mode=magic_words, model=test-model, prompt_len=16, provider=openai}")
	assert.Contains(t, out, "[DEBUG] Completion finished")
	assert.NotContains(t, out, "secret user text")
}

func TestOpenAIProvider_CompleteFailureLogsWarning(t *testing.T) {
	buf := captureLog(t)
	server := newGatewayServer(t, http.StatusBadRequest, `{"error":{"message":"bad","type":"invalid_request_error"}}`, nil)
	provider := NewOpenAIProvider("test-key", server.URL, "test-model", 512)

	_, err := provider.Complete(context.Background(), &CompletionRequest{Prompt: "hello", Mode: "tension_seeds"})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "[WARN] Completion request failed")
	assert.Contains(t, out, "mode=tension_seeds")
	assert.Contains(t, out, "model=test-model")
}
