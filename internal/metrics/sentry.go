package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics records metrics as Sentry spans
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics recorder
func NewSentryMetrics(enabled bool) *SentryMetrics {
	return &SentryMetrics{enabled: enabled}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration tags the request transaction with the generation outcome
// and adds a child span carrying token usage
func (m *SentryMetrics) RecordGeneration(ctx context.Context, event GenerationEvent) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("generation.mode", event.Mode)
		transaction.SetTag("generation.outcome", event.Outcome)
		transaction.SetTag("llm.model", event.Model)
		if event.Kind != "" {
			transaction.SetTag("generation.kind", event.Kind)
		}
	}

	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("mode", event.Mode)
	span.SetTag("outcome", event.Outcome)
	span.SetTag("provider", event.Provider)
	span.SetData("duration_ms", event.Duration.Milliseconds())
	span.SetData("completion_ms", event.CompletionDuration.Milliseconds())
	span.SetData("items", event.Items)
	span.SetData("dropped", event.Dropped)
	span.SetData("total_tokens", event.TotalTokens)
	span.SetData("input_tokens", event.PromptTokens)
	span.SetData("output_tokens", event.CompletionTokens)

	if event.Outcome == OutcomeFailure {
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Description = fmt.Sprintf("Generation %s: %s", event.Mode, event.Outcome)
}
