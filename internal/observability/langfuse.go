package observability

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
)

const levelError = "ERROR"

// langfuseAPI is the subset of the Langfuse SDK the tracer uses
type langfuseAPI interface {
	Trace(t *model.Trace) (*model.Trace, error)
	Generation(g *model.Generation, parentID *string) (*model.Generation, error)
	GenerationEnd(g *model.Generation) (*model.Generation, error)
	Flush(ctx context.Context)
}

// Tracer records completions in Langfuse. A disabled tracer does nothing.
type Tracer struct {
	client  langfuseAPI
	enabled bool
}

// NewTracer creates a tracer. The SDK reads LANGFUSE_PUBLIC_KEY,
// LANGFUSE_SECRET_KEY and LANGFUSE_HOST from the environment.
func NewTracer(ctx context.Context, enabled bool, secretKey, host string) *Tracer {
	if !enabled || secretKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY not set)")
		return &Tracer{}
	}

	log.Printf("✅ Langfuse initialized (host: %s)", host)
	return &Tracer{client: langfuse.New(ctx), enabled: true}
}

// IsEnabled returns whether Langfuse is enabled
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled && t.client != nil
}

// GenerationTrace is one completion call as seen by the pipeline
type GenerationTrace struct {
	RequestID string
	Mode      string
	Provider  string
	Model     string
	Prompt    string
	Output    string // Raw completion text, before reconciliation
	Usage     llm.Usage
	StartTime time.Time
	EndTime   time.Time
	Outcome   string
	Items     int
	Dropped   int
	Err       error
}

// RecordGeneration sends a trace with a single generation. Events are queued by
// the SDK and sent in the background; Flush drains them.
func (t *Tracer) RecordGeneration(gt GenerationTrace) {
	if !t.IsEnabled() {
		return
	}

	trace, err := t.client.Trace(&model.Trace{
		Name: gt.Mode,
		Metadata: map[string]interface{}{
			"request_id": gt.RequestID,
			"provider":   gt.Provider,
		},
		Tags: []string{gt.Mode, gt.Provider},
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return
	}

	start, end := gt.StartTime, gt.EndTime
	gen, err := t.client.Generation(&model.Generation{
		TraceID:   trace.ID,
		Name:      gt.Mode + ".completion",
		StartTime: &start,
		Model:     gt.Model,
		Input:     gt.Prompt,
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
		return
	}

	cost := CalculateCost(gt.Model, gt.Usage)
	metadata := map[string]interface{}{
		"outcome":  gt.Outcome,
		"items":    gt.Items,
		"dropped":  gt.Dropped,
		"cost_usd": FormatCost(cost),
	}
	if gt.Err != nil {
		metadata["error"] = gt.Err.Error()
		gen.Level = model.ObservationLevel(levelError)
	}

	if gt.Output != "" {
		gen.Output = gt.Output
	}
	gen.EndTime = &end
	gen.Usage = model.Usage{
		Input:     int(gt.Usage.PromptTokens),
		Output:    int(gt.Usage.CompletionTokens),
		Total:     int(gt.Usage.TotalTokens),
		Unit:      model.ModelUsageUnitTokens,
		TotalCost: cost,
	}
	gen.Metadata = metadata

	if _, err := t.client.GenerationEnd(gen); err != nil {
		log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
	}
}

// Flush waits for queued events to be sent
func (t *Tracer) Flush(ctx context.Context) {
	if t.IsEnabled() {
		t.client.Flush(ctx)
	}
}
