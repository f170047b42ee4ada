package metrics

import (
	"context"
	"time"
)

// Generation outcomes
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// GenerationEvent describes one finished generation request
type GenerationEvent struct {
	Mode     string // magic_words or tension_seeds
	Provider string
	Model    string
	Outcome  string
	Kind     string // Failure kind, empty on success

	Items   int
	Dropped int

	Duration           time.Duration // Whole pipeline
	CompletionDuration time.Duration // Provider call only

	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Recorder receives request and generation metrics
type Recorder interface {
	RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
	RecordGeneration(ctx context.Context, event GenerationEvent)
}

// Multi fans every record out to a list of recorders
type Multi []Recorder

// NewMulti builds a Multi, skipping nil recorders
func NewMulti(recorders ...Recorder) Multi {
	m := make(Multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m Multi) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	for _, r := range m {
		r.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}

func (m Multi) RecordGeneration(ctx context.Context, event GenerationEvent) {
	for _, r := range m {
		r.RecordGeneration(ctx, event)
	}
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordAPIRequest(context.Context, string, int, time.Duration) {}
func (Nop) RecordGeneration(context.Context, GenerationEvent)            {}
