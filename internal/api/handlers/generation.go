package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/api/middleware"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/apierr"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/logger"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/metrics"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/observability"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/prompt"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/reconcile"
	"github.com/gin-gonic/gin"
)

// Generation modes
const (
	ModeMagicWords   = "magic_words"
	ModeTensionSeeds = "tension_seeds"
)

const DefaultCompletionTimeout = 90 * time.Second

// GenerationOptions carries the optional collaborators of GenerationHandler
type GenerationOptions struct {
	Recorder      metrics.Recorder
	Tracer        *observability.Tracer
	Timeout       time.Duration // Upper bound for one completion call
	ExposeDetails bool          // Include raw error details in responses (development)
}

// GenerationHandler serves both generation endpoints. Each request runs
// validate, build prompt, complete, reconcile, respond. The handler never
// retries a completion.
type GenerationHandler struct {
	provider     llm.Provider
	builder      *prompt.Builder
	magicWords   *reconcile.Reconciler[models.MagicWordResponse]
	tensionSeeds *reconcile.Reconciler[models.TensionSeedResponse]

	recorder      metrics.Recorder
	tracer        *observability.Tracer
	timeout       time.Duration
	exposeDetails bool
}

// NewGenerationHandler creates the generation handler
func NewGenerationHandler(provider llm.Provider, builder *prompt.Builder, opts GenerationOptions) *GenerationHandler {
	if opts.Recorder == nil {
		opts.Recorder = metrics.Nop{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCompletionTimeout
	}
	return &GenerationHandler{
		provider:      provider,
		builder:       builder,
		magicWords:    reconcile.NewMagicWordReconciler(),
		tensionSeeds:  reconcile.NewTensionSeedReconciler(),
		recorder:      opts.Recorder,
		tracer:        opts.Tracer,
		timeout:       opts.Timeout,
		exposeDetails: opts.ExposeDetails,
	}
}

// MagicWords handles POST /api/magic-words
func (h *GenerationHandler) MagicWords(c *gin.Context) {
	var body models.MagicWordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.rejectBody(c, ModeMagicWords, err)
		return
	}
	req, err := models.ValidateMagicWordRequest(body)
	if err != nil {
		h.rejectInvalid(c, ModeMagicWords, err)
		return
	}

	runGeneration(h, c, generation[models.MagicWordResponse]{
		mode: ModeMagicWords,
		shape: logger.Fields{
			"task_description_len": utf8.RuneCountInString(req.TaskDescription),
			"style_intent_len":     utf8.RuneCountInString(req.StyleIntent),
			"temperature":          string(req.Temperature),
		},
		buildPrompt: func() (string, error) { return h.builder.BuildMagicWordPrompt(req) },
		reconciler:  h.magicWords,
		withDropped: func(resp models.MagicWordResponse, dropped int) models.MagicWordResponse {
			resp.DroppedCount = dropped
			return resp
		},
	})
}

// TensionSeeds handles POST /api/tension-seeds
func (h *GenerationHandler) TensionSeeds(c *gin.Context) {
	var body models.TensionSeedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.rejectBody(c, ModeTensionSeeds, err)
		return
	}
	req, err := models.ValidateTensionSeedRequest(body)
	if err != nil {
		h.rejectInvalid(c, ModeTensionSeeds, err)
		return
	}

	runGeneration(h, c, generation[models.TensionSeedResponse]{
		mode: ModeTensionSeeds,
		shape: logger.Fields{
			"theme_len":   utf8.RuneCountInString(req.Theme),
			"axes_count":  len(req.TensionAxes),
			"temperature": string(req.Temperature),
		},
		buildPrompt: func() (string, error) { return h.builder.BuildTensionSeedPrompt(req) },
		reconciler:  h.tensionSeeds,
		withDropped: func(resp models.TensionSeedResponse, dropped int) models.TensionSeedResponse {
			resp.DroppedCount = dropped
			return resp
		},
	})
}

// generation is the mode-specific part of the pipeline
type generation[T any] struct {
	mode        string
	shape       logger.Fields // Lengths and counts only
	buildPrompt func() (string, error)
	reconciler  *reconcile.Reconciler[T]
	withDropped func(T, int) T
}

func runGeneration[T any](h *GenerationHandler, c *gin.Context, g generation[T]) {
	start := time.Now()
	fields := logger.WithContext(c)
	logger.LogGenerationStart(g.mode, g.shape, fields)

	event := metrics.GenerationEvent{
		Mode:     g.mode,
		Provider: h.provider.Name(),
		Model:    h.provider.Model(),
	}

	promptText, err := g.buildPrompt()
	if err != nil {
		h.fail(c, g.mode, start, event, apierr.Wrap(err, apierr.KindInternal, "Failed to build prompt"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	completionStart := time.Now()
	raw, err := h.provider.Complete(ctx, &llm.CompletionRequest{Prompt: promptText, Mode: g.mode})
	event.CompletionDuration = time.Since(completionStart)

	trace := observability.GenerationTrace{
		RequestID: c.GetString(middleware.RequestIDKey),
		Mode:      g.mode,
		Provider:  event.Provider,
		Model:     event.Model,
		Prompt:    promptText,
		StartTime: completionStart,
		EndTime:   completionStart.Add(event.CompletionDuration),
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && c.Request.Context().Err() == nil {
			err = apierr.Wrap(err, apierr.KindCompletion, "AI request timed out").WithDetail(apierr.As(err).Detail)
		}
		trace.Outcome, trace.Err = metrics.OutcomeFailure, err
		h.tracer.RecordGeneration(trace)
		h.fail(c, g.mode, start, event, err)
		return
	}

	if raw.Model != "" {
		event.Model = raw.Model
		trace.Model = raw.Model
	}
	event.PromptTokens = raw.Usage.PromptTokens
	event.CompletionTokens = raw.Usage.CompletionTokens
	event.TotalTokens = raw.Usage.TotalTokens
	trace.Usage = raw.Usage
	trace.Output, _ = reconcile.Flatten(raw)

	outcome, err := g.reconciler.Reconcile(raw)
	if err != nil {
		trace.Outcome, trace.Err = metrics.OutcomeFailure, err
		h.tracer.RecordGeneration(trace)
		h.fail(c, g.mode, start, event, err)
		return
	}

	event.Outcome = metrics.OutcomeSuccess
	if outcome.Partial {
		event.Outcome = metrics.OutcomePartial
	}
	event.Items = outcome.Items
	event.Dropped = outcome.Dropped
	event.Duration = time.Since(start)

	trace.Outcome, trace.Items, trace.Dropped = event.Outcome, event.Items, event.Dropped
	h.tracer.RecordGeneration(trace)
	h.recorder.RecordGeneration(c.Request.Context(), event)
	logger.LogGenerationSuccess(g.mode, event.Model, event.Duration, event.Items, event.Dropped, raw.Usage.ToMap(), fields)

	if outcome.Dropped > 0 {
		c.Header(middleware.HeaderDroppedItems, strconv.Itoa(outcome.Dropped))
	}
	c.JSON(http.StatusOK, g.withDropped(outcome.Payload, outcome.Dropped))
}

// fail logs and records a pipeline failure, then writes the error body
func (h *GenerationHandler) fail(c *gin.Context, mode string, start time.Time, event metrics.GenerationEvent, err error) {
	apiErr := apierr.As(err)
	event.Outcome = metrics.OutcomeFailure
	event.Kind = string(apiErr.Kind)
	event.Duration = time.Since(start)

	h.recorder.RecordGeneration(c.Request.Context(), event)
	logger.LogGenerationFailure(mode, string(apiErr.Kind), apiErr.Detail, event.Duration, err, logger.WithContext(c))
	h.respondError(c, apiErr)
}

// rejectBody answers a body that could not be decoded at all
func (h *GenerationHandler) rejectBody(c *gin.Context, mode string, err error) {
	verr := &models.ValidationError{Rule: models.RuleInvalid, Message: "Invalid request body"}
	h.rejectInvalid(c, mode, apierr.Wrap(verr, apierr.KindValidation, verr.Message).WithDetail(err.Error()))
}

// rejectInvalid answers a request that failed validation. No completion is made.
func (h *GenerationHandler) rejectInvalid(c *gin.Context, mode string, err error) {
	apiErr := apierr.As(err)
	if apiErr.Kind == apierr.KindInternal {
		apiErr = apierr.Wrap(err, apierr.KindValidation, err.Error())
	}

	fields := logger.WithContext(c)
	fields["mode"] = mode
	fields["error"] = apiErr.Message
	logger.Warn("Generation request rejected", fields)

	h.recorder.RecordGeneration(c.Request.Context(), metrics.GenerationEvent{
		Mode:     mode,
		Provider: h.provider.Name(),
		Model:    h.provider.Model(),
		Outcome:  metrics.OutcomeFailure,
		Kind:     string(apierr.KindValidation),
	})
	h.respondError(c, apiErr)
}

func (h *GenerationHandler) respondError(c *gin.Context, apiErr *apierr.Error) {
	body := models.ErrorResponse{
		Error:     apiErr.Message,
		Kind:      string(apiErr.Kind),
		RequestID: c.GetString(middleware.RequestIDKey),
	}

	var verr *models.ValidationError
	if errors.As(apiErr, &verr) {
		body.Field = verr.Field
		body.Rule = verr.Rule
	}

	if h.exposeDetails {
		body.Details = apiErr.Detail
		if body.Details == "" && apiErr.Err != nil {
			body.Details = apiErr.Err.Error()
		}
	}

	c.JSON(apiErr.Status(), body)
}
