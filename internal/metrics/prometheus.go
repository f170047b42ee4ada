package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "lens_atelier"

// Prometheus holds the service's Prometheus collectors
type Prometheus struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	GenerationTotal    *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	DroppedItemsTotal  *prometheus.CounterVec
	LLMCallDuration    *prometheus.HistogramVec
	LLMTokensUsed      *prometheus.CounterVec
}

// NewPrometheus registers the collectors on a fresh registry together with
// the Go and process collectors
func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Prometheus{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: promNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),

		GenerationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Subsystem: "generation",
				Name:      "total",
				Help:      "Total number of generations by outcome",
			},
			[]string{"mode", "outcome", "kind"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: promNamespace,
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "Generation pipeline duration in seconds",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 90},
			},
			[]string{"mode"},
		),
		DroppedItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Subsystem: "generation",
				Name:      "dropped_items_total",
				Help:      "Items discarded by the salvage pass",
			},
			[]string{"mode"},
		),
		LLMCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: promNamespace,
				Subsystem: "llm",
				Name:      "call_duration_seconds",
				Help:      "Completion call duration in seconds",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 90},
			},
			[]string{"provider", "model"},
		),
		LLMTokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Subsystem: "llm",
				Name:      "tokens_used_total",
				Help:      "Total tokens used for completion calls",
			},
			[]string{"provider", "model", "type"}, // type: prompt/completion
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Middleware records HTTP request count and latency per route
func (p *Prometheus) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		p.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		p.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordAPIRequest is a no-op; the middleware already counts requests
func (p *Prometheus) RecordAPIRequest(context.Context, string, int, time.Duration) {}

// RecordGeneration records the outcome of a generation
func (p *Prometheus) RecordGeneration(_ context.Context, event GenerationEvent) {
	p.GenerationTotal.WithLabelValues(event.Mode, event.Outcome, event.Kind).Inc()
	p.GenerationDuration.WithLabelValues(event.Mode).Observe(event.Duration.Seconds())
	if event.Dropped > 0 {
		p.DroppedItemsTotal.WithLabelValues(event.Mode).Add(float64(event.Dropped))
	}
	if event.CompletionDuration > 0 {
		p.LLMCallDuration.WithLabelValues(event.Provider, event.Model).Observe(event.CompletionDuration.Seconds())
	}
	if event.TotalTokens > 0 {
		p.LLMTokensUsed.WithLabelValues(event.Provider, event.Model, "prompt").Add(float64(event.PromptTokens))
		p.LLMTokensUsed.WithLabelValues(event.Provider, event.Model, "completion").Add(float64(event.CompletionTokens))
	}
}

// GenerationSummary totals the generations of one mode
type GenerationSummary struct {
	Success      int64 `json:"success"`
	Partial      int64 `json:"partial"`
	Failure      int64 `json:"failure"`
	DroppedItems int64 `json:"dropped_items"`
}

// GenerationSummaries reads the generation counters back from the registry,
// keyed by mode
func (p *Prometheus) GenerationSummaries() (map[string]GenerationSummary, error) {
	families, err := p.registry.Gather()
	if err != nil {
		return nil, err
	}

	totalName := prometheus.BuildFQName(promNamespace, "generation", "total")
	droppedName := prometheus.BuildFQName(promNamespace, "generation", "dropped_items_total")

	summaries := make(map[string]GenerationSummary)
	for _, family := range families {
		if family.GetName() != totalName && family.GetName() != droppedName {
			continue
		}
		for _, m := range family.GetMetric() {
			var mode, outcome string
			for _, label := range m.GetLabel() {
				switch label.GetName() {
				case "mode":
					mode = label.GetValue()
				case "outcome":
					outcome = label.GetValue()
				}
			}
			value := int64(m.GetCounter().GetValue())

			s := summaries[mode]
			if family.GetName() == droppedName {
				s.DroppedItems += value
			} else {
				switch outcome {
				case OutcomeSuccess:
					s.Success += value
				case OutcomePartial:
					s.Partial += value
				case OutcomeFailure:
					s.Failure += value
				}
			}
			summaries[mode] = s
		}
	}
	return summaries, nil
}
