package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/logger"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/metrics"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
	"github.com/gin-gonic/gin"
)

// GenerationSummarizer reports generation totals per mode
type GenerationSummarizer interface {
	GenerationSummaries() (map[string]metrics.GenerationSummary, error)
}

// MetricsHandler serves a JSON snapshot of the running service
type MetricsHandler struct {
	startTime  time.Time
	version    string
	provider   llm.Provider
	summarizer GenerationSummarizer
}

// NewMetricsHandler creates the handler. summarizer may be nil.
func NewMetricsHandler(version string, provider llm.Provider, summarizer GenerationSummarizer) *MetricsHandler {
	return &MetricsHandler{
		startTime:  time.Now(),
		version:    version,
		provider:   provider,
		summarizer: summarizer,
	}
}

type MetricsResponse struct {
	Status      string                               `json:"status"`
	Version     string                               `json:"version"`
	StartTime   string                               `json:"start_time"`
	Uptime      string                               `json:"uptime"`
	Goroutines  int                                  `json:"goroutines"`
	LLM         models.HealthLLM                     `json:"llm"`
	Generations map[string]metrics.GenerationSummary `json:"generations"`
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	generations := map[string]metrics.GenerationSummary{}
	if h.summarizer != nil {
		summaries, err := h.summarizer.GenerationSummaries()
		if err != nil {
			fields := logger.WithContext(c)
			fields["error"] = err.Error()
			logger.Warn("Failed to read generation counters", fields)
		} else {
			generations = summaries
		}
	}

	c.JSON(http.StatusOK, MetricsResponse{
		Status:     "healthy",
		Version:    h.version,
		StartTime:  h.startTime.UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		LLM: models.HealthLLM{
			Provider: h.provider.Name(),
			Model:    h.provider.Model(),
		},
		Generations: generations,
	})
}
