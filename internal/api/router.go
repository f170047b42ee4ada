package api

import (
	"github.com/Conceptual-Machines/lens-atelier-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/lens-atelier-api/internal/api/middleware"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/config"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/metrics"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/observability"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/prompt"
	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the router wires into handlers
type Dependencies struct {
	Config     *config.Config
	Provider   llm.Provider
	Builder    *prompt.Builder
	Prometheus *metrics.Prometheus
	Recorder   metrics.Recorder // Receives API and generation metrics
	Tracer     *observability.Tracer
	Version    string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Recorder))

	router.Use(apimiddleware.CORS(deps.Config.CORSAllowedOrigins))

	if deps.Prometheus != nil {
		router.Use(deps.Prometheus.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Prometheus.Handler()))
	}

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Provider)
	router.GET("/health", healthHandler.HealthCheck)

	// Runtime snapshot with generation totals
	var summarizer handlers.GenerationSummarizer
	if deps.Prometheus != nil {
		summarizer = deps.Prometheus
	}
	metricsHandler := handlers.NewMetricsHandler(deps.Version, deps.Provider, summarizer)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	router.GET("/api/limits", handlers.Limits)

	generationHandler := handlers.NewGenerationHandler(deps.Provider, deps.Builder, handlers.GenerationOptions{
		Recorder:      deps.Recorder,
		Tracer:        deps.Tracer,
		Timeout:       deps.Config.CompletionTimeout,
		ExposeDetails: deps.Config.IsDevelopment(),
	})
	router.POST("/api/magic-words", generationHandler.MagicWords)
	router.POST("/api/tension-seeds", generationHandler.TensionSeeds)

	return router
}
