package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/api"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/config"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/logger"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/metrics"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/observability"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/prompt"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout = 2 * time.Second
	shutdownTimeout    = 10 * time.Second
	readHeaderTimeout  = 10 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logger.SetDevelopment(cfg.IsDevelopment())

	sentryEnabled := initSentry(cfg)
	if sentryEnabled {
		defer sentry.Flush(sentryFlushTimeout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The provider is fixed for the lifetime of the process
	provider, err := llm.NewProviderFactory(llm.ProviderConfig{
		Provider:     cfg.LLMProvider,
		Model:        cfg.LLMModel,
		MaxTokens:    cfg.LLMMaxTokens,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIURL:    cfg.OpenAIBaseURL,
		GeminiAPIKey: cfg.GeminiAPIKey,
	}).GetProvider(ctx)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to create LLM provider: ", err)
	}
	log.Printf("✅ LLM provider: %s (model: %s)", provider.Name(), provider.Model())

	builder, err := prompt.NewPromptBuilder()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to load prompt templates: ", err)
	}

	prom := metrics.NewPrometheus()
	cloudWatch := metrics.NewCloudWatch(ctx, cfg.Environment, cfg.CloudWatchEnabled)
	recorder := metrics.NewMulti(metrics.NewSentryMetrics(sentryEnabled), cloudWatch, prom)
	tracer := observability.NewTracer(ctx, cfg.LangfuseEnabled, cfg.LangfuseSecretKey, cfg.LangfuseHost)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Dependencies{
		Config:     cfg,
		Provider:   provider,
		Builder:    builder,
		Prometheus: prom,
		Recorder:   recorder,
		Tracer:     tracer,
		Version:    GetVersion(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Printf("🚀 Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	tracer.Flush(shutdownCtx)
	cloudWatch.Wait()
	log.Println("Server stopped")
}

// initSentry reports whether Sentry was configured
func initSentry(cfg *config.Config) bool {
	if cfg.SentryDSN == "" {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
		return false
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "lens-atelier-api@" + releaseVersion,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		EnableLogs:       true,
		Debug:            !cfg.IsProduction(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				// Request bodies carry user text
				event.Request.Data = ""
			}
			return event
		},
	})
	if err != nil {
		log.Printf("Failed to initialize Sentry: %v", err)
		return false
	}

	log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
	return true
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
