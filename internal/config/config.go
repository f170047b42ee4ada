package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the application configuration.
// The service is stateless: no database, sessions or user secrets.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM
	LLMProvider       string // openai (default) or gemini
	LLMModel          string
	LLMMaxTokens      int64
	OpenAIBaseURL     string // OpenAI-compatible gateway
	OpenAIAPIKey      string
	GeminiAPIKey      string
	CompletionTimeout time.Duration

	// HTTP
	CORSAllowedOrigins []string

	// Observability
	SentryDSN         string
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string
	LangfuseEnabled   bool // Opt-in: prompts carry user text
	CloudWatchEnabled bool
}

// Environment variable names
const (
	keyEnvironment        = "ENVIRONMENT"
	keyPort               = "PORT"
	keyLLMProvider        = "LLM_PROVIDER"
	keyLLMModel           = "LLM_MODEL"
	keyLLMMaxTokens       = "LLM_MAX_TOKENS"
	keyOpenAIBaseURL      = "AI_INTEGRATIONS_OPENAI_BASE_URL"
	keyOpenAIAPIKey       = "AI_INTEGRATIONS_OPENAI_API_KEY"
	keyGeminiAPIKey       = "GEMINI_API_KEY"
	keyCompletionTimeout  = "COMPLETION_TIMEOUT"
	keyCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	keySentryDSN          = "SENTRY_DSN"
	keyLangfusePublicKey  = "LANGFUSE_PUBLIC_KEY"
	keyLangfuseSecretKey  = "LANGFUSE_SECRET_KEY"
	keyLangfuseHost       = "LANGFUSE_HOST"
	keyLangfuseEnabled    = "LANGFUSE_ENABLED"
	keyCloudWatchEnabled  = "CLOUDWATCH_ENABLED"
)

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	timeout := v.GetDuration(keyCompletionTimeout)
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid %s: %q", keyCompletionTimeout, v.GetString(keyCompletionTimeout))
	}

	maxTokens := v.GetInt64(keyLLMMaxTokens)
	if maxTokens <= 0 {
		return nil, fmt.Errorf("invalid %s: %q", keyLLMMaxTokens, v.GetString(keyLLMMaxTokens))
	}

	cfg := &Config{
		Environment:        strings.ToLower(v.GetString(keyEnvironment)),
		Port:               v.GetString(keyPort),
		LLMProvider:        strings.ToLower(v.GetString(keyLLMProvider)),
		LLMModel:           v.GetString(keyLLMModel),
		LLMMaxTokens:       maxTokens,
		OpenAIBaseURL:      v.GetString(keyOpenAIBaseURL),
		OpenAIAPIKey:       v.GetString(keyOpenAIAPIKey),
		GeminiAPIKey:       v.GetString(keyGeminiAPIKey),
		CompletionTimeout:  timeout,
		CORSAllowedOrigins: splitList(v.GetString(keyCORSAllowedOrigins)),
		SentryDSN:          v.GetString(keySentryDSN),
		LangfusePublicKey:  v.GetString(keyLangfusePublicKey),
		LangfuseSecretKey:  v.GetString(keyLangfuseSecretKey),
		LangfuseHost:       v.GetString(keyLangfuseHost),
		LangfuseEnabled:    v.GetBool(keyLangfuseEnabled),
		CloudWatchEnabled:  v.GetBool(keyCloudWatchEnabled),
	}
	return cfg, nil
}

// MustLoad loads the configuration, panicking on error
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyEnvironment, EnvDevelopment)
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyLLMProvider, "openai")
	v.SetDefault(keyLLMModel, "")
	v.SetDefault(keyLLMMaxTokens, 4096)
	v.SetDefault(keyOpenAIBaseURL, "")
	v.SetDefault(keyOpenAIAPIKey, "")
	v.SetDefault(keyGeminiAPIKey, "")
	v.SetDefault(keyCompletionTimeout, "90s")
	v.SetDefault(keyCORSAllowedOrigins, "*")
	v.SetDefault(keySentryDSN, "")
	v.SetDefault(keyLangfusePublicKey, "")
	v.SetDefault(keyLangfuseSecretKey, "")
	v.SetDefault(keyLangfuseHost, "https://cloud.langfuse.com")
	v.SetDefault(keyLangfuseEnabled, false)
	v.SetDefault(keyCloudWatchEnabled, false)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDevelopment reports whether raw error details may be returned to callers
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// IsProduction returns true in production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// AllowAllOrigins reports whether CORS is open to any origin
func (c *Config) AllowAllOrigins() bool {
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
