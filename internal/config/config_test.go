package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		keyEnvironment, keyPort, keyLLMProvider, keyLLMModel, keyLLMMaxTokens,
		keyCompletionTimeout, keyCORSAllowedOrigins, keyLangfuseEnabled, keyCloudWatchEnabled,
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, int64(4096), cfg.LLMMaxTokens)
	assert.Equal(t, 90*time.Second, cfg.CompletionTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.AllowAllOrigins())
	assert.False(t, cfg.LangfuseEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(keyEnvironment, "Production")
	t.Setenv(keyPort, "9090")
	t.Setenv(keyLLMProvider, "GEMINI")
	t.Setenv(keyLLMModel, "gemini-2.5-pro")
	t.Setenv(keyLLMMaxTokens, "2048")
	t.Setenv(keyOpenAIBaseURL, "https://gateway.example.com/v1")
	t.Setenv(keyOpenAIAPIKey, "sk-test")
	t.Setenv(keyCompletionTimeout, "45s")
	t.Setenv(keyCORSAllowedOrigins, "https://a.example.com, https://b.example.com ,")
	t.Setenv(keyLangfuseEnabled, "true")
	t.Setenv(keyCloudWatchEnabled, "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLMModel)
	assert.Equal(t, int64(2048), cfg.LLMMaxTokens)
	assert.Equal(t, "https://gateway.example.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 45*time.Second, cfg.CompletionTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AllowAllOrigins())
	assert.True(t, cfg.LangfuseEnabled)
	assert.True(t, cfg.CloudWatchEnabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		t.Setenv(keyCompletionTimeout, "soon")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), keyCompletionTimeout)
	})

	t.Run("max tokens", func(t *testing.T) {
		t.Setenv(keyLLMMaxTokens, "-1")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), keyLLMMaxTokens)
	})
}
