package prompt

import (
	"strings"
	"testing"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	builder, err := NewPromptBuilder()
	require.NoError(t, err)
	require.NotNil(t, builder)
	return builder
}

func TestNewPromptBuilder(t *testing.T) {
	builder := newBuilder(t)
	assert.NotNil(t, builder.loader)
	assert.NotNil(t, builder.magicWords)
	assert.NotNil(t, builder.tensionSeeds)
}

func TestBuildMagicWordPromptIsDeterministic(t *testing.T) {
	builder := newBuilder(t)
	req := models.MagicWordRequest{
		TaskDescription: "Write a product launch announcement",
		StyleIntent:     "playful but precise",
		Temperature:     models.TemperatureHigh,
	}

	first, err := builder.BuildMagicWordPrompt(req)
	require.NoError(t, err)
	second, err := builder.BuildMagicWordPrompt(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// A second builder renders the same bytes too
	other, err := newBuilder(t).BuildMagicWordPrompt(req)
	require.NoError(t, err)
	assert.Equal(t, first, other)
}

func TestBuildMagicWordPromptContents(t *testing.T) {
	builder := newBuilder(t)
	prompt, err := builder.BuildMagicWordPrompt(models.MagicWordRequest{
		TaskDescription: "Summarize <quarterly> results & risks",
		Temperature:     models.TemperatureLow,
	})
	require.NoError(t, err)

	// Fields are inserted verbatim, without escaping
	assert.Contains(t, prompt, "Summarize <quarterly> results & risks")
	assert.Contains(t, prompt, "Not specified - use your judgment")
	assert.Contains(t, prompt, MagicWordGuidance(models.TemperatureLow))
	assert.NotContains(t, prompt, MagicWordGuidance(models.TemperatureHigh))

	for _, key := range []string{`"vertical_lenses"`, `"horizontal_lenses"`, `"name"`, `"effect_line"`, `"example_snippet"`} {
		assert.Contains(t, prompt, key)
	}
	assert.NotContains(t, prompt, "droppedCount")
	assert.True(t, strings.HasSuffix(prompt, "Return ONLY the JSON object, no additional text."))
}

func TestBuildTensionSeedPrompt(t *testing.T) {
	builder := newBuilder(t)
	req := models.TensionSeedRequest{
		Theme:       "AI ethics",
		TensionAxes: []string{"efficiency vs fairness", "privacy vs personalization"},
		Temperature: models.TemperatureMedium,
	}

	prompt, err := builder.BuildTensionSeedPrompt(req)
	require.NoError(t, err)
	again, err := builder.BuildTensionSeedPrompt(req)
	require.NoError(t, err)
	assert.Equal(t, prompt, again)

	assert.Contains(t, prompt, "AI ethics")
	assert.Contains(t, prompt, "1. efficiency vs fairness\n2. privacy vs personalization\n")
	assert.Contains(t, prompt, TensionSeedGuidance(models.TemperatureMedium))
	assert.Contains(t, prompt, `"tensionSeeds"`)
	assert.Contains(t, prompt, `"seedSentence"`)
	assert.Contains(t, prompt, `"followUpQuestions"`)
	assert.True(t, strings.HasSuffix(prompt, "Return ONLY the JSON object, no additional text."))
}

func TestGuidanceTables(t *testing.T) {
	seen := map[string]bool{}
	for _, temp := range models.Temperatures {
		g := MagicWordGuidance(temp)
		assert.NotEmpty(t, g)
		assert.False(t, seen[g], "guidance must differ per temperature")
		seen[g] = true
		assert.NotEmpty(t, TensionSeedGuidance(temp))
	}

	// Unknown values fall back to the default dial position
	assert.Equal(t, MagicWordGuidance(models.DefaultTemperature), MagicWordGuidance("weird"))
	assert.Equal(t, TensionSeedGuidance(models.DefaultTemperature), TensionSeedGuidance(""))
}

func TestTemperatureChangesPrompt(t *testing.T) {
	builder := newBuilder(t)
	base := models.MagicWordRequest{TaskDescription: "Draft a eulogy for a houseplant"}

	low := base
	low.Temperature = models.TemperatureLow
	high := base
	high.Temperature = models.TemperatureHigh

	lowPrompt, err := builder.BuildMagicWordPrompt(low)
	require.NoError(t, err)
	highPrompt, err := builder.BuildMagicWordPrompt(high)
	require.NoError(t, err)
	assert.NotEqual(t, lowPrompt, highPrompt)
}
