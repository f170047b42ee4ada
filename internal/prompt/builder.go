// Package prompt renders the instructions sent to the completion model.
// Rendering is deterministic: the same request always yields the same bytes.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
)

// magicWordGuidance is selected by temperature, lookup only
var magicWordGuidance = map[models.Temperature]string{
	models.TemperatureLow:    "Be conservative and practical. Focus on well-established, proven terminology.",
	models.TemperatureMedium: "Balance creativity with practicality. Mix conventional and novel approaches.",
	models.TemperatureHigh:   "Be highly creative and unconventional. Push boundaries with unexpected word choices.",
}

var tensionSeedGuidance = map[models.Temperature]string{
	models.TemperatureLow:    "Generate grounded, practical tension seeds with clear real-world applications.",
	models.TemperatureMedium: "Balance provocative ideas with actionable insights. Mix abstract and concrete.",
	models.TemperatureHigh:   "Be bold and provocative. Challenge assumptions and explore unexpected angles.",
}

// Builder builds prompts for both generation modes
type Builder struct {
	loader       *Loader
	magicWords   *template.Template
	tensionSeeds *template.Template

	magicWordExample   string
	tensionSeedExample string
}

// NewPromptBuilder parses the embedded templates once
func NewPromptBuilder() (*Builder, error) {
	loader := NewPromptLoader()

	magicWords, err := loader.GetMagicWordsTemplate()
	if err != nil {
		return nil, err
	}
	tensionSeeds, err := loader.GetTensionSeedsTemplate()
	if err != nil {
		return nil, err
	}

	magicExample, err := renderExample(models.MagicWordResponse{
		VerticalLenses: []models.Lens{{
			Name:           "The lens name (2-4 words)",
			EffectLine:     "One sentence on how this lens deepens the current angle",
			ExampleSnippet: "A complete example prompt snippet using the lens",
		}},
		HorizontalLenses: []models.Lens{{
			Name:           "The lens name (2-4 words)",
			EffectLine:     "One sentence on the alternate angle this lens opens",
			ExampleSnippet: "A complete example prompt snippet using the lens",
		}},
	})
	if err != nil {
		return nil, err
	}
	seedExample, err := renderExample(models.TensionSeedResponse{
		TensionSeeds: []models.TensionSeed{{
			SeedSentence: "A provocative, tweet-worthy statement",
			FollowUpQuestions: []string{
				"First follow-up question to deepen exploration",
				"Second follow-up question to expand thinking",
			},
		}},
	})
	if err != nil {
		return nil, err
	}

	return &Builder{
		loader:             loader,
		magicWords:         magicWords,
		tensionSeeds:       tensionSeeds,
		magicWordExample:   magicExample,
		tensionSeedExample: seedExample,
	}, nil
}

// MagicWordGuidance returns the guidance line for a temperature
func MagicWordGuidance(t models.Temperature) string {
	if g, ok := magicWordGuidance[t]; ok {
		return g
	}
	return magicWordGuidance[models.DefaultTemperature]
}

// TensionSeedGuidance returns the guidance line for a temperature
func TensionSeedGuidance(t models.Temperature) string {
	if g, ok := tensionSeedGuidance[t]; ok {
		return g
	}
	return tensionSeedGuidance[models.DefaultTemperature]
}

// BuildMagicWordPrompt renders the prompt for a validated magic-word request
func (b *Builder) BuildMagicWordPrompt(req models.MagicWordRequest) (string, error) {
	return execute(b.magicWords, map[string]any{
		"TaskDescription": req.TaskDescription,
		"StyleIntent":     req.StyleIntent,
		"Guidance":        MagicWordGuidance(req.Temperature),
		"Example":         b.magicWordExample,
	})
}

// BuildTensionSeedPrompt renders the prompt for a validated tension-seed request
func (b *Builder) BuildTensionSeedPrompt(req models.TensionSeedRequest) (string, error) {
	return execute(b.tensionSeeds, map[string]any{
		"Theme":       req.Theme,
		"TensionAxes": req.TensionAxes,
		"Guidance":    TensionSeedGuidance(req.Temperature),
		"Example":     b.tensionSeedExample,
	})
}

func execute(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// renderExample pretty-prints a response value so the keys in the prompt
// always match the response types.
func renderExample(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to render example: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
