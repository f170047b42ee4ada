package reconcile

import (
	"encoding/json"
	"fmt"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
)

// Response field names
const (
	fieldVerticalLenses   = "vertical_lenses"
	fieldHorizontalLenses = "horizontal_lenses"
	fieldName             = "name"
	fieldEffectLine       = "effect_line"
	fieldExampleSnippet   = "example_snippet"
	fieldTensionSeeds     = "tensionSeeds"
	fieldSeedSentence     = "seedSentence"
	fieldFollowUps        = "followUpQuestions"
)

// Wire documents use pointers so a missing field fails `required` while an
// empty string still counts as present.
type lensDoc struct {
	Name           *string `json:"name" validate:"required"`
	EffectLine     *string `json:"effect_line" validate:"required"`
	ExampleSnippet *string `json:"example_snippet" validate:"required"`
}

type magicWordsDoc struct {
	VerticalLenses   []lensDoc `json:"vertical_lenses" validate:"required,dive"`
	HorizontalLenses []lensDoc `json:"horizontal_lenses" validate:"required,dive"`
}

type tensionSeedDoc struct {
	SeedSentence      *string   `json:"seedSentence" validate:"required"`
	FollowUpQuestions []*string `json:"followUpQuestions" validate:"required,min=1,dive,required"`
}

type tensionSeedsDoc struct {
	TensionSeeds []tensionSeedDoc `json:"tensionSeeds" validate:"required,dive"`
}

// decodeAndValidate checks types and presence. json.Unmarshal matches keys
// case-insensitively, so callers also walk the parsed document with exact keys.
func decodeAndValidate(data []byte, doc any) error {
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("schema decode: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

// MagicWordSchema is the vertical/horizontal lens response shape
type MagicWordSchema struct{}

func (MagicWordSchema) Name() string { return "magic_words" }

func (MagicWordSchema) Decode(data []byte, parsed map[string]any) (models.MagicWordResponse, error) {
	var doc magicWordsDoc
	if err := decodeAndValidate(data, &doc); err != nil {
		return models.MagicWordResponse{}, err
	}
	vertical, err := exactArray(parsed, fieldVerticalLenses, salvageLens)
	if err != nil {
		return models.MagicWordResponse{}, fmt.Errorf("schema keys: %w", err)
	}
	horizontal, err := exactArray(parsed, fieldHorizontalLenses, salvageLens)
	if err != nil {
		return models.MagicWordResponse{}, fmt.Errorf("schema keys: %w", err)
	}
	return models.MagicWordResponse{VerticalLenses: vertical, HorizontalLenses: horizontal}, nil
}

func (MagicWordSchema) Salvage(doc map[string]any) (models.MagicWordResponse, int, int) {
	vertical, droppedVertical := salvageArray(doc, fieldVerticalLenses, salvageLens)
	horizontal, droppedHorizontal := salvageArray(doc, fieldHorizontalLenses, salvageLens)

	payload := models.MagicWordResponse{
		VerticalLenses:   nonNil(vertical),
		HorizontalLenses: nonNil(horizontal),
	}
	return payload, len(vertical) + len(horizontal), droppedVertical + droppedHorizontal
}

func (MagicWordSchema) Count(payload models.MagicWordResponse) int {
	return len(payload.VerticalLenses) + len(payload.HorizontalLenses)
}

func salvageLens(item map[string]any) (models.Lens, bool) {
	name, ok := stringField(item, fieldName)
	if !ok {
		return models.Lens{}, false
	}
	effect, ok := stringField(item, fieldEffectLine)
	if !ok {
		return models.Lens{}, false
	}
	example, ok := stringField(item, fieldExampleSnippet)
	if !ok {
		return models.Lens{}, false
	}
	return models.Lens{Name: name, EffectLine: effect, ExampleSnippet: example}, true
}

// TensionSeedSchema is the tension seed response shape
type TensionSeedSchema struct{}

func (TensionSeedSchema) Name() string { return "tension_seeds" }

func (TensionSeedSchema) Decode(data []byte, parsed map[string]any) (models.TensionSeedResponse, error) {
	var doc tensionSeedsDoc
	if err := decodeAndValidate(data, &doc); err != nil {
		return models.TensionSeedResponse{}, err
	}
	seeds, err := exactArray(parsed, fieldTensionSeeds, exactSeed)
	if err != nil {
		return models.TensionSeedResponse{}, fmt.Errorf("schema keys: %w", err)
	}
	return models.TensionSeedResponse{TensionSeeds: seeds}, nil
}

func (TensionSeedSchema) Salvage(doc map[string]any) (models.TensionSeedResponse, int, int) {
	seeds, dropped := salvageArray(doc, fieldTensionSeeds, salvageSeed)
	return models.TensionSeedResponse{TensionSeeds: nonNil(seeds)}, len(seeds), dropped
}

func (TensionSeedSchema) Count(payload models.TensionSeedResponse) int {
	return len(payload.TensionSeeds)
}

// salvageSeed keeps the string follow-up questions of a seed. A seed left
// without any question is dropped.
func salvageSeed(item map[string]any) (models.TensionSeed, bool) {
	sentence, ok := stringField(item, fieldSeedSentence)
	if !ok {
		return models.TensionSeed{}, false
	}
	rawQuestions, ok := item[fieldFollowUps].([]any)
	if !ok {
		return models.TensionSeed{}, false
	}
	questions := make([]string, 0, len(rawQuestions))
	for _, q := range rawQuestions {
		if s, ok := q.(string); ok {
			questions = append(questions, s)
		}
	}
	if len(questions) == 0 {
		return models.TensionSeed{}, false
	}
	return models.TensionSeed{SeedSentence: sentence, FollowUpQuestions: questions}, true
}

// exactSeed accepts a seed only when every follow-up question is a string
func exactSeed(item map[string]any) (models.TensionSeed, bool) {
	seed, ok := salvageSeed(item)
	if !ok {
		return models.TensionSeed{}, false
	}
	rawQuestions, _ := item[fieldFollowUps].([]any)
	return seed, len(seed.FollowUpQuestions) == len(rawQuestions)
}

func nonNil[I any](items []I) []I {
	if items == nil {
		return []I{}
	}
	return items
}

// NewMagicWordReconciler returns the reconciler for POST /api/magic-words
func NewMagicWordReconciler() *Reconciler[models.MagicWordResponse] {
	return New[models.MagicWordResponse](MagicWordSchema{})
}

// NewTensionSeedReconciler returns the reconciler for POST /api/tension-seeds
func NewTensionSeedReconciler() *Reconciler[models.TensionSeedResponse] {
	return New[models.TensionSeedResponse](TensionSeedSchema{})
}
