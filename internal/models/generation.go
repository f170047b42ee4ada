package models

// Temperature is the coarse creativity dial sent by the form
type Temperature string

const (
	TemperatureLow    Temperature = "low"
	TemperatureMedium Temperature = "medium"
	TemperatureHigh   Temperature = "high"

	DefaultTemperature = TemperatureMedium
)

// Temperatures lists every accepted temperature in dial order
var Temperatures = []Temperature{TemperatureLow, TemperatureMedium, TemperatureHigh}

// MagicWordRequest is the body of POST /api/magic-words
type MagicWordRequest struct {
	TaskDescription string      `json:"taskDescription" validate:"min=10,max=500"`
	StyleIntent     string      `json:"styleIntent,omitempty" validate:"max=500"`
	Temperature     Temperature `json:"temperature,omitempty" validate:"oneof=low medium high"`
}

// TensionSeedRequest is the body of POST /api/tension-seeds
type TensionSeedRequest struct {
	Theme       string      `json:"theme" validate:"min=5,max=200"`
	TensionAxes []string    `json:"tensionAxes" validate:"min=1,dive,max=100"`
	Temperature Temperature `json:"temperature,omitempty" validate:"oneof=low medium high"`
}

// Lens is one magic word: a steering phrase plus what it does
type Lens struct {
	Name           string `json:"name"`
	EffectLine     string `json:"effect_line"`
	ExampleSnippet string `json:"example_snippet"`
}

// MagicWordResponse is the success body of POST /api/magic-words
type MagicWordResponse struct {
	VerticalLenses   []Lens `json:"vertical_lenses"`
	HorizontalLenses []Lens `json:"horizontal_lenses"`
	// DroppedCount is set when malformed items were discarded during salvage
	DroppedCount int `json:"droppedCount,omitempty"`
}

// TensionSeed is a provocative statement plus follow-up questions
type TensionSeed struct {
	SeedSentence      string   `json:"seedSentence"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

// TensionSeedResponse is the success body of POST /api/tension-seeds
type TensionSeedResponse struct {
	TensionSeeds []TensionSeed `json:"tensionSeeds"`
	DroppedCount int           `json:"droppedCount,omitempty"`
}

// ErrorResponse is the body of every non-2xx generation response
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Details   string `json:"details,omitempty"`
	Field     string `json:"field,omitempty"`
	Rule      string `json:"rule,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string    `json:"status"`
	LLM    HealthLLM `json:"llm"`
}

type HealthLLM struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}
