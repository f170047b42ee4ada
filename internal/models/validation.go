package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field bounds. The struct tags on the request types carry the same numbers;
// TestLimitsMatchTags keeps them in step.
const (
	TaskDescriptionMin = 10
	TaskDescriptionMax = 500
	StyleIntentMax     = 500
	ThemeMin           = 5
	ThemeMax           = 200
	TensionAxisMax     = 100
	TensionAxesMin     = 1
)

// Validation rules reported in ValidationError.Rule
const (
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleMinCount  = "min_count"
	RuleOneOf     = "one_of"
	RuleInvalid   = "invalid"
)

// ValidationError describes the first field that failed validation
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Limit   string `json:"limit,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateMagicWordRequest applies defaults and bounds to a magic-word request.
// The returned request is a copy; the input is not modified.
func ValidateMagicWordRequest(in MagicWordRequest) (MagicWordRequest, error) {
	req := in
	if req.Temperature == "" {
		req.Temperature = DefaultTemperature
	}
	if err := validateStruct(req); err != nil {
		return MagicWordRequest{}, err
	}
	return req, nil
}

// ValidateTensionSeedRequest applies defaults and bounds to a tension-seed request.
// Axes are trimmed and blank ones discarded before the count is checked.
func ValidateTensionSeedRequest(in TensionSeedRequest) (TensionSeedRequest, error) {
	req := TensionSeedRequest{
		Theme:       in.Theme,
		TensionAxes: NormalizeAxes(in.TensionAxes),
		Temperature: in.Temperature,
	}
	if req.Temperature == "" {
		req.Temperature = DefaultTemperature
	}
	if err := validateStruct(req); err != nil {
		return TensionSeedRequest{}, err
	}
	return req, nil
}

// NormalizeAxes trims every axis and drops blank ones, keeping order
func NormalizeAxes(axes []string) []string {
	out := make([]string, 0, len(axes))
	for _, axis := range axes {
		if trimmed := strings.TrimSpace(axis); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Rule: RuleInvalid, Message: err.Error()}
	}
	return toValidationError(fieldErrs[0])
}

func toValidationError(fe validator.FieldError) *ValidationError {
	// Element errors come back as tensionAxes[2]
	field := fe.Field()
	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "min":
		if isCollection {
			return &ValidationError{
				Field:   field,
				Rule:    RuleMinCount,
				Limit:   fe.Param(),
				Message: fmt.Sprintf("%s must contain at least %s non-blank entry", field, fe.Param()),
			}
		}
		return &ValidationError{
			Field:   field,
			Rule:    RuleMinLength,
			Limit:   fe.Param(),
			Message: fmt.Sprintf("%s must be at least %s characters", field, fe.Param()),
		}
	case "max":
		if isCollection {
			return &ValidationError{
				Field:   field,
				Rule:    RuleMaxLength,
				Limit:   fe.Param(),
				Message: fmt.Sprintf("%s must contain at most %s entries", field, fe.Param()),
			}
		}
		return &ValidationError{
			Field:   field,
			Rule:    RuleMaxLength,
			Limit:   fe.Param(),
			Message: fmt.Sprintf("%s must be at most %s characters", field, fe.Param()),
		}
	case "oneof":
		return &ValidationError{
			Field:   field,
			Rule:    RuleOneOf,
			Limit:   fe.Param(),
			Message: fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")),
		}
	default:
		return &ValidationError{
			Field:   field,
			Rule:    RuleInvalid,
			Message: fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()),
		}
	}
}

// FieldLimits describes the bounds of one field
type FieldLimits struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max"`
}

// Limits is the published set of validation bounds
type Limits struct {
	TaskDescription    FieldLimits   `json:"taskDescription"`
	StyleIntent        FieldLimits   `json:"styleIntent"`
	Theme              FieldLimits   `json:"theme"`
	TensionAxis        FieldLimits   `json:"tensionAxis"`
	MinTensionAxes     int           `json:"minTensionAxes"`
	Temperatures       []Temperature `json:"temperatures"`
	DefaultTemperature Temperature   `json:"defaultTemperature"`
}

// CurrentLimits returns the bounds enforced by the validators
func CurrentLimits() Limits {
	return Limits{
		TaskDescription:    FieldLimits{Min: TaskDescriptionMin, Max: TaskDescriptionMax},
		StyleIntent:        FieldLimits{Max: StyleIntentMax},
		Theme:              FieldLimits{Min: ThemeMin, Max: ThemeMax},
		TensionAxis:        FieldLimits{Min: 1, Max: TensionAxisMax},
		MinTensionAxes:     TensionAxesMin,
		Temperatures:       append([]Temperature(nil), Temperatures...),
		DefaultTemperature: DefaultTemperature,
	}
}
