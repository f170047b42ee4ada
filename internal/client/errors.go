package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/apierr"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
)

// ErrorKind discriminates request failures
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // Rejected locally before sending
	KindTimedOut   ErrorKind = "timed_out"
	KindTransport  ErrorKind = "transport"
	KindCanceled   ErrorKind = "canceled"
	KindHTTP       ErrorKind = "http" // Non-2xx response
	KindEncode     ErrorKind = "encode"
	KindDecode     ErrorKind = "decode"
)

// Error is a failed API call
type Error struct {
	Kind       ErrorKind
	Status     int    // HTTP status for KindHTTP
	ServerKind string // Error kind reported by the server, if any
	Field      string
	Rule       string
	Message    string
	RequestID  string
	Err        error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %d: %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(err error) *Error {
	e := &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		e.Field = verr.Field
		e.Rule = verr.Rule
	}
	return e
}

// FriendlyError is a message suitable for showing to a person
type FriendlyError struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Friendly maps any error returned by Client to a FriendlyError
func Friendly(err error) FriendlyError {
	var e *Error
	if !errors.As(err, &e) {
		return FriendlyError{
			Title:       "Something went wrong",
			Description: "An unknown error occurred. Please try again.",
			Suggestion:  "If the problem persists, reload the page and retry.",
		}
	}

	switch e.Kind {
	case KindValidation:
		return friendlyValidation(e)
	case KindTimedOut:
		return FriendlyError{
			Title:       "Request timed out",
			Description: "The AI took too long to respond.",
			Suggestion:  "Try a shorter input, or retry in a moment.",
		}
	case KindTransport:
		return FriendlyError{
			Title:       "Network connection failed",
			Description: "Could not connect to the server. Check your network connection.",
			Suggestion:  "Retry later or check your network settings.",
		}
	case KindCanceled:
		return FriendlyError{
			Title:       "Request canceled",
			Description: "The request was canceled before it finished.",
		}
	case KindHTTP:
		return friendlyHTTP(e)
	case KindEncode:
		return FriendlyError{
			Title:       "Invalid input",
			Description: "The form data could not be prepared for sending.",
			Suggestion:  "Check your input and try again.",
		}
	case KindDecode:
		return FriendlyError{
			Title:       "Unexpected server response",
			Description: "The server answered in an unexpected format.",
			Suggestion:  "Retry, and contact support if it keeps happening.",
		}
	default:
		return FriendlyError{
			Title:       "Request failed",
			Description: e.Message,
			Suggestion:  "Please retry.",
		}
	}
}

func friendlyHTTP(e *Error) FriendlyError {
	if e.Status == http.StatusBadRequest {
		return friendlyValidation(e)
	}

	switch apierr.Kind(e.ServerKind) {
	case apierr.KindUnparsableContent, apierr.KindEmptyContent:
		return FriendlyError{
			Title:       "AI response format problem",
			Description: "The AI returned content in an unexpected format.",
			Suggestion:  "Generate again, or adjust your input.",
		}
	case apierr.KindNoSalvageableItems, apierr.KindEmptyResponse:
		return FriendlyError{
			Title:       "Generation failed",
			Description: "The AI did not produce any usable results.",
			Suggestion:  "Adjust the description or lower the temperature.",
		}
	}

	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return FriendlyError{
			Title:       "Access denied",
			Description: "Insufficient permission to use the API.",
			Suggestion:  "Ask an administrator to check the configuration.",
		}
	case http.StatusTooManyRequests:
		return FriendlyError{
			Title:       "Too many requests",
			Description: "You have exceeded the request limit.",
			Suggestion:  "Wait a moment before trying again.",
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return FriendlyError{
			Title:       "Server error",
			Description: "The server could not handle the request right now.",
			Suggestion:  "Retry later, and contact support if it persists.",
		}
	default:
		return FriendlyError{
			Title:       fmt.Sprintf("Request failed (%d)", e.Status),
			Description: e.Message,
			Suggestion:  "Please retry or contact support.",
		}
	}
}

// friendlyValidation gives field-specific hints for rejected input
func friendlyValidation(e *Error) FriendlyError {
	field := e.Field
	if strings.HasPrefix(field, "tensionAxes[") {
		field = "tensionAxis"
	}

	switch {
	case field == "taskDescription" && e.Rule == models.RuleMinLength:
		return FriendlyError{
			Title:       "Task description is too short",
			Description: fmt.Sprintf("Enter at least %d characters describing the task.", models.TaskDescriptionMin),
			Suggestion:  "More context helps generate sharper magic words.",
		}
	case (field == "taskDescription" || field == "styleIntent") && e.Rule == models.RuleMaxLength:
		return FriendlyError{
			Title:       "Input is too long",
			Description: "The task description or style intent exceeds the character limit.",
			Suggestion:  fmt.Sprintf("Keep it within %d characters.", models.TaskDescriptionMax),
		}
	case field == "theme" && e.Rule == models.RuleMinLength:
		return FriendlyError{
			Title:       "Theme is too short",
			Description: fmt.Sprintf("Enter a theme of at least %d characters.", models.ThemeMin),
			Suggestion:  "A clear theme produces stronger tension seeds.",
		}
	case field == "tensionAxes" && e.Rule == models.RuleMinCount:
		return FriendlyError{
			Title:       "Missing tension axis",
			Description: "At least one non-blank tension axis is required.",
			Suggestion:  `Add opposing concepts, such as "efficiency vs quality".`,
		}
	case field == "tensionAxis" && e.Rule == models.RuleMaxLength:
		return FriendlyError{
			Title:       "Tension axis is too long",
			Description: fmt.Sprintf("A single tension axis exceeds the %d character limit.", models.TensionAxisMax),
			Suggestion:  `Use a concise pair of opposites, like "A vs B".`,
		}
	}

	description := e.Message
	if description == "" {
		description = "The submitted data is not in the expected format."
	}
	return FriendlyError{
		Title:       "Input validation failed",
		Description: description,
		Suggestion:  "Check the format and length of each field.",
	}
}
