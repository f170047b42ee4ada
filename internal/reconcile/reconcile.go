// Package reconcile turns untrusted completion content into typed responses.
//
// A completion goes through flattening, fence stripping, a strict JSON parse and
// a full schema check. When the schema check fails the parsed document is
// salvaged item by item: items that pass their structural checks are kept whole,
// the rest are dropped and counted. Zero surviving items is always a failure.
package reconcile

import (
	"encoding/json"
	"fmt"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/apierr"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
	"github.com/go-playground/validator/v10"
)

const maxSnippetChars = 200

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schema describes one expected response shape
type Schema[T any] interface {
	// Name labels the schema in logs and errors
	Name() string
	// Decode strictly decodes and validates the whole document. doc is the
	// same document already parsed; keys must match it exactly.
	Decode(data []byte, doc map[string]any) (T, error)
	// Salvage keeps structurally valid items of a parsed document
	Salvage(doc map[string]any) (payload T, kept, dropped int)
	// Count returns the number of items in a payload
	Count(payload T) int
}

// Outcome is a successful reconciliation. Partial is set when the payload came
// from the salvage pass; Dropped counts discarded items.
type Outcome[T any] struct {
	Payload T
	Items   int
	Dropped int
	Partial bool
}

// Reconciler runs the reconciliation steps for one schema
type Reconciler[T any] struct {
	schema Schema[T]
}

// New creates a reconciler for schema
func New[T any](schema Schema[T]) *Reconciler[T] {
	return &Reconciler[T]{schema: schema}
}

// Reconcile converts a raw completion into an Outcome. Failures are
// *apierr.Error values of kind empty_content, unparsable_content or
// no_salvageable_items.
func (r *Reconciler[T]) Reconcile(raw *llm.RawCompletion) (*Outcome[T], error) {
	content, err := Flatten(raw)
	if err != nil {
		return nil, err
	}

	stripped := StripFences(content)
	data := []byte(stripped)

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apierr.Wrap(err, apierr.KindUnparsableContent, "AI returned malformed JSON").
			WithDetail(snippet(stripped))
	}

	// Both passes need an object; anything else has nothing to keep
	object, ok := doc.(map[string]any)
	if !ok {
		return nil, apierr.New(apierr.KindNoSalvageableItems, "AI produced no usable output").
			WithDetail(fmt.Sprintf("%s: top-level value is not an object", r.schema.Name()))
	}

	payload, decodeErr := r.schema.Decode(data, object)
	if decodeErr == nil {
		items := r.schema.Count(payload)
		if items == 0 {
			return nil, apierr.New(apierr.KindNoSalvageableItems, "AI produced no usable output").
				WithDetail(fmt.Sprintf("%s: response contained no items", r.schema.Name()))
		}
		return &Outcome[T]{Payload: payload, Items: items}, nil
	}

	salvaged, kept, dropped := r.schema.Salvage(object)
	if kept == 0 {
		return nil, apierr.Wrap(decodeErr, apierr.KindNoSalvageableItems, "AI produced no usable output").
			WithDetail(fmt.Sprintf("%s: all %d items failed structural checks", r.schema.Name(), dropped))
	}
	return &Outcome[T]{Payload: salvaged, Items: kept, Dropped: dropped, Partial: true}, nil
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSnippetChars {
		return s
	}
	return string(runes[:maxSnippetChars]) + "..."
}

// salvageArray runs keep over the items of doc[key]. A missing or non-array
// field contributes nothing.
func salvageArray[I any](doc map[string]any, key string, keep func(item map[string]any) (I, bool)) (items []I, dropped int) {
	raw, ok := doc[key].([]any)
	if !ok {
		return nil, 0
	}
	items = make([]I, 0, len(raw))
	for _, candidate := range raw {
		object, ok := candidate.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		item, ok := keep(object)
		if !ok {
			dropped++
			continue
		}
		items = append(items, item)
	}
	return items, dropped
}

// exactArray is the strict form of salvageArray: key must be spelled exactly,
// hold an array, and every item must pass keep.
func exactArray[I any](doc map[string]any, key string, keep func(item map[string]any) (I, bool)) ([]I, error) {
	if _, ok := doc[key].([]any); !ok {
		return nil, fmt.Errorf("field %q missing or not an array", key)
	}
	items, dropped := salvageArray(doc, key, keep)
	if dropped > 0 {
		return nil, fmt.Errorf("%d items in %q failed structural checks", dropped, key)
	}
	return items, nil
}

// stringField returns object[key] when it is present and a string
func stringField(object map[string]any, key string) (string, bool) {
	s, ok := object[key].(string)
	return s, ok
}
