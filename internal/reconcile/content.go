package reconcile

import (
	"strings"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/apierr"
	"github.com/Conceptual-Machines/lens-atelier-api/internal/llm"
)

const codeFence = "```"

// Flatten returns the textual content of a completion. For block content only
// text-typed blocks count, joined in order; a block's Text wins over Content.
func Flatten(raw *llm.RawCompletion) (string, error) {
	if raw == nil {
		return "", apierr.New(apierr.KindEmptyContent, "AI returned no content")
	}

	var content string
	if raw.Text != nil {
		content = *raw.Text
	} else {
		var sb strings.Builder
		for _, block := range raw.Blocks {
			if block.Type != llm.BlockTypeText {
				continue
			}
			if block.Text != "" {
				sb.WriteString(block.Text)
			} else {
				sb.WriteString(block.Content)
			}
		}
		content = sb.String()
	}

	if strings.TrimSpace(content) == "" {
		return "", apierr.New(apierr.KindEmptyContent, "AI returned no content").
			WithDetail("no text content after flattening")
	}
	return content, nil
}

// StripFences removes a leading markdown fence opener (with or without a
// language tag) and a trailing fence closer. JSON embedded mid-string is left alone.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(content, codeFence); ok {
		content = strings.TrimLeft(rest, languageTagChars)
	}
	content = strings.TrimSuffix(content, codeFence)
	return strings.TrimSpace(content)
}

// Characters a fence language tag may use. JSON never starts with one of these
// except for bare literals, which no response schema accepts.
const languageTagChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_+-"
