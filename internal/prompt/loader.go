package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Conceptual-Machines/lens-atelier-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// GetMagicWordsTemplate parses the magic-word prompt template
func (l *Loader) GetMagicWordsTemplate() (*template.Template, error) {
	return parse("magic_words", embedded.MagicWordsTmpl)
}

// GetTensionSeedsTemplate parses the tension-seed prompt template
func (l *Loader) GetTensionSeedsTemplate() (*template.Template, error) {
	return parse("tension_seeds", embedded.TensionSeedsTmpl)
}

func parse(name string, src []byte) (*template.Template, error) {
	tmpl, err := template.New(name).
		Funcs(templateFuncs).
		Option("missingkey=error").
		Parse(strings.TrimSpace(string(src)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	return tmpl, nil
}
