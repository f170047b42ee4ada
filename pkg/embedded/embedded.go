package embedded

import (
	_ "embed"
)

// Prompt templates (text/template syntax)
//
//go:embed data/prompts/magic_words.tmpl
var MagicWordsTmpl []byte

//go:embed data/prompts/tension_seeds.tmpl
var TensionSeedsTmpl []byte
