package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/system.md
var SystemPrompt string

//go:embed prompts/exclusion.md
var exclusionPromptRaw string

// ExclusionTemplate renders the user message of the semantic stage.
// Parsed once at package init; reused on every Classify call.
var ExclusionTemplate = template.Must(template.New("exclusion").Parse(exclusionPromptRaw))
