package prompt

import (
	"embed"
	"fmt"
)

// DefaultSlug identifies the built-in rewrite prompt.
const DefaultSlug = "task-rewrite"

//go:embed prompts/*.md
var defaultPromptsFS embed.FS

// LoadDefault loads the embedded rewrite prompt.
func LoadDefault() (*Prompt, error) {
	name := "prompts/" + DefaultSlug + ".md"
	data, err := defaultPromptsFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read embedded prompt %s: %w", name, err)
	}
	return Load(name, data)
}

// DefaultTemplate builds a template from the embedded prompt.
func DefaultTemplate() (*Template, error) {
	p, err := LoadDefault()
	if err != nil {
		return nil, err
	}
	return NewTemplate(p), nil
}
