package prompt

// Config describes a prompt definition loaded from YAML frontmatter.
type Config struct {
	Slug        string `yaml:"slug" json:"slug"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	Author      string `yaml:"author,omitempty" json:"author,omitempty"`
	Updated     string `yaml:"updated,omitempty" json:"updated,omitempty"`

	// SystemTemplate is an optional instruction block sent ahead of the
	// rendered user prompt.
	SystemTemplate string `yaml:"system_template,omitempty" json:"system_template,omitempty"`
	// UserTemplate carries the placeholders; it defaults to the document body.
	UserTemplate string `yaml:"user_template,omitempty" json:"user_template,omitempty"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
}
