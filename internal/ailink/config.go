package ailink

import (
	"strings"
	"time"
)

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultTimeout bounds a single upstream generation attempt.
const DefaultTimeout = 8 * time.Second

// Config defines the generation provider settings.
type Config struct {
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`

	// Debug controls optional diagnostics.
	Debug DebugConfig `mapstructure:"debug"`
}

// DebugConfig bounds how much upstream text is echoed back in diagnostics.
type DebugConfig struct {
	DiagnosticMaxBytes int `mapstructure:"diagnostic_max_bytes"`
}

// Configured reports whether a credential is present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ProviderName returns the normalized provider, defaulting to gemini.
func (c Config) ProviderName() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderGemini
	}
	return p
}

// CredentialEnvVar is the provider-native environment variable consulted
// when api_key is unset.
func CredentialEnvVar(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}
