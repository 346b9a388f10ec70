package ailink

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/ownmytodo/todoai/internal/ailink/driver"
	"github.com/ownmytodo/todoai/internal/ailink/driver/gemini"
	"github.com/ownmytodo/todoai/internal/ailink/driver/openai"
)

type driverFactory struct {
	defaultModel string
	build        func(cfg Config, client *http.Client) driver.Driver
}

var drivers = map[string]driverFactory{
	ProviderGemini: {
		defaultModel: gemini.DefaultModel,
		build: func(cfg Config, client *http.Client) driver.Driver {
			c := gemini.NewClient(cfg.BaseURL, cfg.APIKey)
			c.HTTPClient = client
			return c
		},
	},
	ProviderOpenAI: {
		defaultModel: "gpt-4o-mini",
		build: func(cfg Config, client *http.Client) driver.Driver {
			c := openai.NewClient(cfg.BaseURL, cfg.APIKey)
			c.HTTPClient = client
			return c
		},
	},
}

// Providers lists the supported provider identifiers.
func Providers() []string {
	out := make([]string, 0, len(drivers))
	for name := range drivers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	f, ok := drivers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return ""
	}
	return f.defaultModel
}

// NewDriver builds the driver selected by cfg.Provider.
func NewDriver(cfg Config, client *http.Client) (driver.Driver, error) {
	name := cfg.ProviderName()
	f, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported ai provider %q (supported: %s)", name, strings.Join(Providers(), ", "))
	}
	return f.build(cfg, client), nil
}
