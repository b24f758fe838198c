// Package config loads the process-wide configuration once at startup into an
// immutable struct that is passed down to the components needing it. Values
// come from the environment, optionally seeded from a .env file. Missing
// required configuration is fatal before the first cycle runs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Providers selectable via MODEL_PROVIDER.
const (
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// Config aggregates all startup configuration.
type Config struct {
	App     AppConfig
	Model   ModelConfig
	Project ProjectConfig
	Watch   WatchConfig
}

// AppConfig controls logging.
type AppConfig struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// ModelConfig selects and parameterizes the language-model backend. The
// azure fields mirror an Azure OpenAI deployment; the anthropic key selects
// the alternate backend.
type ModelConfig struct {
	Provider        string `envconfig:"MODEL_PROVIDER" default:"azure"`
	Deployment      string `envconfig:"MODEL_DEPLOYMENT_NAME"`
	APIVersion      string `envconfig:"MODEL_API_VERSION"`
	Endpoint        string `envconfig:"AZURE_ENDPOINT"`
	APIKey          string `envconfig:"API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
}

// ProjectConfig configures the grounded-search collaborator. Both values are
// opaque handles consumed by the search client.
type ProjectConfig struct {
	Endpoint         string `envconfig:"PROJECT_CLIENT_ENDPOINT"`
	SearchConnection string `envconfig:"SEARCH_CONNECTION_NAME"`
}

// WatchConfig parameterizes the real-time driver.
type WatchConfig struct {
	Symbol       string        `envconfig:"STOCK_SYMBOL" default:"ICICIBANK.NS"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"60s"`
	MaxMessages  int           `envconfig:"MAX_MESSAGES" default:"15"`
}

// Load reads the environment (after merging an optional .env file) and
// validates the result.
func Load() (*Config, error) {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the cross-field requirements envconfig tags cannot
// express: provider-dependent credentials and positive loop parameters.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderAzure:
		for _, f := range []struct{ name, value string }{
			{"MODEL_DEPLOYMENT_NAME", c.Model.Deployment},
			{"MODEL_API_VERSION", c.Model.APIVersion},
			{"AZURE_ENDPOINT", c.Model.Endpoint},
			{"API_KEY", c.Model.APIKey},
		} {
			if f.value == "" {
				return fmt.Errorf("configuration missing: %s is required for provider %q", f.name, c.Model.Provider)
			}
		}
	case ProviderAnthropic:
		if c.Model.AnthropicAPIKey == "" {
			return fmt.Errorf("configuration missing: ANTHROPIC_API_KEY is required for provider %q", c.Model.Provider)
		}
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q", c.Model.Provider)
	}

	if c.Watch.Symbol == "" {
		return fmt.Errorf("configuration missing: STOCK_SYMBOL must not be empty")
	}

	if c.Watch.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Watch.PollInterval)
	}

	if c.Watch.MaxMessages <= 0 {
		return fmt.Errorf("MAX_MESSAGES must be positive, got %d", c.Watch.MaxMessages)
	}

	return nil
}
