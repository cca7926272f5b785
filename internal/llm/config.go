package llm

import (
	"fmt"
	"time"
)

// Config holds all model provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "azure", "openai", "anthropic", "gemini", "mock"
	Provider string `mapstructure:"provider"`

	Azure     AzureConfig     `mapstructure:"azure"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Retry     RetryConfig     `mapstructure:"retry"`

	// Timeout bounds a single chat completion call. Default: 30s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// AzureConfig holds Azure OpenAI deployment settings.
type AzureConfig struct {
	Endpoint   string `mapstructure:"endpoint"`   // https://<resource>.openai.azure.com
	APIKey     string `mapstructure:"api_key"`    // sent as the api-key header
	Deployment string `mapstructure:"deployment"` // deployment name, used verbatim in the URL
	APIVersion string `mapstructure:"api_version"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `mapstructure:"base_url"` // Optional. Override for compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "gemini-flash"
}

// RetryConfig configures the opt-in retry decorator.
// MaxAttempts of 1 (the default) means a single attempt.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "azure",
		Azure: AzureConfig{
			APIVersion: "2024-02-15-preview",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// Validate checks that the selected provider has every setting it needs.
// A missing setting yields *ErrNotConfigured so callers can degrade
// gracefully instead of failing startup.
func (c Config) Validate() error {
	var missing []string
	switch c.Provider {
	case "azure", "":
		if c.Azure.Endpoint == "" {
			missing = append(missing, "endpoint")
		}
		if c.Azure.APIKey == "" {
			missing = append(missing, "api key")
		}
		if c.Azure.Deployment == "" {
			missing = append(missing, "deployment")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			missing = append(missing, "api key")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			missing = append(missing, "api key")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			missing = append(missing, "api key")
		}
	case "mock":
		// No settings needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if len(missing) > 0 {
		return &ErrNotConfigured{Provider: c.providerName(), Missing: missing}
	}
	return nil
}

func (c Config) providerName() string {
	if c.Provider == "" {
		return "azure"
	}
	return c.Provider
}
