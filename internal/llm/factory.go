package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/abhisek/genlearn/internal/logger"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.providerName() {
	case "azure":
		base, err = NewAzureProvider(cfg.Azure, httpClient)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI, httpClient)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic, httpClient)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini, httpClient)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.providerName(), err)
	}

	// Wrap with middleware: caller → retry → logging → base
	logged := WithLogging(base, cfg.providerName(), events, log)
	return WithRetry(logged, cfg.Retry), nil
}

// NewClientFromConfig builds a chat client. Missing or invalid settings do
// not fail startup: the returned client reports a configuration error on
// every call instead.
func NewClientFromConfig(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}

	p, err := NewProvider(ctx, cfg, events, log)
	if err != nil {
		var notConfigured *ErrNotConfigured
		if !errors.As(err, &notConfigured) {
			err = &ErrNotConfigured{Provider: cfg.providerName(), Missing: []string{err.Error()}}
		}
		log.Warn("model client disabled", "provider", cfg.providerName(), "reason", err)
		return NewUnconfiguredClient(err)
	}

	log.Info("model client ready", "provider", cfg.providerName(), "model", p.ModelID())
	return NewClient(p, cfg.Timeout)
}
