package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies a failed chat completion for the caller.
type ErrorKind string

const (
	ErrorKindConfig    ErrorKind = "config"
	ErrorKindProvider  ErrorKind = "provider"
	ErrorKindTransport ErrorKind = "transport"
	ErrorKindEmpty     ErrorKind = "empty"
	ErrorKindInvalid   ErrorKind = "invalid"
)

// Result is the uniform outcome of SendChatCompletion. Failures never
// surface as Go errors; they are described by Error and ErrorKind.
type Result struct {
	Success      bool          `json:"success"`
	Response     string        `json:"response,omitempty"`
	Usage        *Usage        `json:"usage,omitempty"`
	Elapsed      time.Duration `json:"-"`
	ElapsedMs    int64         `json:"elapsedMs"`
	Model        string        `json:"model,omitempty"`
	FinishReason string        `json:"finishReason,omitempty"`
	Error        string        `json:"error,omitempty"`
	ErrorKind    ErrorKind     `json:"errorKind,omitempty"`
	StatusCode   int           `json:"statusCode,omitempty"`
}

// Client sends single chat completions. It never retries; wrap the
// provider with WithRetry to opt in.
type Client struct {
	provider Provider
	timeout  time.Duration
	initErr  error
}

// NewClient creates a client around a configured provider.
// A zero timeout means the caller's context is the only bound.
func NewClient(p Provider, timeout time.Duration) *Client {
	return &Client{provider: p, timeout: timeout}
}

// NewUnconfiguredClient creates a client whose every call fails with a
// configuration error and makes no network attempt.
func NewUnconfiguredClient(err error) *Client {
	if err == nil {
		err = &ErrNotConfigured{Provider: "azure", Missing: []string{"endpoint", "api key", "deployment"}}
	}
	return &Client{initErr: err}
}

// Configured reports whether calls can reach a provider.
func (c *Client) Configured() bool {
	return c.provider != nil && c.initErr == nil
}

// ModelID returns the target model, or "" when unconfigured.
func (c *Client) ModelID() string {
	if !c.Configured() {
		return ""
	}
	return c.provider.ModelID()
}

// SendChatCompletion issues one chat completion for messages, applying
// params with their defaults.
func (c *Client) SendChatCompletion(ctx context.Context, messages []Message, params Params) Result {
	if !c.Configured() {
		return failure(c.initErr, 0)
	}
	if len(messages) == 0 {
		return Result{Error: "at least one message is required", ErrorKind: ErrorKindInvalid}
	}
	for _, m := range messages {
		if !m.Role.Valid() {
			return Result{Error: fmt.Sprintf("unknown message role %q", m.Role), ErrorKind: ErrorKindInvalid}
		}
	}

	req := Request{Messages: messages}
	params.Apply(&req)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.provider.Generate(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		return failure(err, elapsed)
	}

	usage := resp.Usage
	return Result{
		Success:      true,
		Response:     resp.Content,
		Usage:        &usage,
		Elapsed:      elapsed,
		ElapsedMs:    elapsed.Milliseconds(),
		Model:        resp.Model,
		FinishReason: resp.FinishReason,
	}
}

// Classify maps a provider error onto the kind reported to callers.
func Classify(err error) ErrorKind {
	var (
		notConfigured *ErrNotConfigured
		status        *ErrProviderStatus
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notConfigured):
		return ErrorKindConfig
	case errors.As(err, &status):
		return ErrorKindProvider
	case errors.Is(err, ErrNoResponse):
		return ErrorKindEmpty
	default:
		return ErrorKindTransport
	}
}

// failure maps a provider error onto a learner-facing Result.
func failure(err error, elapsed time.Duration) Result {
	r := Result{Elapsed: elapsed, ElapsedMs: elapsed.Milliseconds(), ErrorKind: Classify(err)}

	switch r.ErrorKind {
	case ErrorKindConfig:
		var notConfigured *ErrNotConfigured
		errors.As(err, &notConfigured)
		r.Error = fmt.Sprintf("The AI lab is not configured (missing %s). Ask your administrator to set the model endpoint, API key and deployment.",
			strings.Join(notConfigured.Missing, ", "))
	case ErrorKindProvider:
		var status *ErrProviderStatus
		errors.As(err, &status)
		r.StatusCode = status.StatusCode
		r.Error = fmt.Sprintf("The model provider returned an error (%d): %s", status.StatusCode, status.Message)
	case ErrorKindEmpty:
		r.Error = "No response generated."
	default:
		r.Error = "Could not reach the model provider. Please check your connection and try again."
	}
	return r
}
