package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNoResponse is returned when the provider answered successfully but
// produced no completions.
var ErrNoResponse = errors.New("no response generated")

// ErrNotConfigured indicates required provider settings are missing.
// No network call is made when this is returned.
type ErrNotConfigured struct {
	Provider string
	Missing  []string
}

func (e *ErrNotConfigured) Error() string {
	return fmt.Sprintf("%s model client is not configured: missing %s",
		e.Provider, strings.Join(e.Missing, ", "))
}

// ErrProviderStatus indicates the provider answered with a non-2xx status.
// Message holds the provider's own error text when its envelope could be
// parsed, otherwise a truncated copy of the raw body.
type ErrProviderStatus struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ErrProviderStatus) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

func (e *ErrProviderStatus) Unwrap() error { return e.Err }

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrTransport indicates the provider could not be reached or the call
// timed out before a response arrived.
type ErrTransport struct {
	Err error
}

func (e *ErrTransport) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model provider unreachable: %v", e.Err)
	}
	return "model provider unreachable"
}

func (e *ErrTransport) Unwrap() error { return e.Err }

// maxErrorBody caps how much of an unparseable error body is surfaced.
const maxErrorBody = 200

func truncateBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= maxErrorBody {
		return body
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}
