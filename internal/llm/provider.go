package llm

import "context"

// Provider is the core abstraction for chat completion backends.
type Provider interface {
	// Generate sends the conversation to the model and returns the first
	// completion. Implementations return *ErrProviderStatus, *ErrRateLimit,
	// *ErrTransport or ErrNoResponse on failure.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model or deployment this provider targets.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// Messages is the ordered conversation, system prompt first when present.
	Messages []Message

	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// System returns the concatenated system messages.
func (r Request) System() string {
	var out string
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// Conversation returns the non-system messages in order.
func (r Request) Conversation() []Message {
	out := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role is the message sender role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Response holds the model's output.
type Response struct {
	Content string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// FinishReason is passed through from the provider ("stop", "length", ...).
	FinishReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}
