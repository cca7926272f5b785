package llm

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: "first answer", Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}},
		MockResponse{Content: "second answer", FinishReason: "length"},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Content != "first answer" {
		t.Fatalf("expected 'first answer', got %q", resp1.Content)
	}
	if resp1.Usage.PromptTokens != 10 {
		t.Fatalf("expected 10 prompt tokens, got %d", resp1.Usage.PromptTokens)
	}
	if resp1.FinishReason != "stop" {
		t.Fatalf("expected finish reason 'stop', got %q", resp1.FinishReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Content != "second answer" || resp2.FinishReason != "length" {
		t.Fatalf("unexpected second response %+v", resp2)
	}
}

func TestMockProvider_EmptyQueueEchoes(t *testing.T) {
	mock := NewMockProvider()
	resp, err := mock.Generate(context.Background(), Request{Messages: []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
		{Role: RoleUser, Content: "explain tokens"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response: explain tokens" {
		t.Fatalf("unexpected echo %q", resp.Content)
	}
	if resp.Usage.TotalTokens != resp.Usage.PromptTokens+resp.Usage.CompletionTokens {
		t.Fatalf("inconsistent usage %+v", resp.Usage)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: "ok"})

	req := Request{Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hello"},
	}}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System() != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System())
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestRequestSplitsSystemMessages(t *testing.T) {
	req := Request{Messages: []Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
	}}
	if got := req.System(); got != "a\n\nb" {
		t.Fatalf("System() = %q", got)
	}
	conv := req.Conversation()
	if len(conv) != 1 || conv[0].Content != "u" {
		t.Fatalf("Conversation() = %+v", conv)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("tool").Valid() {
		t.Error("tool should not be valid")
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "lab")
	if p := PurposeFrom(ctx); p != "lab" {
		t.Fatalf("expected 'lab', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		missing int
	}{
		{
			name:    "default azure without settings",
			cfg:     DefaultConfig(),
			wantErr: true,
			missing: 3,
		},
		{
			name:    "empty provider means azure",
			cfg:     Config{Azure: AzureConfig{Endpoint: "https://x", APIKey: "k"}},
			wantErr: true,
			missing: 1,
		},
		{
			name:    "azure complete",
			cfg:     Config{Provider: "azure", Azure: AzureConfig{Endpoint: "https://x", APIKey: "k", Deployment: "d"}},
			wantErr: false,
		},
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
			missing: 1,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
			missing: 1,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.missing == 0 {
				return
			}
			var nc *ErrNotConfigured
			if !errors.As(err, &nc) {
				t.Fatalf("expected ErrNotConfigured, got %T", err)
			}
			if len(nc.Missing) != tt.missing {
				t.Fatalf("expected %d missing settings, got %v", tt.missing, nc.Missing)
			}
		})
	}
}
