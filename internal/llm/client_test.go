package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_UnconfiguredMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.Azure.Endpoint = server.URL
	client := NewClientFromConfig(context.Background(), cfg, nil, nil)

	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	res := client.SendChatCompletion(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ErrorKind != ErrorKindConfig {
		t.Fatalf("expected config error, got %q", res.ErrorKind)
	}
	if !strings.Contains(res.Error, "api key, deployment") {
		t.Fatalf("expected missing settings in message, got %q", res.Error)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no network call, got %d", hits.Load())
	}
}

func TestClient_AppliesDefaults(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: "Few-shot prompting shows examples.",
		Usage:   Usage{PromptTokens: 12, CompletionTokens: 7, TotalTokens: 19},
	})
	client := NewClient(mock, time.Second)

	res := client.SendChatCompletion(context.Background(), []Message{
		{Role: RoleSystem, Content: "tutor"},
		{Role: RoleUser, Content: "what is few-shot?"},
	}, nil)

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Response != "Few-shot prompting shows examples." {
		t.Fatalf("unexpected response %q", res.Response)
	}
	if res.Usage == nil || res.Usage.TotalTokens != 19 {
		t.Fatalf("unexpected usage %+v", res.Usage)
	}
	if res.Model != "mock" || res.FinishReason != "stop" {
		t.Fatalf("unexpected model/finish %q/%q", res.Model, res.FinishReason)
	}

	got := mock.Calls[0]
	if got.Temperature != 0.7 || got.MaxTokens != 1000 || got.TopP != 1.0 ||
		got.FrequencyPenalty != 0 || got.PresencePenalty != 0 {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestClient_ParamsOverrideDefaults(t *testing.T) {
	mock := NewMockProvider()
	client := NewClient(mock, 0)

	client.SendChatCompletion(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, Params{
		"temperature":       0.0,
		"max_tokens":        50,
		"presence_penalty":  0.5,
		"frequency_penalty": json.Number("0.25"),
	})

	got := mock.Calls[0]
	if got.Temperature != 0 || got.MaxTokens != 50 || got.PresencePenalty != 0.5 || got.FrequencyPenalty != 0.25 {
		t.Fatalf("params not applied: %+v", got)
	}
}

func TestClient_ProviderStatusMessage(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Err: statusError(http.StatusTooManyRequests, "Rate limit exceeded", nil),
	})
	client := NewClient(mock, 0)

	res := client.SendChatCompletion(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ErrorKind != ErrorKindProvider || res.StatusCode != 429 {
		t.Fatalf("unexpected kind/status %q/%d", res.ErrorKind, res.StatusCode)
	}
	if !strings.Contains(res.Error, "Rate limit exceeded") || !strings.Contains(res.Error, "429") {
		t.Fatalf("unexpected error message %q", res.Error)
	}
}

func TestClient_EmptyAndTransportErrors(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: ErrNoResponse},
		MockResponse{Err: &ErrTransport{Err: context.DeadlineExceeded}},
	)
	client := NewClient(mock, 0)
	msgs := []Message{{Role: RoleUser, Content: "x"}}

	res := client.SendChatCompletion(context.Background(), msgs, nil)
	if res.ErrorKind != ErrorKindEmpty || res.Error != "No response generated." {
		t.Fatalf("unexpected empty result %+v", res)
	}

	res = client.SendChatCompletion(context.Background(), msgs, nil)
	if res.ErrorKind != ErrorKindTransport {
		t.Fatalf("expected transport kind, got %q", res.ErrorKind)
	}
	if strings.Contains(res.Error, "deadline") {
		t.Fatalf("transport message should be learner-facing, got %q", res.Error)
	}
}

func TestClient_RejectsInvalidMessages(t *testing.T) {
	mock := NewMockProvider()
	client := NewClient(mock, 0)

	res := client.SendChatCompletion(context.Background(), nil, nil)
	if res.ErrorKind != ErrorKindInvalid {
		t.Fatalf("expected invalid kind, got %q", res.ErrorKind)
	}
	res = client.SendChatCompletion(context.Background(), []Message{{Role: "tool", Content: "x"}}, nil)
	if res.ErrorKind != ErrorKindInvalid {
		t.Fatalf("expected invalid kind, got %q", res.ErrorKind)
	}
	if mock.CallCount() != 0 {
		t.Fatalf("expected no provider calls, got %d", mock.CallCount())
	}
}

func TestClient_TimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := NewClient(p, 50*time.Millisecond)

	res := client.SendChatCompletion(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, nil)
	if res.ErrorKind != ErrorKindTransport {
		t.Fatalf("expected transport kind, got %+v", res)
	}
	if res.Elapsed < 50*time.Millisecond {
		t.Fatalf("expected elapsed to cover the timeout, got %s", res.Elapsed)
	}
}

func TestNewClientFromConfig_Mock(t *testing.T) {
	rec := &recordingEvents{}
	client := NewClientFromConfig(context.Background(), Config{Provider: "mock"}, rec, nil)
	if !client.Configured() || client.ModelID() != "mock" {
		t.Fatalf("expected configured mock client, model %q", client.ModelID())
	}

	res := client.SendChatCompletion(WithPurpose(context.Background(), "lab"), []Message{{Role: RoleUser, Content: "hello"}}, nil)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if len(rec.events) != 1 || rec.events[0].Purpose != "lab" || !rec.events[0].Success {
		t.Fatalf("expected one recorded lab event, got %+v", rec.events)
	}
}

func TestNewUnconfiguredClient_DefaultError(t *testing.T) {
	client := NewUnconfiguredClient(nil)
	res := client.SendChatCompletion(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, nil)
	if res.ErrorKind != ErrorKindConfig || !strings.Contains(res.Error, "endpoint, api key, deployment") {
		t.Fatalf("unexpected result %+v", res)
	}
	if client.ModelID() != "" {
		t.Fatalf("expected empty model id, got %q", client.ModelID())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{&ErrNotConfigured{Provider: "azure", Missing: []string{"api key"}}, ErrorKindConfig},
		{&ErrRateLimit{Err: &ErrProviderStatus{StatusCode: 429}}, ErrorKindProvider},
		{fmt.Errorf("wrapped: %w", ErrNoResponse), ErrorKindEmpty},
		{&ErrTransport{Err: context.DeadlineExceeded}, ErrorKindTransport},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
