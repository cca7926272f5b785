package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/genlearn/internal/logger"
	"github.com/abhisek/genlearn/internal/store"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []store.ModelCallEventData
	err    error
}

func (r *recordingEvents) AppendModelCall(_ context.Context, data store.ModelCallEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	rec := &recordingEvents{}
	mock := NewMockProvider(MockResponse{
		Content: "answer",
		Usage:   Usage{PromptTokens: 11, CompletionTokens: 4, TotalTokens: 15},
	})
	p := WithLogging(mock, "mock", rec, nil)

	req := Request{Messages: []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hello"},
	}}
	Params(nil).Apply(&req)

	if _, err := p.Generate(WithPurpose(context.Background(), "chat"), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Purpose != "chat" || ev.Provider != "mock" || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.PromptTokens != 11 || ev.CompletionTokens != 4 || ev.ResponseBody != "answer" {
		t.Fatalf("unexpected usage fields %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]\nbe brief") || !strings.Contains(ev.RequestBody, "max_tokens=1000") {
		t.Fatalf("unexpected request body %q", ev.RequestBody)
	}
}

func TestLogging_RecordsFailureAndWarns(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core))

	rec := &recordingEvents{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrTransport{Err: errors.New("refused")}})
	p := WithLogging(mock, "mock", rec, log)

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	var transport *ErrTransport
	if !errors.As(err, &transport) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Success || rec.events[0].ErrorKind != "transport" {
		t.Fatalf("expected failed event, got %+v", rec.events)
	}
	if logs.FilterMessage("model call failed").Len() != 1 {
		t.Fatal("expected failure to be logged")
	}
	if logs.FilterMessage("failed to record model call event").Len() != 1 {
		t.Fatal("expected recorder error to be logged")
	}
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, &ErrTransport{Err: ctx.Err()}
}

func (blockingProvider) ModelID() string { return "slow-model" }

func TestLogging_RecordsTimedOutCall(t *testing.T) {
	s, err := store.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	events := s.EventRepo()

	client := NewClient(WithLogging(blockingProvider{}, "azure", events, nil), 50*time.Millisecond)
	res := client.SendChatCompletion(WithPurpose(context.Background(), "lab"), []Message{{Role: RoleUser, Content: "x"}}, nil)
	if res.ErrorKind != ErrorKindTransport {
		t.Fatalf("expected transport kind, got %+v", res)
	}

	got, err := events.QueryModelCalls(context.Background(), store.QueryOpts{Purpose: "lab"})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the timed-out call to be recorded, got %d events", len(got))
	}
	if got[0].Success || got[0].ErrorKind != string(ErrorKindTransport) || !strings.Contains(got[0].ErrorMessage, "deadline exceeded") {
		t.Fatalf("unexpected event %+v", got[0])
	}
}
