package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/genlearn/internal/logger"
	"github.com/abhisek/genlearn/internal/store"
)

// recordTimeout bounds the write of a model-call event.
const recordTimeout = 5 * time.Second

// EventRecorder persists model-call events. *store.EventRepo satisfies it.
type EventRecorder interface {
	AppendModelCall(ctx context.Context, data store.ModelCallEventData) error
}

// LoggingProvider is a decorator that records every request as an event
// and wraps it in a tracing span.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   EventRecorder
	log      *logger.Logger
	tracer   trace.Tracer
}

// WithLogging wraps a Provider with event logging. A nil recorder only traces.
func WithLogging(p Provider, providerName string, events EventRecorder, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{
		inner:    p,
		provider: providerName,
		events:   events,
		log:      log,
		tracer:   otel.Tracer("github.com/abhisek/genlearn/internal/llm"),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)
	ctx, span := l.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.provider", l.provider),
		attribute.String("llm.model", l.inner.ModelID()),
		attribute.String("llm.purpose", purpose),
		attribute.Int("llm.max_tokens", req.MaxTokens),
		attribute.Float64("llm.temperature", req.Temperature),
	))
	defer span.End()

	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start)

	data := store.ModelCallEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.PromptTokens = resp.Usage.PromptTokens
		data.CompletionTokens = resp.Usage.CompletionTokens
		data.Model = resp.Model
		data.FinishReason = resp.FinishReason
		data.ResponseBody = resp.Content
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", resp.Usage.PromptTokens),
			attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens),
			attribute.String("llm.finish_reason", resp.FinishReason),
		)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		data.ErrorKind = string(Classify(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.log.Warn("model call failed",
			"provider", l.provider, "purpose", purpose, "kind", data.ErrorKind,
			"latency_ms", data.LatencyMs, "error", err)
	} else {
		l.log.Debug("model call completed",
			"provider", l.provider, "model", data.Model, "purpose", purpose,
			"latency_ms", data.LatencyMs, "total_tokens", resp.Usage.TotalTokens)
	}

	// Recording must never fail the request. The call's own deadline may
	// have ended it, so the event is written on a detached context.
	if l.events != nil {
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()
		if logErr := l.events.AppendModelCall(recCtx, data); logErr != nil {
			l.log.Warn("failed to record model call event", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[params] max_tokens=%d temperature=%.2f top_p=%.2f frequency_penalty=%.2f presence_penalty=%.2f\n\n",
		req.MaxTokens, req.Temperature, req.TopP, req.FrequencyPenalty, req.PresencePenalty)

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	return b.String()
}
