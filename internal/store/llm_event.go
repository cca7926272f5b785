package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// EventRepo provides append and query access to model-call events.
type EventRepo struct {
	drv *entsql.Driver
}

var eventColumns = []string{
	"id", "created_at", "provider", "model", "purpose",
	"prompt_tokens", "completion_tokens", "latency_ms", "success",
	"finish_reason", "error_message", "error_kind", "request_body", "response_body",
}

// AppendModelCall records a chat completion attempt.
func (r *EventRepo) AppendModelCall(ctx context.Context, data ModelCallEventData) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(eventsTable).
		Columns(eventColumns[1:]...).
		Values(
			time.Now().UTC(),
			data.Provider,
			data.Model,
			data.Purpose,
			data.PromptTokens,
			data.CompletionTokens,
			data.LatencyMs,
			data.Success,
			data.FinishReason,
			data.ErrorMessage,
			data.ErrorKind,
			data.RequestBody,
			data.ResponseBody,
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save model call event: %w", err)
	}
	return nil
}

// QueryModelCalls returns events newest first.
func (r *EventRepo) QueryModelCalls(ctx context.Context, opts QueryOpts) ([]ModelCallEvent, error) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(eventsTable)
	sel := b.Select(eventColumns...).From(t)

	var preds []*entsql.Predicate
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ(t.C("purpose"), opts.Purpose))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE(t.C("created_at"), opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE(t.C("created_at"), opts.To.UTC()))
	}
	if opts.Failed {
		preds = append(preds, entsql.EQ(t.C("success"), false))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc(t.C("id")))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query model call events: %w", err)
	}
	defer rows.Close()

	var out []ModelCallEvent
	for rows.Next() {
		e, err := scanEvent(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetModelCall returns a single event by id, or ErrNotFound.
func (r *EventRepo) GetModelCall(ctx context.Context, id int) (*ModelCallEvent, error) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(eventsTable)
	query, args := b.Select(eventColumns...).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("get model call event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return scanEvent(&rows)
}

// UsageByPurpose aggregates token usage per purpose label, busiest first.
func (r *EventRepo) UsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(eventsTable)
	query, args := b.Select(
		t.C("purpose"),
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("SUM(CASE WHEN "+t.C("success")+" THEN 0 ELSE 1 END)", "failed"),
		entsql.As(entsql.Sum(t.C("prompt_tokens")), "prompt_tokens"),
		entsql.As(entsql.Sum(t.C("completion_tokens")), "completion_tokens"),
		entsql.As(entsql.Avg(t.C("latency_ms")), "avg_latency"),
	).
		From(t).
		GroupBy(t.C("purpose")).
		OrderBy(entsql.Desc("calls")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var (
			u   PurposeUsage
			avg float64
		)
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.Failed, &u.PromptTokens, &u.CompletionTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

// UsageByModel aggregates token usage per model for cost estimation.
func (r *EventRepo) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(eventsTable)
	query, args := b.Select(
		t.C("model"),
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum(t.C("prompt_tokens")), "prompt_tokens"),
		entsql.As(entsql.Sum(t.C("completion_tokens")), "completion_tokens"),
	).
		From(t).
		Where(entsql.EQ(t.C("success"), true)).
		GroupBy(t.C("model")).
		OrderBy(entsql.Desc("calls")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.PromptTokens, &u.CompletionTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// FailuresByKind counts unsuccessful calls per purpose and error kind, most
// frequent first, with the most recent error message of each group.
func (r *EventRepo) FailuresByKind(ctx context.Context) ([]FailureCount, error) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(eventsTable)
	query, args := b.Select(
		t.C("purpose"),
		t.C("error_kind"),
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Max(t.C("id")), "last_id"),
	).
		From(t).
		Where(entsql.EQ(t.C("success"), false)).
		GroupBy(t.C("purpose"), t.C("error_kind")).
		OrderBy(entsql.Desc("calls"), t.C("purpose")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query failures by kind: %w", err)
	}

	var (
		out  []FailureCount
		last []int
	)
	for rows.Next() {
		var (
			f  FailureCount
			id int
		)
		if err := rows.Scan(&f.Purpose, &f.ErrorKind, &f.Calls, &id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan failures: %w", err)
		}
		out = append(out, f)
		last = append(last, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i, id := range last {
		e, err := r.GetModelCall(ctx, id)
		if err != nil {
			return nil, err
		}
		out[i].LastError = e.ErrorMessage
	}
	return out, nil
}

func scanEvent(rows *entsql.Rows) (*ModelCallEvent, error) {
	var e ModelCallEvent
	err := rows.Scan(
		&e.ID,
		&e.Timestamp,
		&e.Provider,
		&e.Model,
		&e.Purpose,
		&e.PromptTokens,
		&e.CompletionTokens,
		&e.LatencyMs,
		&e.Success,
		&e.FinishReason,
		&e.ErrorMessage,
		&e.ErrorKind,
		&e.RequestBody,
		&e.ResponseBody,
	)
	if err != nil {
		return nil, fmt.Errorf("scan model call event: %w", err)
	}
	return &e, nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
