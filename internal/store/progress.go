package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ProgressRepo keeps serialized progress records for anonymous learners,
// one row per storage key.
type ProgressRepo struct {
	drv *entsql.Driver
}

// Get returns the stored blob for key, or nil when none exists.
func (r *ProgressRepo) Get(ctx context.Context, key string) ([]byte, error) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(progressTable)
	query, args := b.Select(t.C("data")).
		From(t).
		Where(entsql.EQ(t.C("storage_key"), key)).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var data string
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	return []byte(data), nil
}

// Put inserts or replaces the blob stored under key.
func (r *ProgressRepo) Put(ctx context.Context, key string, data []byte) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(progressTable).
		Columns("storage_key", "data", "updated_at").
		Values(key, string(data), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("storage_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Delete removes the blob stored under key. Deleting a missing key is not an error.
func (r *ProgressRepo) Delete(ctx context.Context, key string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(progressTable).
		Where(entsql.EQ("storage_key", key)).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}
