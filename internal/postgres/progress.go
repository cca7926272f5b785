package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/genlearn/internal/progress"
)

// UsersPartition is the partition key of every learner row.
const UsersPartition = "users"

const createProgressTable = `
	CREATE TABLE IF NOT EXISTS progress_records (
		partition_key TEXT        NOT NULL,
		row_key       TEXT        NOT NULL,
		email         TEXT        NOT NULL DEFAULT '',
		display_name  TEXT        NOT NULL DEFAULT '',
		progress_json JSONB       NOT NULL,
		last_activity TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (partition_key, row_key)
	)`

// ProgressRepository implements progress.DurableStore.
type ProgressRepository struct {
	db *pgxpool.Pool
}

func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Migrate creates the progress table when it does not exist.
func (r *ProgressRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createProgressTable); err != nil {
		return fmt.Errorf("migrate progress_records: %w", err)
	}
	return nil
}

// Get returns the row for userID, or nil when none exists.
func (r *ProgressRepository) Get(ctx context.Context, userID string) (*progress.Row, error) {
	query := `
		SELECT row_key, email, display_name, progress_json, last_activity, created_at
		FROM progress_records
		WHERE partition_key = $1 AND row_key = $2
	`

	var row progress.Row
	err := r.db.QueryRow(ctx, query, UsersPartition, userID).Scan(
		&row.UserID,
		&row.Email,
		&row.DisplayName,
		&row.Progress,
		&row.LastActivity,
		&row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}

	return &row, nil
}

// Upsert creates or replaces the row for row.UserID. created_at is kept
// from the first insert.
func (r *ProgressRepository) Upsert(ctx context.Context, row progress.Row) error {
	query := `
		INSERT INTO progress_records (partition_key, row_key, email, display_name, progress_json, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (partition_key, row_key)
		DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			progress_json = excluded.progress_json,
			last_activity = excluded.last_activity
	`

	_, err := r.db.Exec(
		ctx, query,
		UsersPartition,
		row.UserID,
		row.Email,
		row.DisplayName,
		string(row.Progress),
		row.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}

	return nil
}

// Delete removes the row for userID. Deleting a missing row is not an error.
func (r *ProgressRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM progress_records WHERE partition_key = $1 AND row_key = $2`

	if _, err := r.db.Exec(ctx, query, UsersPartition, userID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// List returns every row in the users partition ordered by user id.
func (r *ProgressRepository) List(ctx context.Context) ([]progress.Row, error) {
	query := `
		SELECT row_key, email, display_name, progress_json, last_activity, created_at
		FROM progress_records
		WHERE partition_key = $1
		ORDER BY row_key
	`

	rows, err := r.db.Query(ctx, query, UsersPartition)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []progress.Row
	for rows.Next() {
		var row progress.Row
		if err := rows.Scan(
			&row.UserID,
			&row.Email,
			&row.DisplayName,
			&row.Progress,
			&row.LastActivity,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return out, nil
}

var _ progress.DurableStore = (*ProgressRepository)(nil)
