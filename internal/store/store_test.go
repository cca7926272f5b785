package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by TestOpenFileDatabase.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "genlearn.db")
	require.NoError(t, EnsureDir(path))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{progressTable, eventsTable} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table name = %q, want %q", name, table)
		}
	}
}

func TestProgressRepoRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	data, err := repo.Get(ctx, "genlearn.progress:dev-1")
	require.NoError(t, err)
	assert.Nil(t, data, "missing key should read as no data")

	require.NoError(t, repo.Put(ctx, "genlearn.progress:dev-1", []byte(`{"userId":"a"}`)))
	require.NoError(t, repo.Put(ctx, "genlearn.progress:dev-1", []byte(`{"userId":"b"}`)))

	data, err = repo.Get(ctx, "genlearn.progress:dev-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"b"}`, string(data))

	other, err := repo.Get(ctx, "genlearn.progress:dev-2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.Delete(ctx, "genlearn.progress:dev-1"))
	require.NoError(t, repo.Delete(ctx, "genlearn.progress:dev-1"))

	data, err = repo.Get(ctx, "genlearn.progress:dev-1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestModelCallEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []ModelCallEventData{
		{Provider: "azure", Model: "gpt-4o-mini", Purpose: "lab", PromptTokens: 10, CompletionTokens: 20, LatencyMs: 100, Success: true, FinishReason: "stop"},
		{Provider: "azure", Model: "gpt-4o-mini", Purpose: "lab", PromptTokens: 30, CompletionTokens: 40, LatencyMs: 300, Success: true, FinishReason: "stop"},
		{Provider: "azure", Model: "gpt-4o-mini", Purpose: "lab", LatencyMs: 200, Success: false, ErrorKind: "transport", ErrorMessage: "context deadline exceeded"},
		{Provider: "azure", Model: "gpt-4o-mini", Purpose: "chat", LatencyMs: 50, Success: false, ErrorKind: "provider", ErrorMessage: "provider returned status 429: slow down"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendModelCall(ctx, e))
	}

	all, err := repo.QueryModelCalls(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "chat", all[0].Purpose, "newest first")
	assert.False(t, all[0].Success)
	assert.Equal(t, "provider", all[0].ErrorKind)
	assert.WithinDuration(t, time.Now(), all[0].Timestamp, time.Minute)

	labs, err := repo.QueryModelCalls(ctx, QueryOpts{Purpose: "lab", Limit: 2})
	require.NoError(t, err)
	require.Len(t, labs, 2)
	assert.Equal(t, 30, labs[1].PromptTokens)

	failed, err := repo.QueryModelCalls(ctx, QueryOpts{Failed: true})
	require.NoError(t, err)
	require.Len(t, failed, 2)
	for _, e := range failed {
		assert.False(t, e.Success)
	}

	got, err := repo.GetModelCall(ctx, all[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "stop", got.FinishReason)

	_, err = repo.GetModelCall(ctx, 9999)
	assert.True(t, IsNotFound(err))

	byPurpose, err := repo.UsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "lab", byPurpose[0].Purpose)
	assert.Equal(t, 3, byPurpose[0].Calls)
	assert.Equal(t, 1, byPurpose[0].Failed)
	assert.Equal(t, 40, byPurpose[0].PromptTokens)
	assert.Equal(t, 60, byPurpose[0].CompletionTokens)
	assert.Equal(t, int64(200), byPurpose[0].AvgLatencyMs)
	assert.Equal(t, 1, byPurpose[1].Failed)

	failures, err := repo.FailuresByKind(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, FailureCount{Purpose: "chat", ErrorKind: "provider", Calls: 1, LastError: "provider returned status 429: slow down"}, failures[0])
	assert.Equal(t, FailureCount{Purpose: "lab", ErrorKind: "transport", Calls: 1, LastError: "context deadline exceeded"}, failures[1])

	byModel, err := repo.UsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 2, byModel[0].Calls, "failed calls are not billed")
}

func TestPragmaDSN(t *testing.T) {
	assert.True(t, strings.HasPrefix(pragmaDSN("a.db"), "a.db?_pragma="))
	assert.Contains(t, pragmaDSN("file:x?mode=memory"), "mode=memory&_pragma=")
}
