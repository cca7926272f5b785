package progress

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// LocalStore keeps anonymous records by storage key.
// *store.ProgressRepo satisfies it.
type LocalStore interface {
	// Get returns nil, nil when no record exists.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Row is one durable record: partition "users", row key = user id.
type Row struct {
	UserID       string
	Email        string
	DisplayName  string
	Progress     []byte
	LastActivity time.Time
	CreatedAt    time.Time
}

// DurableStore keeps authenticated records keyed by user id.
type DurableStore interface {
	// Get returns nil, nil when no record exists.
	Get(ctx context.Context, userID string) (*Row, error)
	Upsert(ctx context.Context, row Row) error
	Delete(ctx context.Context, userID string) error
	// List returns every row in the users partition.
	List(ctx context.Context) ([]Row, error)
}

// MemoryStore is an in-process DurableStore used when no database is
// configured.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Row
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Row)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[userID]
	if !ok {
		return nil, nil
	}
	row.Progress = slices.Clone(row.Progress)
	return &row, nil
}

func (m *MemoryStore) Upsert(_ context.Context, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.rows[row.UserID]; ok && !existing.CreatedAt.IsZero() {
		row.CreatedAt = existing.CreatedAt
	}
	row.Progress = slices.Clone(row.Progress)
	m.rows[row.UserID] = row
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.rows))
	for _, id := range slices.Sorted(maps.Keys(m.rows)) {
		row := m.rows[id]
		row.Progress = slices.Clone(row.Progress)
		out = append(out, row)
	}
	return out, nil
}

// memoryLocal is the LocalStore used when none is supplied.
type memoryLocal struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryLocal() *memoryLocal {
	return &memoryLocal{data: make(map[string][]byte)}
}

func (m *memoryLocal) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data[key]), nil
}

func (m *memoryLocal) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(data)
	return nil
}

func (m *memoryLocal) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
