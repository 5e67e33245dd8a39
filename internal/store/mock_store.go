// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows webui and dashboard tests to run without SQLite

package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	settings map[string]string
	activity []Activity // oldest first
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{settings: make(map[string]string)}
}

// GetSetting returns the value stored under key, or ErrNotFound.
func (m *MockStore) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// SetSetting stores value under key.
func (m *MockStore) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Settings returns a copy of every stored setting.
func (m *MockStore) Settings(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.settings), nil
}

// AppendActivity records an entry, filling ID and Timestamp when unset.
func (m *MockStore) AppendActivity(ctx context.Context, a *Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, *a)
	return nil
}

// ListActivity returns matching entries, newest first.
func (m *MockStore) ListActivity(ctx context.Context, f ActivityFilter) ([]Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := normalizeActivityLimit(f.Limit)
	out := []Activity{}
	for i := len(m.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if f.AgentID == "" || m.activity[i].AgentID == f.AgentID {
			out = append(out, m.activity[i])
		}
	}
	return out, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

var (
	_ Store = (*MockStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
