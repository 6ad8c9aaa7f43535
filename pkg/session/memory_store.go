package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. It gives no durability and is
// meant for tests and for deployments that accept losing sessions on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Load returns all records ordered by session id.
func (m *MemoryStore) Load(ctx context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, r Record) error {
	if r.SessionID == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.SessionID] = r
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, sessionID)
	return nil
}

// Get returns the stored record for sessionID.
func (m *MemoryStore) Get(sessionID string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[sessionID]
	return r, ok
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
