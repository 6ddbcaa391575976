package store

import (
	"context"
	"sync"
)

// MemStore is the in-memory Store used by tests and the single-device
// variant. Documents are copied on the way in and out.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

func (m *MemStore) ReadCollection(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[name]
	if !ok {
		return nil, ErrNoDocument
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (m *MemStore) WriteCollection(_ context.Context, name string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(doc))
	copy(stored, doc)
	m.docs[name] = stored
	return nil
}
