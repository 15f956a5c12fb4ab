// Package store persists typed record collections as one JSON document per key on a
// shared medium. Every write re-serializes the whole collection; two writers racing on
// the same key can lose one of the two writes (the last full write wins).
package store

import (
	"context"
	"sync"
)

// Persisted document keys shared by every surface.
const (
	KeyEvents     = "hh_global_events"
	KeyAttendees  = "hh_attendees"
	KeyCategories = "hh_categories"
	KeyUsers      = "hh_users"
	KeyRoles      = "hh_roles"
)

// Medium is a key/document store visible to every attached surface.
type Medium interface {
	Get(ctx context.Context, key string) (doc []byte, found bool, err error)
	Set(ctx context.Context, key string, doc []byte) error
}

// MemoryMedium keeps documents in process memory.
type MemoryMedium struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryMedium creates an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{docs: make(map[string][]byte)}
}

// Get returns a copy of the document stored under key.
func (m *MemoryMedium) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, true, nil
}

// Set replaces the document stored under key.
func (m *MemoryMedium) Set(_ context.Context, key string, doc []byte) error {
	cp := make([]byte, len(doc))
	copy(cp, doc)
	m.mu.Lock()
	m.docs[key] = cp
	m.mu.Unlock()
	return nil
}
