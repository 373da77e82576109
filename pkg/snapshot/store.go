// Package snapshot compares serialized props and rendered output against
// persisted reference copies, with an optional interactive accept flow.
package snapshot

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
)

// ErrNotFound is returned by Load when no snapshot exists for an id.
var ErrNotFound = errors.New("snapshot not found")

// Record is a persisted snapshot: canonical JSON props and normalized
// output.
type Record struct {
	Props []byte
	HTML  string
}

// Store persists records by normalized id. Implementations are safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, id string, rec *Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

var unsafeID = regexp.MustCompile(`[^a-zA-Z0-9/_\-.]`)

// NormalizeID maps a snapshot name to a path-safe id: every character
// outside [a-zA-Z0-9/_-.] becomes "_".
func NormalizeID(name string) string {
	return unsafeID.ReplaceAllString(name, "_")
}

// MemoryStore keeps records in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[id] = Record{Props: append([]byte(nil), rec.Props...), HTML: rec.HTML}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.recs))
	for id := range m.recs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
