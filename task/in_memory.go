package task

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hangarhq/aeromesh/core"
)

// ErrNotFound is returned when no task exists under the requested ID.
var ErrNotFound = errors.New("task not found")

// InMemoryStore is a volatile core.TaskStore keeping task snapshots in a
// process local map. It is safe for concurrent use and stores clones so
// callers can never mutate internal state through returned pointers.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*core.Task
}

// NewInMemoryStore constructs an empty in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[string]*core.Task)}
}

// Save stores a clone of the snapshot, replacing any previous one.
func (s *InMemoryStore) Save(t *core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
	return nil
}

// Get returns a clone of the stored snapshot.
func (s *InMemoryStore) Get(id string) (*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.Clone(), nil
}

// ListByTenant returns the tenant's tasks ordered most recently updated
// first. A non-positive limit returns all of them.
func (s *InMemoryStore) ListByTenant(tenantID string, limit int) ([]*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*core.Task, 0)
	for _, t := range s.tasks {
		if t.TenantID == tenantID {
			matched = append(matched, t.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UpdatedAt.After(matched[j].UpdatedAt) })

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
