package artifact

import (
	"sort"
	"sync"
)

// InMemoryStore is an in-process ArchiveStore keeping archived artifacts in
// a nested map guarded by an RWMutex. Data is copied on save and retrieval
// so callers can never mutate internal buffers.
//
// Layout: tenantID -> taskID -> artifact name -> raw bytes
//
// It enforces no retention limits or quotas; production deployments should
// back the archive with a durable store.
type InMemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory archive.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tenants: make(map[string]map[string]map[string][]byte)}
}

// Save stores (or overwrites) the artifact bytes for the tenant and task.
// The input slice is copied before storage.
func (s *InMemoryStore) Save(tenantID, taskID, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks, ok := s.tenants[tenantID]
	if !ok {
		tasks = make(map[string]map[string][]byte)
		s.tenants[tenantID] = tasks
	}
	artifacts, ok := tasks[taskID]
	if !ok {
		artifacts = make(map[string][]byte)
		tasks[taskID] = artifacts
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	artifacts[name] = cp
	return nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (s *InMemoryStore) Get(tenantID, taskID, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.lookup(tenantID, taskID, name)
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the artifact names archived for the tenant's task, sorted
// for stable output.
func (s *InMemoryStore) List(tenantID, taskID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	artifacts, ok := s.tenants[tenantID][taskID]
	if !ok {
		return []string{}, nil
	}
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the artifact if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(tenantID, taskID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(tenantID, taskID, name); !ok {
		return ErrNotFound
	}
	delete(s.tenants[tenantID][taskID], name)
	return nil
}

func (s *InMemoryStore) lookup(tenantID, taskID, name string) ([]byte, bool) {
	tasks, ok := s.tenants[tenantID]
	if !ok {
		return nil, false
	}
	artifacts, ok := tasks[taskID]
	if !ok {
		return nil, false
	}
	data, ok := artifacts[name]
	return data, ok
}
