package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hangarhq/aeromesh/core"
)

var (
	// ErrDuplicateAgentType is returned when a type key is registered twice.
	ErrDuplicateAgentType = errors.New("agent type already registered")
	// ErrUnknownAgentType is returned when a lookup misses.
	ErrUnknownAgentType = errors.New("unknown agent type")
)

// Entry describes one registered executor for listings and routing.
type Entry struct {
	AgentType   string   `json:"agent_type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

type registration struct {
	exec     core.Executor
	keywords []string
}

// Registry is a concurrency-safe executor directory. Listings preserve
// registration order, which doubles as the routing tie-break order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]registration),
	}
}

// Register adds an executor under its agent type with optional routing
// keywords. Registering an empty or duplicate type fails.
func (r *Registry) Register(exec core.Executor, keywords ...string) error {
	agentType := exec.AgentType()
	if agentType == "" {
		return fmt.Errorf("executor %q has an empty agent type", exec.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[agentType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgentType, agentType)
	}
	r.entries[agentType] = registration{exec: exec, keywords: append([]string(nil), keywords...)}
	r.order = append(r.order, agentType)
	return nil
}

// Get returns the executor registered under agentType.
func (r *Registry) Get(agentType string) (core.Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgentType, agentType)
	}
	return reg.exec, nil
}

// List returns all registered entries in registration order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, agentType := range r.order {
		reg := r.entries[agentType]
		out = append(out, Entry{
			AgentType:   agentType,
			Name:        reg.exec.Name(),
			Description: reg.exec.Description(),
			Keywords:    append([]string(nil), reg.keywords...),
		})
	}
	return out
}

// Len reports the number of registered executors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
