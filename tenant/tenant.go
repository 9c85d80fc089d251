package tenant

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/hangarhq/aeromesh/logging"
)

// DefaultID is the tenant assigned to requests that do not name one.
const DefaultID = "default"

// defaultAgentType fills DefaultAgent for tenants that omit it.
const defaultAgentType = "orchestrator"

// ErrUnknownTenant is returned when a tenant id is not registered.
var ErrUnknownTenant = errors.New("unknown tenant")

// Tenant describes one organization served by the system.
type Tenant struct {
	// ID is the stable identifier carried by requests.
	ID string `yaml:"id" json:"id"`

	// Name is the human readable organization name.
	Name string `yaml:"name" json:"name"`

	// Agents lists the agent types enabled for this tenant. An empty list
	// enables every registered agent.
	Agents []string `yaml:"agents" json:"agents,omitempty"`

	// DefaultAgent handles requests that omit an agent type.
	DefaultAgent string `yaml:"default_agent" json:"default_agent"`
}

// Allows reports whether the tenant may address the given agent type.
func (t Tenant) Allows(agentType string) bool {
	if len(t.Agents) == 0 {
		return true
	}
	for _, a := range t.Agents {
		if a == agentType {
			return true
		}
	}
	return false
}

// registryFile is the on-disk shape of tenants.yaml.
type registryFile struct {
	Tenants []Tenant `yaml:"tenants"`
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger receives reload diagnostics.
	Logger logging.Logger
}

// Registry resolves tenant ids to tenant definitions.
//
// All methods are safe for concurrent use.
type Registry struct {
	path   string
	logger logging.Logger

	mu      sync.RWMutex
	tenants map[string]Tenant
	order   []string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRegistry loads the tenant registry from path. An empty path serves the
// built-in default tenant only. When a file is given its directory is watched
// and edits are applied on the fly; if the watcher cannot be created the
// registry still works but needs a restart to pick up changes.
func NewRegistry(path string, optFns ...func(o *RegistryOptions)) (*Registry, error) {
	opts := RegistryOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{
		path:   path,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}

	if path == "" {
		r.apply([]Tenant{defaultTenant()})
		return r, nil
	}

	tenants, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	r.apply(tenants)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Warn("tenant.watch.unavailable", "error", err)
		return r, nil
	}
	// Watch the directory rather than the file itself so editors that
	// replace the file on save do not silently detach the watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		r.logger.Warn("tenant.watch.unavailable", "error", err)
		return r, nil
	}
	r.watcher = watcher
	go r.watch()

	return r, nil
}

// Get returns the tenant registered under id.
func (r *Registry) Get(id string) (Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: %s", ErrUnknownTenant, id)
	}
	return t, nil
}

// List returns all tenants in file order.
func (r *Registry) List() []Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tenant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tenants[id])
	}
	return out
}

// Reload re-reads the tenant file. On failure the previous snapshot stays
// in place.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	tenants, err := loadFile(r.path)
	if err != nil {
		return err
	}
	r.apply(tenants)
	return nil
}

// Close stops the file watcher.
func (r *Registry) Close() {
	close(r.done)
	if r.watcher != nil {
		r.watcher.Close()
	}
}

func (r *Registry) apply(tenants []Tenant) {
	byID := make(map[string]Tenant, len(tenants))
	order := make([]string, 0, len(tenants))
	for _, t := range tenants {
		byID[t.ID] = t
		order = append(order, t.ID)
	}

	r.mu.Lock()
	r.tenants = byID
	r.order = order
	r.mu.Unlock()
}

func (r *Registry) watch() {
	base := filepath.Base(r.path)
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if err := r.Reload(); err != nil {
				r.logger.Warn("tenant.reload.failed", "path", r.path, "error", err)
				continue
			}
			r.logger.Info("tenant.reload.applied", "path", r.path)
		case <-r.watcher.Errors:
			// keep watching
		}
	}
}

func loadFile(path string) ([]Tenant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenant file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tenant file: %w", err)
	}
	if len(file.Tenants) == 0 {
		return nil, fmt.Errorf("tenant file %s defines no tenants", path)
	}

	seen := make(map[string]bool, len(file.Tenants))
	for i := range file.Tenants {
		t := &file.Tenants[i]
		if t.ID == "" {
			return nil, fmt.Errorf("tenant file %s: tenant %d has no id", path, i)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("tenant file %s: duplicate tenant id %s", path, t.ID)
		}
		seen[t.ID] = true
		if t.Name == "" {
			t.Name = t.ID
		}
		if t.DefaultAgent == "" {
			t.DefaultAgent = defaultAgentType
		}
	}
	return file.Tenants, nil
}

func defaultTenant() Tenant {
	return Tenant{
		ID:           DefaultID,
		Name:         "Default Tenant",
		DefaultAgent: defaultAgentType,
	}
}
