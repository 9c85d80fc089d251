// Package aeromesh provides a high-level façade over the task runner and the
// aviation agent fleet (orchestrator, HR, meeting, supply chain) enabling
// construction of a fully wired multi-agent system from one configuration
// struct. Most applications interact with this package by:
//  1. Loading a config.Config (or starting from config.Default())
//  2. Creating an AeroMesh via New() (optionally overriding the model or stores)
//  3. Submitting requests synchronously (Submit) or streaming events (SubmitStream)
//
// The façade delegates task lifecycle management to runner.Runner while
// keeping setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically configure the
// SQLite task store, a tenant registry file and a structured logger.
package aeromesh

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hangarhq/aeromesh/agent"
	"github.com/hangarhq/aeromesh/artifact"
	"github.com/hangarhq/aeromesh/config"
	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/model"
	"github.com/hangarhq/aeromesh/model/anthropic"
	"github.com/hangarhq/aeromesh/model/openai"
	"github.com/hangarhq/aeromesh/orchestrator"
	"github.com/hangarhq/aeromesh/registry"
	"github.com/hangarhq/aeromesh/runner"
	"github.com/hangarhq/aeromesh/task"
	"github.com/hangarhq/aeromesh/tenant"
	"github.com/hangarhq/aeromesh/toolset"
)

// Routing keywords per domain executor, matched case-insensitively against
// request messages by the keyword router.
var (
	hrKeywords          = []string{"employee", "staff", "training", "certification", "hire", "onboard", "hr", "personnel"}
	meetingKeywords     = []string{"meeting", "room", "book", "schedule", "conference", "reservation", "calendar"}
	supplyChainKeywords = []string{"inventory", "parts", "supplier", "order", "stock", "procurement", "purchase"}
)

// Options configures the AeroMesh instance.
type Options struct {
	// Config supplies the full system configuration. Defaults to
	// config.Default().
	Config config.Config

	// Model overrides the reasoning model built from Config.Model. Useful
	// for injecting model.NewMockModel in tests and examples.
	Model model.Model

	// Stores (default to Config.Storage for tasks, in-memory for the
	// artifact archive).
	TaskStore    core.TaskStore
	ArchiveStore core.ArchiveStore

	// Tenants overrides the tenant registry built from Config.Tenants. A
	// caller-supplied registry is not closed by Close.
	Tenants *tenant.Registry

	// Logger (defaults to a structured logger built from Config.Logging).
	Logger logging.Logger
}

// AeroMesh is the high-level façade aggregating the task runner, the agent
// registry and the tenant directory.
type AeroMesh struct {
	cfg      config.Config
	logger   logging.Logger
	registry *registry.Registry
	runner   *runner.Runner
	tenants  *tenant.Registry
	closers  []func() error
}

// New assembles a fully wired system: reasoning model, domain toolsets and
// executors, orchestrator, agent registry, tenant directory and task runner.
// Any unset service is initialized from Config.
func New(optFns ...func(o *Options)) (*AeroMesh, error) {
	opts := Options{Config: *config.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}
	cfg := opts.Config

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, nil)
	}

	m := &AeroMesh{cfg: cfg, logger: logger}

	reasoner := opts.Model
	if reasoner == nil {
		var err error
		reasoner, err = buildModel(cfg.Model)
		if err != nil {
			return nil, err
		}
	}

	taskStore := opts.TaskStore
	if taskStore == nil {
		var err error
		taskStore, err = m.buildTaskStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
	}

	archiveStore := opts.ArchiveStore
	if archiveStore == nil {
		archiveStore = artifact.NewInMemoryStore()
	}

	tenants := opts.Tenants
	if tenants == nil {
		var err error
		tenants, err = tenant.NewRegistry(cfg.Tenants.File, func(o *tenant.RegistryOptions) {
			o.Logger = logger
		})
		if err != nil {
			m.Close()
			return nil, err
		}
		m.closers = append(m.closers, func() error {
			tenants.Close()
			return nil
		})
	}
	m.tenants = tenants

	reg, err := buildRegistry(reasoner, cfg, logger)
	if err != nil {
		m.Close()
		return nil, err
	}
	m.registry = reg

	m.runner = runner.New(reg, func(o *runner.Options) {
		o.EventBufferSize = cfg.Runner.EventBufferSize
		o.DispatchTimeout = cfg.Runner.DispatchTimeout
		o.TaskStore = taskStore
		o.ArchiveStore = archiveStore
		o.Logger = logger
	})

	return m, nil
}

// Submit runs one request to a terminal status and returns the final task
// snapshot. See runner.Runner.Submit for the full contract.
func (m *AeroMesh) Submit(ctx context.Context, agentType string, req core.Request) (*core.Task, error) {
	return m.runner.Submit(ctx, agentType, req)
}

// SubmitStream starts an asynchronous submission returning the task ID plus
// event and error channels.
func (m *AeroMesh) SubmitStream(ctx context.Context, agentType string, req core.Request) (string, <-chan core.TaskEvent, <-chan error, error) {
	return m.runner.SubmitStream(ctx, agentType, req)
}

// Status returns the stored snapshot of a task.
func (m *AeroMesh) Status(taskID string) (*core.Task, error) { return m.runner.Status(taskID) }

// Cancel withdraws an in-flight task.
func (m *AeroMesh) Cancel(taskID string) error { return m.runner.Cancel(taskID) }

// Resume supplies the clarification an input_required task is waiting for.
func (m *AeroMesh) Resume(taskID, input string) error { return m.runner.Resume(taskID, input) }

// Agents lists the registered executors in registration order.
func (m *AeroMesh) Agents() []registry.Entry { return m.registry.List() }

// Runner exposes the underlying task runner for transport layers.
func (m *AeroMesh) Runner() *runner.Runner { return m.runner }

// Tenants exposes the tenant directory.
func (m *AeroMesh) Tenants() *tenant.Registry { return m.tenants }

// Logger returns the system logger.
func (m *AeroMesh) Logger() logging.Logger { return m.logger }

// Config returns the configuration the system was assembled from.
func (m *AeroMesh) Config() config.Config { return m.cfg }

// Close releases the resources the façade created (tenant watcher, task
// store). Caller-supplied services are left open.
func (m *AeroMesh) Close() error {
	var errs []error
	for _, closeFn := range m.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// buildModel constructs the reasoning model for the configured provider.
func buildModel(c config.ModelConfig) (model.Model, error) {
	switch c.Provider {
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if c.Name != "" {
				o.Model = anthropicsdk.Model(c.Name)
			}
			o.APIKey = c.Anthropic.APIKey
			o.UseBedrock = c.Anthropic.Bedrock
			o.AWSRegion = c.Anthropic.AWSRegion
			o.AWSProfile = c.Anthropic.AWSProfile
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if c.Name != "" {
				o.Model = c.Name
			}
			o.APIKey = c.OpenAI.APIKey
		}), nil
	case "mock":
		return model.NewMockModel("mock-reasoner", "mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", c.Provider)
	}
}

func (m *AeroMesh) buildTaskStore(c config.StorageConfig) (core.TaskStore, error) {
	switch c.Driver {
	case "sqlite":
		store, err := task.NewSQLiteStore(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open task store: %w", err)
		}
		m.closers = append(m.closers, store.Close)
		return store, nil
	case "memory":
		return task.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
}

// buildRegistry wires the orchestrator and the domain executors into one
// agent registry. The orchestrator registers first so that listings lead
// with the entry point, followed by the specialists in routing order.
func buildRegistry(reasoner model.Model, cfg config.Config, logger logging.Logger) (*registry.Registry, error) {
	reg := registry.New()

	orch := orchestrator.New(reg, func(o *orchestrator.Options) {
		o.MinScore = cfg.Routing.MinScore
		if cfg.Routing.ModelRouter {
			o.Router = orchestrator.NewModelRouter(reasoner, func(ro *orchestrator.ModelRouterOptions) {
				ro.Fallback = orchestrator.NewKeywordRouter(func(ko *orchestrator.KeywordRouterOptions) {
					ko.MinScore = cfg.Routing.MinScore
				})
				ro.Logger = logger
			})
		}
		o.Model = reasoner
		o.SubtaskTimeout = cfg.Runner.SubtaskTimeout
		o.Logger = logger
	})

	hr := agent.NewHRExecutor(toolset.NewHRToolset(), func(o *agent.Options) {
		o.Model = reasoner
		o.Logger = logger
	})
	meeting := agent.NewMeetingExecutor(toolset.NewMeetingToolset(), func(o *agent.Options) {
		o.Model = reasoner
		o.Logger = logger
	})
	supply := agent.NewSupplyChainExecutor(toolset.NewSupplyChainToolset(), func(o *agent.Options) {
		o.Model = reasoner
		o.Logger = logger
	})

	if err := reg.Register(orch); err != nil {
		return nil, err
	}
	if err := reg.Register(hr, hrKeywords...); err != nil {
		return nil, err
	}
	if err := reg.Register(meeting, meetingKeywords...); err != nil {
		return nil, err
	}
	if err := reg.Register(supply, supplyChainKeywords...); err != nil {
		return nil, err
	}
	return reg, nil
}
