package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hangarhq/aeromesh/artifact"
	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/registry"
	"github.com/hangarhq/aeromesh/task"
)

// ErrConversationBusy is returned when a conversation already has an active
// task. The submission is rejected before a task is created.
var ErrConversationBusy = errors.New("conversation already has an active task")

// ErrTaskNotActive is returned by Cancel and Resume when no in-flight task
// matches the given id.
var ErrTaskNotActive = errors.New("task not active")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// EventBufferSize sets channel buffering for streamed task events.
	EventBufferSize int
	// DispatchTimeout bounds one submission from accept to terminal state.
	DispatchTimeout time.Duration
	// TaskStore persists task snapshots after every mutation.
	TaskStore core.TaskStore
	// ArchiveStore receives terminal task artifacts keyed by tenant.
	ArchiveStore core.ArchiveStore
	// Logger receives lifecycle diagnostics.
	Logger logging.Logger
}

// activeTask tracks one in-flight root task.
type activeTask struct {
	cancel  context.CancelFunc
	updater *core.Updater
	slot    string
}

// Runner coordinates task execution: resolves executors, creates tasks and
// updaters, enforces conversation slots, streams events, and archives
// terminal artifacts. Public methods are safe for concurrent use.
type Runner struct {
	registry *registry.Registry

	eventBufferSize int
	dispatchTimeout time.Duration

	taskStore    core.TaskStore
	archiveStore core.ArchiveStore
	logger       logging.Logger

	mu     sync.Mutex
	active map[string]*activeTask
	slots  map[string]string
}

// New constructs a Runner over a registry of executors with optional
// overrides.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		DispatchTimeout: 2 * time.Minute,
		TaskStore:       task.NewInMemoryStore(),
		ArchiveStore:    artifact.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		registry:        reg,
		eventBufferSize: opts.EventBufferSize,
		dispatchTimeout: opts.DispatchTimeout,
		taskStore:       opts.TaskStore,
		archiveStore:    opts.ArchiveStore,
		logger:          opts.Logger,
		active:          make(map[string]*activeTask),
		slots:           make(map[string]string),
	}
}

// Submit runs one request to completion and returns the terminal task.
// Unknown agent types and busy conversation slots fail synchronously;
// every other failure is recorded on the returned task.
func (r *Runner) Submit(ctx context.Context, agentType string, req core.Request) (*core.Task, error) {
	exec, err := r.registry.Get(agentType)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.dispatchTimeout)
	defer cancel()

	t := core.NewTask(agentType, req)
	up := core.NewUpdater(runCtx, t, func(o *core.UpdaterOptions) {
		o.Store = r.taskStore
		o.Logger = r.logger
	})

	if err := r.register(t.ID, slotKey(req), cancel, up); err != nil {
		return nil, err
	}
	defer r.release(t.ID)

	r.persistSubmitted(t)
	r.logger.Info("runner.task.accepted", "task_id", t.ID, "agent_type", agentType, "tenant_id", req.TenantID)

	final := core.Run(runCtx, exec, req, up)
	r.archive(final)

	return final, nil
}

// SubmitStream starts an asynchronous run and returns the task id together
// with its ordered event stream. The events channel carries every observable
// mutation including sub-task events; the errors channel carries the task's
// terminal error when it fails. Both channels are closed once the task is
// terminal.
func (r *Runner) SubmitStream(ctx context.Context, agentType string, req core.Request) (string, <-chan core.TaskEvent, <-chan error, error) {
	exec, err := r.registry.Get(agentType)
	if err != nil {
		return "", nil, nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.dispatchTimeout)

	t := core.NewTask(agentType, req)
	events := make(chan core.TaskEvent, r.eventBufferSize)
	errs := make(chan error, 1)

	up := core.NewUpdater(runCtx, t, func(o *core.UpdaterOptions) {
		o.Store = r.taskStore
		o.Emit = events
		o.Logger = r.logger
	})

	if err := r.register(t.ID, slotKey(req), cancel, up); err != nil {
		cancel()
		return "", nil, nil, err
	}

	r.persistSubmitted(t)
	r.logger.Info("runner.task.accepted", "task_id", t.ID, "agent_type", agentType, "tenant_id", req.TenantID)

	go func() {
		defer func() {
			r.release(t.ID)
			cancel()
			close(events)
			close(errs)
		}()

		final := core.Run(runCtx, exec, req, up)
		r.archive(final)

		if final.Status == core.StatusFailed && final.Error != nil {
			errs <- final.Error
		}
	}()

	return t.ID, events, errs, nil
}

// Status returns the latest persisted snapshot of a task, live or terminal.
func (r *Runner) Status(taskID string) (*core.Task, error) {
	return r.taskStore.Get(taskID)
}

// Cancel cancels an in-flight task. Cancellation propagates through the
// dispatch context to every non-terminal sub-task.
func (r *Runner) Cancel(taskID string) error {
	r.mu.Lock()
	at, ok := r.active[taskID]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotActive, taskID)
	}

	at.cancel()
	r.logger.Info("runner.task.canceled", "task_id", taskID)

	return nil
}

// Resume delivers caller input to a task suspended in input_required.
func (r *Runner) Resume(taskID, input string) error {
	r.mu.Lock()
	at, ok := r.active[taskID]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotActive, taskID)
	}

	return at.updater.SupplyInput(input)
}

// ListAgents returns the registered executors in registration order.
func (r *Runner) ListAgents() []registry.Entry {
	return r.registry.List()
}

// register reserves the conversation slot and indexes the task as active.
// The slot check and reservation are atomic so concurrent submissions on one
// conversation cannot both pass.
func (r *Runner) register(taskID, slot string, cancel context.CancelFunc, up *core.Updater) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot != "" {
		if holder, busy := r.slots[slot]; busy {
			return fmt.Errorf("%w: task %s still running", ErrConversationBusy, holder)
		}
		r.slots[slot] = taskID
	}
	r.active[taskID] = &activeTask{cancel: cancel, updater: up, slot: slot}

	return nil
}

func (r *Runner) release(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at, ok := r.active[taskID]
	if !ok {
		return
	}
	if at.slot != "" && r.slots[at.slot] == taskID {
		delete(r.slots, at.slot)
	}
	delete(r.active, taskID)
}

// persistSubmitted saves the freshly accepted task so Status observes it
// before the first mutation.
func (r *Runner) persistSubmitted(t *core.Task) {
	if r.taskStore == nil {
		return
	}
	if err := r.taskStore.Save(t.Clone()); err != nil {
		r.logger.Warn("task.persist.error", "task_id", t.ID, "error", err.Error())
	}
}

// archive copies the terminal task's artifacts into the archive store.
func (r *Runner) archive(t *core.Task) {
	if r.archiveStore == nil || len(t.Artifacts) == 0 {
		return
	}
	for name, art := range t.Artifacts {
		data, err := json.Marshal(art)
		if err != nil {
			r.logger.Warn("runner.archive.encode_failed", "task_id", t.ID, "artifact", name, "error", err.Error())
			continue
		}
		if err := r.archiveStore.Save(t.TenantID, t.ID, name, data); err != nil {
			r.logger.Warn("runner.archive.save_failed", "task_id", t.ID, "artifact", name, "error", err.Error())
		}
	}
}

func slotKey(req core.Request) string {
	if req.ConversationID == "" {
		return ""
	}
	return req.TenantID + "/" + req.ConversationID
}
