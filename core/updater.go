package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hangarhq/aeromesh/logging"
)

// UpdaterOptions configures a task Updater.
type UpdaterOptions struct {
	// Store receives a task snapshot after every mutation. Optional.
	Store TaskStore
	// Emit receives a TaskEvent for every observable mutation. Optional;
	// sends are abandoned once the updater's context is done.
	Emit chan<- TaskEvent
	// Logger receives contract-violation and persistence warnings.
	Logger logging.Logger
}

// Updater is the sole writer of one Task's status, progress and artifacts.
// It is handed to an executor for the duration of one task and enforces the
// state machine: forward-only transitions, terminal immutability, and the
// working <-> input_required cycle. Mutations after a terminal state are
// logged and dropped; illegal non-terminal transitions convert the task to
// failed with KindInternalContractViolation instead of crashing.
//
// All methods are safe for concurrent use, though the contract is that a
// single executor drives the updater; the mutex exists so that a dispatch
// timeout can force a terminal state without racing a misbehaving executor.
type Updater struct {
	ctx    context.Context
	store  TaskStore
	emit   chan<- TaskEvent
	logger logging.Logger

	mu    sync.Mutex
	task  *Task
	input chan string
}

// NewUpdater binds an updater to a task for one execution.
func NewUpdater(ctx context.Context, task *Task, optFns ...func(o *UpdaterOptions)) *Updater {
	opts := UpdaterOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Updater{
		ctx:    ctx,
		store:  opts.Store,
		emit:   opts.Emit,
		logger: opts.Logger,
		task:   task,
		input:  make(chan string, 1),
	}
}

// Task returns a defensive snapshot of the current task state.
func (u *Updater) Task() *Task {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.task.Clone()
}

// TaskID returns the identifier of the task this updater owns.
func (u *Updater) TaskID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.task.ID
}

// Working records a progress message, transitioning the task to working
// first when it is still submitted or resuming from input_required.
func (u *Updater) Working(message string, percent float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.dropIfTerminal("working") {
		return
	}
	u.workingLocked(message, percent)
}

func (u *Updater) workingLocked(message string, percent float64) {
	if u.task.Status != StatusWorking {
		if err := ValidateTransition(u.task.Status, StatusWorking); err != nil {
			u.violationLocked(err.Error())
			return
		}
		u.task.Status = StatusWorking
	}
	u.task.Progress = append(u.task.Progress, ProgressEntry{Message: message, Percent: percent, At: time.Now()})
	u.task.UpdatedAt = time.Now()
	u.persistLocked()
	u.emitLocked(message, percent)
}

// RequireInput suspends the task in input_required with a prompt for the
// caller. Pair with AwaitInput to block until the answer arrives.
func (u *Updater) RequireInput(prompt string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.dropIfTerminal("input_required") {
		return
	}
	if err := ValidateTransition(u.task.Status, StatusInputRequired); err != nil {
		u.violationLocked(err.Error())
		return
	}
	u.task.Status = StatusInputRequired
	u.task.Progress = append(u.task.Progress, ProgressEntry{Message: prompt, Percent: u.lastPercentLocked(), At: time.Now()})
	u.task.UpdatedAt = time.Now()
	u.persistLocked()
	u.emitLocked(prompt, u.lastPercentLocked())
}

// AwaitInput blocks until the caller supplies clarification via SupplyInput
// or the context ends. On success the task transitions back to working.
func (u *Updater) AwaitInput(ctx context.Context) (string, error) {
	select {
	case answer := <-u.input:
		u.mu.Lock()
		if !u.task.Status.IsTerminal() {
			u.workingLocked("caller input received", u.lastPercentLocked())
		}
		u.mu.Unlock()
		return answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SupplyInput delivers the caller's answer to a task suspended in
// input_required. It fails when the task is not waiting for input or an
// earlier answer has not been consumed yet.
func (u *Updater) SupplyInput(answer string) error {
	u.mu.Lock()
	status := u.task.Status
	u.mu.Unlock()
	if status != StatusInputRequired {
		return fmt.Errorf("task %s is not awaiting input (status %s)", u.TaskID(), status)
	}
	select {
	case u.input <- answer:
		return nil
	default:
		return fmt.Errorf("task %s already has input pending", u.TaskID())
	}
}

// AddArtifact attaches a named payload to the task. Artifacts accumulate
// while the task is live and become immutable with it.
func (u *Updater) AddArtifact(name, typ string, content any, metadata map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.dropIfTerminal("artifact " + name) {
		return
	}
	u.task.Artifacts[name] = Artifact{Name: name, Type: typ, Content: content, Metadata: metadata}
	u.task.UpdatedAt = time.Now()
	u.persistLocked()
	u.emitLocked("artifact attached: "+name, u.lastPercentLocked())
}

// Complete transitions the task to its terminal success state. Completing
// without at least one artifact, or from a state other than working, is a
// contract violation that fails the task instead.
func (u *Updater) Complete(summary string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.dropIfTerminal("completed") {
		return
	}
	if len(u.task.Artifacts) == 0 {
		u.violationLocked("task completed without artifacts")
		return
	}
	if err := ValidateTransition(u.task.Status, StatusCompleted); err != nil {
		u.violationLocked(err.Error())
		return
	}
	u.task.Status = StatusCompleted
	u.task.Progress = append(u.task.Progress, ProgressEntry{Message: summary, Percent: 100, At: time.Now()})
	u.task.UpdatedAt = time.Now()
	u.persistLocked()
	u.emitLocked(summary, 100)
}

// Fail records a terminal failure with a taxonomy kind and optional
// per-target causes. A task failing before any work began is first walked
// through working so observed status sequences stay legal.
func (u *Updater) Fail(kind ErrorKind, message string, causes ...TaskError) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.dropIfTerminal("failed") {
		return
	}
	u.failLocked(kind, message, causes...)
}

func (u *Updater) failLocked(kind ErrorKind, message string, causes ...TaskError) {
	if u.task.Status == StatusSubmitted {
		u.workingLocked("task failed before work began", 0)
	}
	u.task.Status = StatusFailed
	u.task.Error = NewTaskError(kind, message, causes...)
	u.task.UpdatedAt = time.Now()
	u.persistLocked()
	u.emitLocked(message, u.lastPercentLocked())
}

// Cancel transitions the task to canceled; legal from any non-terminal state.
func (u *Updater) Cancel(reason string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.dropIfTerminal("canceled") {
		return
	}
	u.task.Status = StatusCanceled
	u.task.Progress = append(u.task.Progress, ProgressEntry{Message: reason, Percent: u.lastPercentLocked(), At: time.Now()})
	u.task.UpdatedAt = time.Now()
	u.persistLocked()
	u.emitLocked(reason, u.lastPercentLocked())
}

// Child mints a sub-task updater for an orchestration target. The child
// shares the parent's event stream and store so its events interleave with
// the parent's, tagged by its own task ID, while cancellation and deadline
// scoping come from the supplied dispatch context.
func (u *Updater) Child(ctx context.Context, agentType string, req Request) *Updater {
	child := NewTask(agentType, req)
	return &Updater{
		ctx:    ctx,
		store:  u.store,
		emit:   u.emit,
		logger: u.logger,
		task:   child,
		input:  make(chan string, 1),
	}
}

// dropIfTerminal logs and swallows a mutation attempted after the task
// reached a terminal state.
func (u *Updater) dropIfTerminal(attempted string) bool {
	if !u.task.Status.IsTerminal() {
		return false
	}
	u.logger.Warn(
		"task.update.after_terminal",
		"task_id", u.task.ID,
		"agent_type", u.task.AgentType,
		"status", string(u.task.Status),
		"attempted", attempted,
	)
	return true
}

// violationLocked converts an illegal non-terminal mutation into a failed
// task per the contract-violation policy.
func (u *Updater) violationLocked(message string) {
	u.logger.Error(
		"task.contract.violation",
		"task_id", u.task.ID,
		"agent_type", u.task.AgentType,
		"error", message,
	)
	u.failLocked(KindInternalContractViolation, message)
}

func (u *Updater) lastPercentLocked() float64 {
	if n := len(u.task.Progress); n > 0 {
		return u.task.Progress[n-1].Percent
	}
	return 0
}

func (u *Updater) persistLocked() {
	if u.store == nil {
		return
	}
	if err := u.store.Save(u.task.Clone()); err != nil {
		u.logger.Warn("task.persist.error", "task_id", u.task.ID, "error", err.Error())
	}
}

func (u *Updater) emitLocked(message string, percent float64) {
	if u.emit == nil {
		return
	}
	ev := NewTaskEvent(u.task, message, percent)
	select {
	case u.emit <- ev:
	case <-u.ctx.Done():
	}
}
