package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/hangarhq/aeromesh/logging"
)

// Executor is the unit of work the runtime schedules. Implementations drive
// their task exclusively through the supplied Updater and return once the
// task is terminal. A nil return with a non-terminal task, a panic, or an
// unwrapped error are all normalized by Run so callers always observe a
// terminal task.
type Executor interface {
	// AgentType is the stable routing key, unique within a registry.
	AgentType() string

	// Name is a human-readable display name.
	Name() string

	// Description summarizes the executor's capabilities for listings and
	// model-based routing prompts.
	Description() string

	// ExecuteTask performs the work for one request. The context carries the
	// dispatch deadline and cancellation; the updater is the only legal way
	// to mutate the task.
	ExecuteTask(ctx context.Context, req Request, up *Updater) error
}

// Run drives one executor to a terminal task state. It recovers panics,
// maps context cancellation and deadline errors onto canceled and
// timeout outcomes, and converts every remaining irregularity into a
// failed task so the returned snapshot is always terminal.
func Run(ctx context.Context, exec Executor, req Request, up *Updater) *Task {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			up.Fail(KindTimeout, fmt.Sprintf("agent %s: deadline expired before execution began", exec.AgentType()))
		} else {
			up.Cancel(fmt.Sprintf("agent %s: canceled before execution began", exec.AgentType()))
		}
		return up.Task()
	}

	err := runSafely(ctx, exec, req, up)

	t := up.Task()
	if t.Status.IsTerminal() {
		return t
	}

	switch {
	case err == nil:
		up.Fail(KindInternalContractViolation,
			fmt.Sprintf("executor %s returned without reaching a terminal status", exec.AgentType()))
	case errors.Is(err, context.DeadlineExceeded):
		up.Fail(KindTimeout, fmt.Sprintf("agent %s: %s", exec.AgentType(), err))
	case errors.Is(err, context.Canceled):
		up.Cancel(fmt.Sprintf("agent %s: %s", exec.AgentType(), err))
	default:
		up.Fail(KindOf(err), err.Error())
	}
	return up.Task()
}

func runSafely(ctx context.Context, exec Executor, req Request, up *Updater) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewTaskError(KindInternalContractViolation, fmt.Sprintf("executor %s panicked: %v", exec.AgentType(), r))
		}
	}()
	return exec.ExecuteTask(ctx, req, up)
}

// ExecuteOptions configures a one-shot Execute call.
type ExecuteOptions struct {
	// Store receives task snapshots after every mutation. Optional.
	Store TaskStore
	// Emit receives task events during execution. Optional.
	Emit chan<- TaskEvent
	// Logger receives updater warnings.
	Logger logging.Logger
}

// Execute creates a task for the request and runs the executor to a
// terminal state, returning the final snapshot. It is the synchronous
// entry point; the runner layers streaming and lifecycle management on
// the same Run primitive.
func Execute(ctx context.Context, exec Executor, req Request, optFns ...func(o *ExecuteOptions)) *Task {
	opts := ExecuteOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	task := NewTask(exec.AgentType(), req)
	up := NewUpdater(ctx, task, func(o *UpdaterOptions) {
		o.Store = opts.Store
		o.Emit = opts.Emit
		o.Logger = opts.Logger
	})
	return Run(ctx, exec, req, up)
}
