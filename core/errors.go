package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies task failures. Kinds are recorded on the failing task
// and surfaced to callers; they are stable strings suitable for wire use.
type ErrorKind string

const (
	// KindUnknownAgentType marks a request for an agent type that is not
	// registered. Surfaced synchronously; no task is created.
	KindUnknownAgentType ErrorKind = "unknown_agent_type"
	// KindDuplicateAgentType marks a registration-time key conflict.
	KindDuplicateAgentType ErrorKind = "duplicate_agent_type"
	// KindNoMatchingAgent marks an orchestration whose routing found no
	// candidate above the score threshold.
	KindNoMatchingAgent ErrorKind = "no_matching_agent"
	// KindToolInvocation marks a failed domain tool call.
	KindToolInvocation ErrorKind = "tool_invocation_error"
	// KindTimeout marks a sub-task that exceeded its allotted time.
	KindTimeout ErrorKind = "timeout"
	// KindAllTargetsFailed marks an orchestration where every dispatched
	// target failed, timed out or was canceled.
	KindAllTargetsFailed ErrorKind = "all_targets_failed"
	// KindInternalContractViolation marks an executor that broke the task
	// contract (illegal transition, missing artifact, escaped error or
	// panic). Logged and converted to a failed task, never a crash.
	KindInternalContractViolation ErrorKind = "internal_contract_violation"
)

// TaskError is the structured error recorded on a failed task. Causes carries
// per-target sub-errors for aggregate kinds such as KindAllTargetsFailed.
type TaskError struct {
	Kind    ErrorKind   `json:"kind"`
	Message string      `json:"message"`
	Causes  []TaskError `json:"causes,omitempty"`
}

// NewTaskError builds a TaskError with optional underlying causes.
func NewTaskError(kind ErrorKind, message string, causes ...TaskError) *TaskError {
	return &TaskError{Kind: kind, Message: message, Causes: causes}
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	causes := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		causes = append(causes, fmt.Sprintf("%s: %s", c.Kind, c.Message))
	}
	return fmt.Sprintf("%s: %s (causes: %s)", e.Kind, e.Message, strings.Join(causes, "; "))
}

// Clone returns a deep copy of the error.
func (e TaskError) Clone() TaskError {
	cp := e
	cp.Causes = make([]TaskError, len(e.Causes))
	for i, c := range e.Causes {
		cp.Causes[i] = c.Clone()
	}
	return cp
}

// KindOf extracts the ErrorKind from an error chain: a *TaskError keeps its
// kind, anything else defaults to KindInternalContractViolation since raw
// errors escaping an executor are themselves a contract breach.
func KindOf(err error) ErrorKind {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternalContractViolation
}
