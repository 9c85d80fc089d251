package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a Task.
type Status string

const (
	// StatusSubmitted is the initial state of every task.
	StatusSubmitted Status = "submitted"
	// StatusWorking indicates the executor is actively processing the task.
	StatusWorking Status = "working"
	// StatusInputRequired indicates the task is suspended waiting for caller
	// clarification; it cycles back to working once input is supplied.
	StatusInputRequired Status = "input_required"
	// StatusCompleted is the terminal success state.
	StatusCompleted Status = "completed"
	// StatusFailed is the terminal error state.
	StatusFailed Status = "failed"
	// StatusCanceled is the terminal state reached when the caller withdraws
	// the request.
	StatusCanceled Status = "canceled"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusWorking, StatusInputRequired, StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether s permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// allowedTransitions encodes the forward-only task state machine. Terminal
// states have no outgoing edges; the working <-> input_required cycle is the
// single permitted loop. A task never skips working on its way to completed
// or failed, while canceled is reachable from any non-terminal state.
var allowedTransitions = map[Status]map[Status]struct{}{
	StatusSubmitted: {
		StatusWorking:  {},
		StatusCanceled: {},
	},
	StatusWorking: {
		StatusInputRequired: {},
		StatusCompleted:     {},
		StatusFailed:        {},
		StatusCanceled:      {},
	},
	StatusInputRequired: {
		StatusWorking:  {},
		StatusFailed:   {},
		StatusCanceled: {},
	},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// ValidateTransition returns a descriptive error when from -> to is not a
// legal edge of the state machine.
func ValidateTransition(from, to Status) error {
	if !from.Valid() {
		return fmt.Errorf("invalid task status: %s", from)
	}
	if !to.Valid() {
		return fmt.Errorf("invalid task status: %s", to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid task transition: %s -> %s", from, to)
	}
	return nil
}

// ProgressEntry is one append-only human-readable status message recorded
// while a task is being worked.
type ProgressEntry struct {
	// Message describes what the executor is doing.
	Message string `json:"message"`
	// Percent is a rough completion estimate in [0, 100].
	Percent float64 `json:"percent"`
	// At is the time the entry was recorded.
	At time.Time `json:"at"`
}

// Artifact is a named payload produced by an executor on the way to
// completion. Content is either plain text or structured data.
type Artifact struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Content  any            `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Task is the unit of work and its mutable status/progress/artifact record.
// All mutation goes through the task's Updater; once a terminal status is
// reached the task is immutable.
type Task struct {
	// ID is an opaque unique identifier assigned at creation.
	ID string `json:"id"`
	// AgentType names the executor that owns this task.
	AgentType string `json:"agent_type"`
	// TenantID scopes the task to the owning organization.
	TenantID string `json:"tenant_id,omitempty"`
	// ConversationID groups a sequence of related requests.
	ConversationID string `json:"conversation_id,omitempty"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// Progress is the ordered, append-only sequence of status messages.
	Progress []ProgressEntry `json:"progress,omitempty"`
	// Artifacts maps artifact name to produced payload.
	Artifacts map[string]Artifact `json:"artifacts,omitempty"`
	// Error is set only when Status is failed.
	Error *TaskError `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a task in the submitted state for the given executor type,
// copying the request's scoping identifiers.
func NewTask(agentType string, req Request) *Task {
	now := time.Now()
	return &Task{
		ID:             NewID(),
		AgentType:      agentType,
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
		Status:         StatusSubmitted,
		Artifacts:      map[string]Artifact{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// PrimaryArtifact returns the artifact whose name sorts first, the one
// callers treat as the task's main response payload. The boolean is false
// when the task has produced no artifacts.
func (t *Task) PrimaryArtifact() (Artifact, bool) {
	if len(t.Artifacts) == 0 {
		return Artifact{}, false
	}
	names := make([]string, 0, len(t.Artifacts))
	for name := range t.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return t.Artifacts[names[0]], true
}

// Clone returns a deep copy safe for concurrent reads while the original is
// still being mutated by its Updater.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Progress = make([]ProgressEntry, len(t.Progress))
	copy(cp.Progress, t.Progress)
	cp.Artifacts = make(map[string]Artifact, len(t.Artifacts))
	for name, a := range t.Artifacts {
		cp.Artifacts[name] = a.clone()
	}
	if t.Error != nil {
		e := t.Error.Clone()
		cp.Error = &e
	}
	return &cp
}

func (a Artifact) clone() Artifact {
	cp := a
	if a.Metadata != nil {
		cp.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}

// NewID generates a unique identifier for tasks and events.
func NewID() string {
	return uuid.NewString()
}
