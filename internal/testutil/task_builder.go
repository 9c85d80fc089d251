package testutil

import (
	"time"

	"github.com/hangarhq/aeromesh/core"
)

// TaskBuilder provides a fluent helper for constructing task snapshots in
// tests, bypassing the updater so stores can be exercised with tasks in any
// state. Example:
//
//	task := NewTaskBuilder().AgentType("meeting").Status(core.StatusWorking).Progress("booking", 25).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TaskBuilder struct {
	task *core.Task
}

// NewTaskBuilder creates a builder for an "hr" task owned by the "default"
// tenant in the submitted state.
func NewTaskBuilder() *TaskBuilder {
	return &TaskBuilder{task: core.NewTask("hr", core.Request{Message: "test message", TenantID: "default"})}
}

// ID overrides the auto-generated task ID (chainable).
func (b *TaskBuilder) ID(id string) *TaskBuilder { b.task.ID = id; return b }

// AgentType sets the owning executor type (chainable).
func (b *TaskBuilder) AgentType(agentType string) *TaskBuilder {
	b.task.AgentType = agentType
	return b
}

// Tenant sets the owning tenant (chainable).
func (b *TaskBuilder) Tenant(tenantID string) *TaskBuilder { b.task.TenantID = tenantID; return b }

// Conversation sets the conversation grouping (chainable).
func (b *TaskBuilder) Conversation(conversationID string) *TaskBuilder {
	b.task.ConversationID = conversationID
	return b
}

// Status sets the lifecycle state directly (chainable).
func (b *TaskBuilder) Status(s core.Status) *TaskBuilder { b.task.Status = s; return b }

// Progress appends one progress entry timestamped now (chainable).
func (b *TaskBuilder) Progress(message string, percent float64) *TaskBuilder {
	b.task.Progress = append(b.task.Progress, core.ProgressEntry{Message: message, Percent: percent, At: time.Now()})
	return b
}

// Artifact attaches a named artifact (chainable). Metadata may be nil.
func (b *TaskBuilder) Artifact(name, typ string, content any, metadata map[string]any) *TaskBuilder {
	b.task.Artifacts[name] = core.Artifact{Name: name, Type: typ, Content: content, Metadata: metadata}
	return b
}

// Error sets the task error (chainable). Pair with Status(core.StatusFailed).
func (b *TaskBuilder) Error(kind core.ErrorKind, message string, causes ...core.TaskError) *TaskBuilder {
	b.task.Error = core.NewTaskError(kind, message, causes...)
	return b
}

// UpdatedAt overrides the last-modified timestamp (chainable). Useful for
// exercising recency ordering in store listings.
func (b *TaskBuilder) UpdatedAt(at time.Time) *TaskBuilder { b.task.UpdatedAt = at; return b }

// Build returns the constructed task.
func (b *TaskBuilder) Build() *core.Task { return b.task }
