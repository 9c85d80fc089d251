package core

import "time"

// TaskEvent is one entry in a task's ordered status stream. Events are
// emitted by the task's Updater at every observable mutation; within one
// task they are strictly ordered, across sibling sub-tasks no ordering is
// guaranteed. Orchestration sub-task events share the root task's stream
// and are distinguished by TaskID.
type TaskEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`
	// TaskID names the task this event belongs to.
	TaskID string `json:"task_id"`
	// AgentType names the executor working the task.
	AgentType string `json:"agent_type"`
	// Status is the task status after the mutation.
	Status Status `json:"status"`
	// Message is the progress or outcome message attached to the mutation.
	Message string `json:"message,omitempty"`
	// Percent is the completion estimate carried by progress events.
	Percent float64 `json:"percent,omitempty"`
	// Final marks the event that carries the task's terminal status.
	Final bool `json:"final"`
	// Timestamp records when the event was produced.
	Timestamp time.Time `json:"timestamp"`
}

// NewTaskEvent builds an event snapshot for the task's current status.
func NewTaskEvent(t *Task, message string, percent float64) TaskEvent {
	return TaskEvent{
		ID:        NewID(),
		TaskID:    t.ID,
		AgentType: t.AgentType,
		Status:    t.Status,
		Message:   message,
		Percent:   percent,
		Final:     t.Status.IsTerminal(),
		Timestamp: time.Now(),
	}
}
