package core

// Request is the immutable context for one task-execution call. It is owned
// by the caller for the duration of the request and never mutated by the
// core; per-request working state lives on the Task instead.
type Request struct {
	// Message is the user's natural-language input.
	Message string `json:"message"`
	// TenantID identifies the owning organization and scopes which agents
	// and tools are visible.
	TenantID string `json:"tenant_id,omitempty"`
	// ConversationID optionally groups a sequence of requests; the runner
	// uses it to enforce the one-active-task-per-conversation slot.
	ConversationID string `json:"conversation_id,omitempty"`
	// UserID optionally identifies the requesting user.
	UserID string `json:"user_id,omitempty"`
}
