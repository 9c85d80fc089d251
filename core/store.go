package core

// TaskStore defines the interface for task snapshot persistence. The Updater
// saves a snapshot after every mutation so status queries observe in-flight
// progress; implementations must be safe for concurrent use and must store
// copies rather than retaining the passed pointer.
type TaskStore interface {
	Save(t *Task) error
	Get(id string) (*Task, error)
	ListByTenant(tenantID string, limit int) ([]*Task, error)
}

// ArchiveStore defines the interface for durable artifact archival, scoped
// by tenant and task. Implementations should be thread-safe. Short method
// names (Save/Get/List/Delete) mirror the TaskStore interface for
// consistency.
type ArchiveStore interface {
	Save(tenantID, taskID, name string, data []byte) error
	Get(tenantID, taskID, name string) ([]byte, error)
	List(tenantID, taskID string) ([]string, error)
	Delete(tenantID, taskID, name string) error
}
