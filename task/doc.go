// Package task houses concrete implementations of core.TaskStore. The
// interface lives in core so executors and the runner never depend on a
// particular backend; wiring picks the implementation.
//
// InMemoryStore serves tests and single-process runs. SQLiteStore persists
// snapshots across restarts so task status queries survive a process
// bounce.
package task
