// Package core defines the task-execution contract shared by every aeromesh
// agent: the Task entity and its state machine, the single-writer Updater
// that records status, progress and artifacts, the Executor interface each
// domain agent implements, and the Run/Execute drivers that normalize
// executor outcomes so errors never cross a dispatch boundary.
//
// Interfaces for persistence (TaskStore, ArchiveStore) live here so that
// implementation packages (task, artifact) can be swapped without touching
// calling code. The core itself holds no I/O.
package core
