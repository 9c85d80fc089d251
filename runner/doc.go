// Package runner implements the task lifecycle layer for aeromesh.
//
// The Runner accepts requests, resolves the target executor through the
// registry and drives each task to a terminal state. It offers a synchronous
// Submit for request/response callers and SubmitStream for consumers that
// want the ordered task event stream. It also owns the per-conversation
// concurrency rule: at most one active task per (tenant, conversation), with
// a busy conversation rejected synchronously before any task is created.
//
// Terminal task artifacts are archived to the configured ArchiveStore keyed
// by tenant and task. Public methods are safe for concurrent use.
package runner
