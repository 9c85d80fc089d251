// Package artifact contains concrete implementations of core.ArchiveStore,
// the tenant-scoped archive terminal task artifacts land in.
//
// The interface lives in core so the runner and transport never depend on a
// particular backend. InMemoryStore covers tests and single-process runs;
// durable backends (object stores, databases) can be added here without
// touching calling code.
package artifact
