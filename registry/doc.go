// Package registry maintains the set of executors available for dispatch,
// keyed by agent type. Registration happens once at startup; afterwards the
// registry is a read-mostly lookup shared by the runner and the orchestrator.
package registry
