// Package server exposes the aeromesh runner over HTTP.
//
// The server wires a gin engine around the runner and the tenant registry:
// POST /chat submits a request and blocks until the task is terminal,
// the /tasks routes cover status, clarification input and cancellation, and
// read-only listings exist for agents, tenants and health. Synchronous
// rejections map onto conventional status codes: unknown agents and tenants
// are 404, a busy conversation slot is 409, malformed bodies are 400.
package server
