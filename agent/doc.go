// Package agent contains the domain executors that perform the actual work
// behind each agent type. The package focuses on three concerns:
//
//  1. Shared reasoning + tool plumbing (BaseAgent)
//  2. Domain executors for HR, meeting and supply chain requests
//  3. Deterministic degradation when no reasoning model is reachable
//
// Execution model:
//   - Each executor drives its task through a core.Updater: progress at the
//     analysis and processing milestones, one response artifact, then a
//     terminal state
//   - Tool invocations are triggered by request keywords; hard tool errors
//     fail the task while in-band error envelopes are reported in the
//     response text
//   - Model errors never fail a task; the executor falls back to a
//     deterministic response so domain actions still complete
//
// The package intentionally keeps routing, persistence and transport in
// their respective packages to avoid cyclic deps.
package agent
