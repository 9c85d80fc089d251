// Package orchestrator routes requests across the registered domain agents
// and coordinates their execution.
//
// Routing is pluggable through RouterStrategy. The default KeywordRouter
// scores each registered agent by matched capability keywords; ModelRouter
// asks the reasoning model to pick targets and falls back to keywords when
// the model is unavailable or returns nothing usable.
//
// Dispatch runs one child task per target, sequentially for a single target
// and concurrently for several, with a structured join: the orchestration
// task stays working until every child reaches a terminal status. Child
// failures never cross the dispatch boundary as errors; they surface as
// failed child tasks and become failure annotations in the composite
// response. The orchestration completes when at least one child succeeds
// and fails with an aggregate error only when all of them fail.
package orchestrator
