// Package sim provides the core discrete-event simulation engine for agentic-sim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - tool.go / request.go: tool instance and request lifecycle (pending → running → completed)
//   - event.go / queue.go: the start-only event queue (arrivals and tool starts; completions are never stored)
//   - engine.go: the event loop, fair-share accounting, and completion dispatch
//
// # Architecture
//
// The engine refuses to pre-schedule completion events. At every step it
// recomputes the next completion from live state (completion.go), advances
// time to the earlier of next-start and next-completion, debits remaining
// work under the fair shares in force over the interval (progress.go), and
// dispatches exactly one event. Between adjacent events the active set is
// constant, so every remaining-work trajectory is piecewise linear and the
// advance is closed-form.
//
// The sim package defines interfaces and engine types; collaborators live in
// sub-packages:
//   - sim/dag/: request DAG templates (gonum-backed)
//   - sim/scenario/: YAML scenario loading, tool catalog, providers
//   - sim/workload/: seeded Poisson arrival generation
//   - sim/metrics/: latency/utilization collection and reporting
//   - sim/experiment/: max-sustainable-rate search
//
// # Key Interfaces
//
// The extension points are small interfaces consumed by the engine:
//   - TemplateProvider: tool template name → per-resource loads
//   - DAGProvider: request type → tool DAG
//   - Collector: per-request latency records and per-step snapshots
package sim
