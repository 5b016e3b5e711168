// The simulation engine: a continuous-time, event-driven loop with dynamic
// max-min fair-share allocation. Completion times are never pre-scheduled;
// each iteration recomputes the next completion from live state, advances to
// the earlier of next-start and next-completion, debits progress under the
// shares in force over the interval, and dispatches exactly one event.

package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/agentic-sim/agentic-sim/sim/dag"
)

// TemplateProvider yields per-resource loads for a tool template name.
// Pure lookup; implementations must be deterministic.
type TemplateProvider interface {
	Template(name string) (Template, error)
}

// DAGProvider yields the tool DAG for a request type.
type DAGProvider interface {
	DAG(requestType string) (*dag.Graph, error)
}

// Engine drives the simulation. Single-threaded cooperative simulated time:
// simulated time is the only clock, and all state is touched exclusively by
// the main loop.
type Engine struct {
	caps      Capacities
	templates TemplateProvider
	dags      DAGProvider
	collector Collector

	clock    float64
	queue    eventQueue
	requests map[string]*Request
	reqOrder []string
	// active holds running tools in start order; it is the authoritative
	// fair-share denominator and the deterministic iteration order.
	active []*ToolInstance

	startSeq   uint64
	arrivalSeq uint64
	steps      int
	completed  int
}

// NewEngine validates the capacity table and returns an engine wired to its
// collaborators. collector may be nil to run without metrics.
func NewEngine(caps Capacities, templates TemplateProvider, dags DAGProvider, collector Collector) (*Engine, error) {
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	if templates == nil {
		return nil, fmt.Errorf("%w: nil template provider", ErrInvalidConfig)
	}
	if dags == nil {
		return nil, fmt.Errorf("%w: nil DAG provider", ErrInvalidConfig)
	}
	return &Engine{
		caps:      caps,
		templates: templates,
		dags:      dags,
		collector: collector,
		requests:  make(map[string]*Request),
	}, nil
}

// Schedule pushes a start event. Timestamps must not precede the current
// simulation time.
func (e *Engine) Schedule(ev Event) error {
	if ev.Time < e.clock {
		return invariantf(ev.String(), e.clock,
			"event timestamp %g precedes current time %g", ev.Time, e.clock)
	}
	e.queue.push(ev)
	return nil
}

// Run drives the loop until the queue and active set drain (benign
// exhaustion) or the next event would pass the deadline. Returning nil with
// events still queued simply means the deadline cut the run short; a second
// Run with a later deadline continues it.
func (e *Engine) Run(until float64) error {
	for {
		counts := consumerCounts(e.active)

		tStart := math.Inf(1)
		if ev, ok := e.queue.peek(); ok {
			tStart = ev.Time
		}

		comp, compOK := findNextCompletion(e.clock, e.active, e.caps, counts)
		tComplete := math.Inf(1)
		if compOK {
			tComplete = comp.at
		} else if len(e.active) > 0 {
			return invariantf(e.active[0].ID, e.clock,
				"completion search found nothing although %d tools are active", len(e.active))
		}

		tNext := math.Min(tStart, tComplete)
		if math.IsInf(tNext, 1) || tNext > until {
			break
		}

		if err := accountProgress(e.clock, tNext-e.clock, e.active, e.caps, counts); err != nil {
			return err
		}
		e.clock = tNext

		// Start wins ties: with a zero interval no work is debited, and
		// eligible-at-arrival tools are queued before completions are applied.
		if tStart <= tComplete {
			ev := e.queue.pop()
			var err error
			switch ev.Kind {
			case EventRequestArrival:
				err = e.handleArrival(ev)
			case EventToolStart:
				err = e.handleToolStart(ev)
			default:
				err = invariantf(ev.String(), e.clock, "unknown event kind %d", ev.Kind)
			}
			if err != nil {
				return err
			}
		} else {
			if err := e.applyCompletion(comp); err != nil {
				return err
			}
		}

		e.steps++
		if e.collector != nil {
			e.collector.Snapshot(e.snapshot())
		}
	}
	return nil
}

// handleArrival materializes the request from its DAG template, registers
// it, and enqueues a tool-start for every DAG root at the current time.
func (e *Engine) handleArrival(ev Event) error {
	e.arrivalSeq++
	id := ev.RequestID
	if id == "" {
		id = fmt.Sprintf("req-%05d", e.arrivalSeq)
	}
	if _, exists := e.requests[id]; exists {
		return invariantf(id, e.clock, "duplicate request id")
	}

	g, err := e.dags.DAG(ev.RequestType)
	if err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			return fmt.Errorf("request type %q: %w", ev.RequestType, err)
		}
		return fmt.Errorf("%w: request type %q: %v", ErrInvalidConfig, ev.RequestType, err)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: request type %q: %v", ErrInvalidConfig, ev.RequestType, err)
	}

	req, err := newRequest(id, ev.RequestType, e.clock, g, e.templates)
	if err != nil {
		return err
	}
	e.requests[id] = req
	e.reqOrder = append(e.reqOrder, id)

	for _, root := range g.Roots() {
		e.queue.push(newToolStart(e.clock, id, root))
	}
	return nil
}

// handleToolStart transitions a pending tool to running and inserts it into
// the active set. The next completion search considers it automatically.
func (e *Engine) handleToolStart(ev Event) error {
	req, ok := e.requests[ev.RequestID]
	if !ok {
		return invariantf(ev.RequestID, e.clock, "tool-start for unknown request")
	}
	tool, ok := req.Tools[ev.Node]
	if !ok {
		return invariantf(ev.RequestID+"/"+ev.Node, e.clock, "tool-start for unknown node")
	}
	if tool.Status != ToolPending {
		return invariantf(tool.ID, e.clock, "tool-start found status %q, want pending", tool.Status)
	}
	if !req.CanStart(ev.Node) {
		return invariantf(tool.ID, e.clock, "tool-start with uncompleted predecessor")
	}

	tool.Status = ToolRunning
	tool.StartTime = e.clock
	tool.startSeq = e.startSeq
	e.startSeq++
	tool.initWork()
	e.active = append(e.active, tool)

	// A tool whose template declares zero load everywhere completes at the
	// instant it starts.
	if tool.Done() {
		return e.finalizeCompleted()
	}
	return nil
}

// applyCompletion handles a synthesized completion: the searched resource is
// zeroed exactly, and if the tool (and any co-finishing tools) are fully
// exhausted they are finalized. A tool with other resources still positive
// simply stops counting toward this resource's denominator.
func (e *Engine) applyCompletion(comp completion) error {
	comp.tool.Remaining[comp.resource] = 0
	if !comp.tool.Done() {
		return nil
	}
	return e.finalizeCompleted()
}

// finalizeCompleted removes every fully exhausted tool from the active set
// (in start order), stamps finish times, walks DAG successors, and records
// finished requests with the collector.
func (e *Engine) finalizeCompleted() error {
	var finished []*ToolInstance
	remaining := e.active[:0]
	for _, tool := range e.active {
		if tool.Done() {
			finished = append(finished, tool)
		} else {
			remaining = append(remaining, tool)
		}
	}
	e.active = remaining

	for _, tool := range finished {
		tool.Status = ToolCompleted
		tool.FinishTime = e.clock
		for _, r := range Resources {
			tool.Remaining[r] = 0
		}

		req, ok := e.requests[tool.RequestID]
		if !ok {
			return invariantf(tool.ID, e.clock, "completion for unknown request")
		}
		for _, succ := range req.Graph.Successors(tool.Node) {
			next := req.Tools[succ]
			if next.Status == ToolPending && req.CanStart(succ) {
				e.queue.push(newToolStart(e.clock, req.ID, succ))
			}
		}
		if req.Done() {
			req.FinishTime = e.clock
			e.completed++
			if e.collector != nil {
				e.collector.RecordRequest(RequestRecord{
					RequestID:   req.ID,
					RequestType: req.Type,
					ArrivalTime: req.ArrivalTime,
					FinishTime:  req.FinishTime,
					Latency:     req.Latency(),
				})
			}
		}
	}
	return nil
}

func (e *Engine) snapshot() StepSnapshot {
	counts := consumerCounts(e.active)
	util := make(map[Resource]float64, len(Resources))
	alloc := make(map[Resource][]ToolShare, len(Resources))
	for _, r := range Resources {
		if counts[r] == 0 {
			util[r] = 0
			continue
		}
		util[r] = 1
		share := e.caps.Get(r) / float64(counts[r])
		for _, tool := range e.active {
			if tool.HasWorkOn(r) {
				alloc[r] = append(alloc[r], ToolShare{ToolID: tool.ID, Share: share})
			}
		}
	}
	return StepSnapshot{
		Time:        e.clock,
		ActiveTools: len(e.active),
		Utilization: util,
		Allocations: alloc,
	}
}

// Clock returns the current simulation time.
func (e *Engine) Clock() float64 { return e.clock }

// Request looks up a materialized request by identity.
func (e *Engine) Request(id string) (*Request, bool) {
	req, ok := e.requests[id]
	return req, ok
}

// Stats summarizes run-level counters.
type Stats struct {
	Clock             float64
	Steps             int
	TotalRequests     int
	CompletedRequests int
	ActiveTools       int
	PendingEvents     int
}

func (e *Engine) Stats() Stats {
	return Stats{
		Clock:             e.clock,
		Steps:             e.steps,
		TotalRequests:     len(e.requests),
		CompletedRequests: e.completed,
		ActiveTools:       len(e.active),
		PendingEvents:     e.queue.len(),
	}
}
