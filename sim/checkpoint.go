// Run-state checkpointing. A checkpoint captures everything the loop needs
// to continue — clock, queued start events, the request registry with
// per-tool remaining work, and active-set order — as plain JSON-serializable
// data. Splitting a run at any instant and resuming from the checkpoint
// yields latencies identical to the uninterrupted run.

package sim

import (
	"container/heap"
	"fmt"
)

// Checkpoint is a serializable snapshot of engine state. DAG structure and
// template loads are not embedded; they are re-resolved from the providers
// on restore, which therefore must present the same configuration.
type Checkpoint struct {
	Clock      float64 `json:"clock"`
	Steps      int     `json:"steps"`
	Completed  int     `json:"completed_requests"`
	StartSeq   uint64  `json:"start_seq"`
	ArrivalSeq uint64  `json:"arrival_seq"`
	EventSeq   uint64  `json:"event_seq"`

	Events   []CheckpointEvent   `json:"events"`
	Requests []CheckpointRequest `json:"requests"`
	Active   []string            `json:"active"` // tool IDs in active-set order
}

// CheckpointEvent is one queued start event.
type CheckpointEvent struct {
	Time        float64 `json:"time"`
	Seq         uint64  `json:"seq"`
	Kind        string  `json:"kind"`
	RequestType string  `json:"request_type,omitempty"`
	RequestID   string  `json:"request_id,omitempty"`
	Node        string  `json:"node,omitempty"`
}

// CheckpointRequest is one registered request with its tool states.
type CheckpointRequest struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	Arrival float64          `json:"arrival"`
	Finish  float64          `json:"finish"`
	Tools   []CheckpointTool `json:"tools"`
}

// CheckpointTool is the runtime state of one tool instance.
type CheckpointTool struct {
	Node      string             `json:"node"`
	Status    string             `json:"status"`
	Start     float64            `json:"start"`
	Finish    float64            `json:"finish"`
	StartSeq  uint64             `json:"start_seq"`
	Remaining map[string]float64 `json:"remaining"`
}

// Checkpoint captures the engine's current state.
func (e *Engine) Checkpoint() *Checkpoint {
	cp := &Checkpoint{
		Clock:      e.clock,
		Steps:      e.steps,
		Completed:  e.completed,
		StartSeq:   e.startSeq,
		ArrivalSeq: e.arrivalSeq,
		EventSeq:   e.queue.seq,
	}
	for _, ev := range e.queue.heap {
		cp.Events = append(cp.Events, CheckpointEvent{
			Time:        ev.Time,
			Seq:         ev.seq,
			Kind:        ev.Kind.String(),
			RequestType: ev.RequestType,
			RequestID:   ev.RequestID,
			Node:        ev.Node,
		})
	}
	for _, id := range e.reqOrder {
		req := e.requests[id]
		cr := CheckpointRequest{ID: req.ID, Type: req.Type, Arrival: req.ArrivalTime, Finish: req.FinishTime}
		for _, node := range req.nodes {
			tool := req.Tools[node]
			rem := make(map[string]float64, len(Resources))
			for _, r := range Resources {
				rem[string(r)] = tool.Remaining[r]
			}
			cr.Tools = append(cr.Tools, CheckpointTool{
				Node:      node,
				Status:    string(tool.Status),
				Start:     tool.StartTime,
				Finish:    tool.FinishTime,
				StartSeq:  tool.startSeq,
				Remaining: rem,
			})
		}
		cp.Requests = append(cp.Requests, cr)
	}
	for _, tool := range e.active {
		cp.Active = append(cp.Active, tool.ID)
	}
	return cp
}

// RestoreEngine reconstructs an engine from a checkpoint. The providers must
// present the same configuration as the checkpointed run.
func RestoreEngine(cp *Checkpoint, caps Capacities, templates TemplateProvider, dags DAGProvider, collector Collector) (*Engine, error) {
	e, err := NewEngine(caps, templates, dags, collector)
	if err != nil {
		return nil, err
	}
	e.clock = cp.Clock
	e.steps = cp.Steps
	e.completed = cp.Completed
	e.startSeq = cp.StartSeq
	e.arrivalSeq = cp.ArrivalSeq

	byID := make(map[string]*ToolInstance)
	for _, cr := range cp.Requests {
		g, err := dags.DAG(cr.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: restore request type %q: %v", ErrInvalidConfig, cr.Type, err)
		}
		req, err := newRequest(cr.ID, cr.Type, cr.Arrival, g, templates)
		if err != nil {
			return nil, err
		}
		req.FinishTime = cr.Finish
		for _, ct := range cr.Tools {
			tool, ok := req.Tools[ct.Node]
			if !ok {
				return nil, fmt.Errorf("%w: restore: node %q not in DAG for type %q", ErrInvalidConfig, ct.Node, cr.Type)
			}
			tool.Status = ToolStatus(ct.Status)
			tool.StartTime = ct.Start
			tool.FinishTime = ct.Finish
			tool.startSeq = ct.StartSeq
			for _, r := range Resources {
				tool.Remaining[r] = ct.Remaining[string(r)]
			}
			byID[tool.ID] = tool
		}
		e.requests[cr.ID] = req
		e.reqOrder = append(e.reqOrder, cr.ID)
	}

	for _, ce := range cp.Events {
		ev := Event{Time: ce.Time, RequestType: ce.RequestType, RequestID: ce.RequestID, Node: ce.Node, seq: ce.Seq}
		switch ce.Kind {
		case EventRequestArrival.String():
			ev.Kind = EventRequestArrival
		case EventToolStart.String():
			ev.Kind = EventToolStart
		default:
			return nil, fmt.Errorf("%w: restore: unknown event kind %q", ErrInvalidConfig, ce.Kind)
		}
		e.queue.heap = append(e.queue.heap, ev)
	}
	e.queue.seq = cp.EventSeq
	heap.Init(&e.queue.heap)

	for _, id := range cp.Active {
		tool, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: restore: active tool %q not found", ErrInvalidConfig, id)
		}
		e.active = append(e.active, tool)
	}
	return e, nil
}
