package sim

import (
	"math"
	"testing"
)

func activeTool(id string, seq uint64, loads Loads) *ToolInstance {
	tool := newToolInstance("req", id, Template{Name: id, Loads: loads})
	tool.Status = ToolRunning
	tool.startSeq = seq
	tool.initWork()
	return tool
}

func testCaps(t *testing.T, provided map[Resource]float64) Capacities {
	t.Helper()
	caps, err := NewCapacities(provided)
	if err != nil {
		t.Fatalf("NewCapacities: %v", err)
	}
	return caps
}

func TestFindNextCompletion_EmptyActiveSet(t *testing.T) {
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})

	_, ok := findNextCompletion(0, nil, caps, consumerCounts(nil))

	if ok {
		t.Error("completion search on empty active set: found=true, want false")
	}
}

func TestFindNextCompletion_SingleToolSingleResource(t *testing.T) {
	// GIVEN one active tool with load 100 on a capacity-100 resource
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	tool := activeTool("a", 0, Loads{ResourceCPU: 100})
	active := []*ToolInstance{tool}

	// WHEN searching from t=0
	comp, ok := findNextCompletion(0, active, caps, consumerCounts(active))

	// THEN the tool exhausts CPU at exactly load/capacity
	if !ok {
		t.Fatal("no completion found")
	}
	if comp.tool != tool || comp.resource != ResourceCPU {
		t.Errorf("got (%s, %s), want (a, cpu)", comp.tool.ID, comp.resource)
	}
	if comp.at != 1.0 {
		t.Errorf("completion time: got %g, want 1.0", comp.at)
	}
}

func TestFindNextCompletion_FairShareHalvesTheRate(t *testing.T) {
	// GIVEN two tools competing for the same resource
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	a := activeTool("a", 0, Loads{ResourceCPU: 100})
	b := activeTool("b", 1, Loads{ResourceCPU: 40})
	active := []*ToolInstance{a, b}

	comp, ok := findNextCompletion(0, active, caps, consumerCounts(active))

	// THEN each receives rate 50 and the smaller load wins
	if !ok {
		t.Fatal("no completion found")
	}
	if comp.tool != b {
		t.Errorf("completing tool: got %s, want b", comp.tool.ID)
	}
	if math.Abs(comp.at-0.8) > 1e-12 {
		t.Errorf("completion time: got %g, want 0.8", comp.at)
	}
}

func TestFindNextCompletion_PicksBottleneckResource(t *testing.T) {
	// GIVEN one tool with work on two resources, one much slower
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100, ResourceNetwork: 10})
	tool := activeTool("a", 0, Loads{ResourceCPU: 50, ResourceNetwork: 50})
	active := []*ToolInstance{tool}

	comp, ok := findNextCompletion(0, active, caps, consumerCounts(active))

	// THEN the earliest exhaustion is on the fast resource
	if !ok {
		t.Fatal("no completion found")
	}
	if comp.resource != ResourceCPU {
		t.Errorf("resource: got %s, want cpu (0.5 < 5.0)", comp.resource)
	}
	if math.Abs(comp.at-0.5) > 1e-12 {
		t.Errorf("completion time: got %g, want 0.5", comp.at)
	}
}

func TestFindNextCompletion_TieBreaksByStartOrder(t *testing.T) {
	// GIVEN two identical tools started in a known order
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	a := activeTool("a", 0, Loads{ResourceCPU: 100})
	b := activeTool("b", 1, Loads{ResourceCPU: 100})
	active := []*ToolInstance{a, b}

	comp, ok := findNextCompletion(0, active, caps, consumerCounts(active))

	// THEN the earlier-started tool wins the tie
	if !ok {
		t.Fatal("no completion found")
	}
	if comp.tool != a {
		t.Errorf("tie winner: got %s, want a", comp.tool.ID)
	}
}

func TestFindNextCompletion_ExhaustedActiveToolCompletesNow(t *testing.T) {
	// GIVEN an active tool already drained to zero (start-vs-completion tie
	// transient) alongside a tool with work left
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	done := activeTool("done", 0, Loads{ResourceCPU: 100})
	done.Remaining[ResourceCPU] = 0
	busy := activeTool("busy", 1, Loads{ResourceCPU: 100})
	active := []*ToolInstance{done, busy}

	comp, ok := findNextCompletion(3.0, active, caps, consumerCounts(active))

	// THEN the drained tool completes at the current instant
	if !ok {
		t.Fatal("no completion found")
	}
	if comp.tool != done {
		t.Errorf("completing tool: got %s, want done", comp.tool.ID)
	}
	if comp.at != 3.0 {
		t.Errorf("completion time: got %g, want now (3.0)", comp.at)
	}
}
