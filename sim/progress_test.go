package sim

import (
	"errors"
	"math"
	"testing"
)

func TestConsumerCounts_IgnoresExhaustedResources(t *testing.T) {
	// GIVEN two tools, one of which has drained its network work
	a := activeTool("a", 0, Loads{ResourceCPU: 100, ResourceNetwork: 50})
	a.Remaining[ResourceNetwork] = 0
	b := activeTool("b", 1, Loads{ResourceCPU: 80})

	counts := consumerCounts([]*ToolInstance{a, b})

	if counts[ResourceCPU] != 2 {
		t.Errorf("cpu consumers: got %d, want 2", counts[ResourceCPU])
	}
	if counts[ResourceNetwork] != 0 {
		t.Errorf("network consumers: got %d, want 0", counts[ResourceNetwork])
	}
}

func TestAccountProgress_DebitsFairShare(t *testing.T) {
	// GIVEN two tools sharing CPU at capacity 100 (rate 50 each)
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	a := activeTool("a", 0, Loads{ResourceCPU: 100})
	b := activeTool("b", 1, Loads{ResourceCPU: 80})
	active := []*ToolInstance{a, b}

	// WHEN accounting 0.5 seconds
	if err := accountProgress(0, 0.5, active, caps, consumerCounts(active)); err != nil {
		t.Fatalf("accountProgress: %v", err)
	}

	// THEN each was debited 25 units
	if math.Abs(a.Remaining[ResourceCPU]-75) > 1e-12 {
		t.Errorf("a remaining: got %g, want 75", a.Remaining[ResourceCPU])
	}
	if math.Abs(b.Remaining[ResourceCPU]-55) > 1e-12 {
		t.Errorf("b remaining: got %g, want 55", b.Remaining[ResourceCPU])
	}
}

func TestAccountProgress_ZeroDeltaIsNoOp(t *testing.T) {
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	a := activeTool("a", 0, Loads{ResourceCPU: 100})
	active := []*ToolInstance{a}

	if err := accountProgress(0, 0, active, caps, consumerCounts(active)); err != nil {
		t.Fatalf("accountProgress: %v", err)
	}

	if a.Remaining[ResourceCPU] != 100 {
		t.Errorf("remaining changed on zero delta: got %g", a.Remaining[ResourceCPU])
	}
}

func TestAccountProgress_ClampsAtZeroWithinTolerance(t *testing.T) {
	// GIVEN a tool whose remaining work is exactly consumed by the interval
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	a := activeTool("a", 0, Loads{ResourceCPU: 100})
	active := []*ToolInstance{a}

	if err := accountProgress(0, 1.0, active, caps, consumerCounts(active)); err != nil {
		t.Fatalf("accountProgress: %v", err)
	}

	if a.Remaining[ResourceCPU] != 0 {
		t.Errorf("remaining: got %g, want exactly 0", a.Remaining[ResourceCPU])
	}
}

func TestAccountProgress_OverDebitIsInvariantViolation(t *testing.T) {
	// GIVEN an interval longer than the earliest completion (a logic defect)
	caps := testCaps(t, map[Resource]float64{ResourceCPU: 100})
	a := activeTool("a", 0, Loads{ResourceCPU: 100})
	active := []*ToolInstance{a}

	err := accountProgress(0, 2.0, active, caps, consumerCounts(active))

	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("over-debit: got %v, want ErrInvariant", err)
	}
	var inv *InvariantError
	if !errors.As(err, &inv) {
		t.Fatal("error is not an *InvariantError")
	}
	if inv.Entity != "req/a" {
		t.Errorf("offending entity: got %q, want req/a", inv.Entity)
	}
}
