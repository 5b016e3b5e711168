package sim

import (
	"encoding/json"
	"testing"
)

func TestCheckpoint_SplitAndResumeMatchesUninterruptedRun(t *testing.T) {
	templates := stubTemplates{"x": Loads{ResourceCPU: 100}, "y": Loads{ResourceCPU: 50}}
	dags := stubDAGs{}
	build := func() (*Engine, *recordingCollector) {
		engine, collector := newTestEngine(t,
			map[Resource]float64{ResourceCPU: 100},
			templates,
			dags,
		)
		scheduleArrival(t, engine, 0, "req-x", "x")
		scheduleArrival(t, engine, 0.5, "req-y", "y")
		return engine, collector
	}
	dags["req-x"] = singleNodeDAG(t, "x")
	dags["req-y"] = singleNodeDAG(t, "y")

	// GIVEN an uninterrupted reference run
	reference, refCollector := build()
	if err := reference.Run(10); err != nil {
		t.Fatalf("reference Run: %v", err)
	}

	// AND a run stopped mid-flight, checkpointed through a JSON round-trip
	split, _ := build()
	if err := split.Run(0.6); err != nil {
		t.Fatalf("split Run: %v", err)
	}
	if split.Stats().ActiveTools == 0 {
		t.Fatal("split point is not mid-flight; nothing to resume")
	}
	data, err := json.Marshal(split.Checkpoint())
	if err != nil {
		t.Fatalf("marshal checkpoint: %v", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		t.Fatalf("unmarshal checkpoint: %v", err)
	}

	// WHEN restoring and finishing the run
	resumedCollector := &recordingCollector{}
	resumed, err := RestoreEngine(&cp, testCaps(t, map[Resource]float64{ResourceCPU: 100}), templates, dags, resumedCollector)
	if err != nil {
		t.Fatalf("RestoreEngine: %v", err)
	}
	if resumed.Clock() != split.Clock() {
		t.Errorf("restored clock: got %g, want %g", resumed.Clock(), split.Clock())
	}
	if err := resumed.Run(10); err != nil {
		t.Fatalf("resumed Run: %v", err)
	}

	// THEN the resumed run reports exactly the reference latencies
	if len(resumedCollector.records) != len(refCollector.records) {
		t.Fatalf("completions: got %d, want %d", len(resumedCollector.records), len(refCollector.records))
	}
	for _, ref := range refCollector.records {
		got := resumedCollector.latencyOf(t, ref.RequestID)
		if got != ref.Latency {
			t.Errorf("request %s: resumed latency %g, reference %g", ref.RequestID, got, ref.Latency)
		}
	}
}

func TestCheckpoint_CapturesQueueAndRemainingWork(t *testing.T) {
	engine, _ := newTestEngine(t,
		map[Resource]float64{ResourceCPU: 100},
		stubTemplates{"x": Loads{ResourceCPU: 100}},
		stubDAGs{"req-x": singleNodeDAG(t, "x")},
	)
	scheduleArrival(t, engine, 0, "req-x", "a")
	scheduleArrival(t, engine, 5.0, "req-x", "b")
	if err := engine.Run(1.0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cp := engine.Checkpoint()

	// Request a completed at t=1; b's arrival is still queued.
	if len(cp.Events) != 1 || cp.Events[0].Kind != EventRequestArrival.String() || cp.Events[0].Time != 5.0 {
		t.Errorf("queued events: got %+v, want one arrival at t=5", cp.Events)
	}
	if len(cp.Requests) != 1 || cp.Requests[0].ID != "a" {
		t.Fatalf("registered requests: got %+v, want [a]", cp.Requests)
	}
	tool := cp.Requests[0].Tools[0]
	if tool.Status != string(ToolCompleted) || tool.Remaining[string(ResourceCPU)] != 0 {
		t.Errorf("tool state: got %+v, want completed with zero remaining", tool)
	}
	if len(cp.Active) != 0 {
		t.Errorf("active set: got %v, want empty", cp.Active)
	}
}
