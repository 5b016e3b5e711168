// Package metrics implements the engine's Collector interface: per-request
// latency records, per-step utilization snapshots, and the derived
// statistics used for reporting and SLO evaluation.
package metrics

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/agentic-sim/agentic-sim/sim"
)

// Collector accumulates simulation output. It is driven by the engine's
// single-threaded loop and needs no locking.
type Collector struct {
	records   []sim.RequestRecord
	byType    map[string][]float64
	typeOrder []string
	snapshots []sim.StepSnapshot
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{byType: make(map[string][]float64)}
}

// RecordRequest implements sim.Collector.
func (c *Collector) RecordRequest(rec sim.RequestRecord) {
	c.records = append(c.records, rec)
	if _, ok := c.byType[rec.RequestType]; !ok {
		c.typeOrder = append(c.typeOrder, rec.RequestType)
	}
	c.byType[rec.RequestType] = append(c.byType[rec.RequestType], rec.Latency)
}

// Snapshot implements sim.Collector. Every step is kept; the snapshots are
// the basis for utilization and timeline reporting.
func (c *Collector) Snapshot(snap sim.StepSnapshot) {
	c.snapshots = append(c.snapshots, snap)
}

// Records returns all completion records in completion order.
func (c *Collector) Records() []sim.RequestRecord { return c.records }

// RequestTypes returns the observed request types in first-completion order.
func (c *Collector) RequestTypes() []string {
	out := make([]string, len(c.typeOrder))
	copy(out, c.typeOrder)
	return out
}

// LatencyStats summarizes a latency population in seconds.
type LatencyStats struct {
	Count  int
	Mean   float64
	Median float64
	P50    float64
	P95    float64
	P99    float64
	Min    float64
	Max    float64
}

// LatencyStats computes statistics for one request type, or for all
// completed requests when requestType is empty.
func (c *Collector) LatencyStats(requestType string) LatencyStats {
	data := c.latencies(requestType)
	if len(data) == 0 {
		return LatencyStats{}
	}
	out := LatencyStats{Count: len(data)}
	out.Mean, _ = stats.Mean(data)
	out.Median, _ = stats.Median(data)
	out.P50, _ = stats.Percentile(data, 50)
	out.P95, _ = stats.Percentile(data, 95)
	out.P99, _ = stats.Percentile(data, 99)
	out.Min, _ = stats.Min(data)
	out.Max, _ = stats.Max(data)
	return out
}

// Percentile returns the p-th latency percentile for a request type
// ("" for overall). ok is false when no requests completed.
func (c *Collector) Percentile(requestType string, p float64) (float64, bool) {
	data := c.latencies(requestType)
	if len(data) == 0 {
		return 0, false
	}
	v, err := stats.Percentile(data, p)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *Collector) latencies(requestType string) stats.Float64Data {
	if requestType != "" {
		return stats.Float64Data(c.byType[requestType])
	}
	var all []float64
	for _, t := range c.typeOrder {
		all = append(all, c.byType[t]...)
	}
	return stats.Float64Data(all)
}

// ThroughputStats reports completions over the observed window.
type ThroughputStats struct {
	Requests int
	Duration float64
	PerSec   float64
	PerMin   float64
}

// Throughput computes the completion rate for a request type ("" for all)
// over the snapshot window.
func (c *Collector) Throughput(requestType string) ThroughputStats {
	count := 0
	if requestType == "" {
		count = len(c.records)
	} else {
		count = len(c.byType[requestType])
	}
	duration := c.window()
	if duration <= 0 {
		duration = 1.0
	}
	return ThroughputStats{
		Requests: count,
		Duration: duration,
		PerSec:   float64(count) / duration,
		PerMin:   float64(count) / duration * 60,
	}
}

func (c *Collector) window() float64 {
	if len(c.snapshots) < 2 {
		return 0
	}
	return c.snapshots[len(c.snapshots)-1].Time - c.snapshots[0].Time
}

// AvgUtilization returns the time-weighted average utilization per resource
// over the snapshot window.
func (c *Collector) AvgUtilization() map[sim.Resource]float64 {
	out := make(map[sim.Resource]float64, len(sim.Resources))
	if len(c.snapshots) < 2 {
		return out
	}
	total := 0.0
	weighted := make(map[sim.Resource]float64, len(sim.Resources))
	for i := 0; i < len(c.snapshots)-1; i++ {
		delta := c.snapshots[i+1].Time - c.snapshots[i].Time
		total += delta
		for _, r := range sim.Resources {
			weighted[r] += c.snapshots[i].Utilization[r] * delta
		}
	}
	if total <= 0 {
		return out
	}
	for _, r := range sim.Resources {
		out[r] = weighted[r] / total
	}
	return out
}

// PrintSummary displays aggregated metrics at the end of a run.
func (c *Collector) PrintSummary() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Completed Requests   : %d\n", len(c.records))

	types := append([]string{""}, c.typeOrder...)
	for _, t := range types {
		s := c.LatencyStats(t)
		if s.Count == 0 {
			continue
		}
		label := t
		if label == "" {
			label = "overall"
		}
		fmt.Printf("\n[%s]\n", label)
		fmt.Printf("  Count  : %d\n", s.Count)
		fmt.Printf("  Mean   : %.6fs\n", s.Mean)
		fmt.Printf("  Median : %.6fs\n", s.Median)
		fmt.Printf("  P95    : %.6fs\n", s.P95)
		fmt.Printf("  P99    : %.6fs\n", s.P99)
		fmt.Printf("  Min    : %.6fs\n", s.Min)
		fmt.Printf("  Max    : %.6fs\n", s.Max)
		tp := c.Throughput(t)
		fmt.Printf("  Rate   : %.2f req/min over %.2fs\n", tp.PerMin, tp.Duration)
	}

	util := c.AvgUtilization()
	if len(util) > 0 {
		fmt.Println("\nResource Utilization:")
		for _, r := range sim.Resources {
			fmt.Printf("  %-8s: %5.1f%%\n", r, util[r]*100)
		}
	}
}
