// Package experiment answers the inverse question: given a latency SLO,
// what is the maximum arrival rate that still satisfies it? Each probe runs
// an independent, freshly seeded simulation; the outer loop bisects on a
// multiplier applied to every request class's configured rate.
package experiment

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/agentic-sim/agentic-sim/sim"
	"github.com/agentic-sim/agentic-sim/sim/metrics"
	"github.com/agentic-sim/agentic-sim/sim/scenario"
	"github.com/agentic-sim/agentic-sim/sim/workload"
)

// SLO is a latency target: the p-th percentile of RequestType's latencies
// ("" for overall) must not exceed LatencySeconds.
type SLO struct {
	Percentile     float64
	LatencySeconds float64
	RequestType    string
}

// Options bounds the search.
type Options struct {
	// MinMultiplier and MaxMultiplier bracket the rate multiplier search.
	MinMultiplier float64
	MaxMultiplier float64
	// RelTolerance stops the bisection once (hi-lo)/hi falls below it.
	RelTolerance float64
	MaxProbes    int
	Horizon      float64
	Seed         int64
}

// Result reports the highest feasible rate found.
type Result struct {
	Multiplier float64
	// RatePerMin is the aggregate arrival rate at that multiplier.
	RatePerMin float64
	Stats      metrics.LatencyStats
	Probes     int
}

func (o *Options) defaults(sc *scenario.Scenario) {
	if o.MinMultiplier <= 0 {
		o.MinMultiplier = 0.05
	}
	if o.MaxMultiplier <= 0 {
		o.MaxMultiplier = 64
	}
	if o.RelTolerance <= 0 {
		o.RelTolerance = 0.02
	}
	if o.MaxProbes <= 0 {
		o.MaxProbes = 40
	}
	if o.Horizon <= 0 {
		o.Horizon = sc.Horizon
	}
	if o.Seed == 0 {
		o.Seed = sc.Seed
	}
}

// FindMaxRate bisects for the largest rate multiplier whose simulated
// latency percentile still meets the SLO. Probes are deterministic for a
// fixed seed, so the search itself is reproducible.
func FindMaxRate(sc *scenario.Scenario, slo SLO, opts Options) (Result, error) {
	opts.defaults(sc)
	if slo.Percentile <= 0 || slo.Percentile > 100 {
		return Result{}, fmt.Errorf("%w: SLO percentile %v out of (0, 100]", sim.ErrInvalidConfig, slo.Percentile)
	}
	if slo.LatencySeconds <= 0 {
		return Result{}, fmt.Errorf("%w: SLO latency %v must be positive", sim.ErrInvalidConfig, slo.LatencySeconds)
	}

	probes := 0
	probe := func(multiplier float64) (bool, metrics.LatencyStats, error) {
		probes++
		collector := metrics.NewCollector()
		stats, err := runProbe(sc, multiplier, opts, collector)
		if err != nil {
			return false, metrics.LatencyStats{}, err
		}
		p, ok := collector.Percentile(slo.RequestType, slo.Percentile)
		if !ok {
			// No request of the SLO's type completed. Probes run to drain,
			// so this means the probe generated no such arrival; it is
			// counted as infeasible.
			logrus.Infof("probe x%.4f: no completions, infeasible", multiplier)
			return false, stats, nil
		}
		feasible := p <= slo.LatencySeconds
		logrus.Infof("probe x%.4f: p%.0f=%.4fs (target %.4fs) feasible=%v",
			multiplier, slo.Percentile, p, slo.LatencySeconds, feasible)
		return feasible, stats, nil
	}

	lo := opts.MinMultiplier
	feasible, loStats, err := probe(lo)
	if err != nil {
		return Result{}, err
	}
	if !feasible {
		return Result{Probes: probes}, fmt.Errorf("SLO not met even at minimum multiplier %v", lo)
	}

	// Expand until infeasible or the cap is hit.
	hi := lo
	hiFeasible := true
	for hiFeasible && hi < opts.MaxMultiplier && probes < opts.MaxProbes {
		hi = hi * 2
		if hi > opts.MaxMultiplier {
			hi = opts.MaxMultiplier
		}
		var stats metrics.LatencyStats
		hiFeasible, stats, err = probe(hi)
		if err != nil {
			return Result{}, err
		}
		if hiFeasible {
			lo, loStats = hi, stats
		}
	}
	if hiFeasible {
		// Feasible all the way to the cap.
		return result(sc, lo, loStats, probes), nil
	}

	for probes < opts.MaxProbes && (hi-lo)/hi > opts.RelTolerance {
		mid := (lo + hi) / 2
		var stats metrics.LatencyStats
		feasible, stats, err = probe(mid)
		if err != nil {
			return Result{}, err
		}
		if feasible {
			lo, loStats = mid, stats
		} else {
			hi = mid
		}
	}
	return result(sc, lo, loStats, probes), nil
}

func result(sc *scenario.Scenario, multiplier float64, stats metrics.LatencyStats, probes int) Result {
	aggregate := 0.0
	for _, class := range sc.Classes() {
		aggregate += class.RatePerMin * multiplier
	}
	return Result{Multiplier: multiplier, RatePerMin: aggregate, Stats: stats, Probes: probes}
}

func runProbe(sc *scenario.Scenario, multiplier float64, opts Options, collector *metrics.Collector) (metrics.LatencyStats, error) {
	engine, err := sim.NewEngine(sc.Capacities, sc, sc, collector)
	if err != nil {
		return metrics.LatencyStats{}, err
	}

	gen := workload.NewGenerator(opts.Seed)
	var rates []workload.ClassRate
	for _, class := range sc.Classes() {
		rates = append(rates, workload.ClassRate{
			RequestType: class.Name,
			RatePerSec:  class.RatePerMin / 60 * multiplier,
		})
	}
	for _, ev := range gen.MixedWorkload(rates, opts.Horizon) {
		if err := engine.Schedule(ev); err != nil {
			return metrics.LatencyStats{}, err
		}
	}
	// Arrivals stop at the horizon but the run drains completely, so the
	// latency population includes requests that queued up under overload.
	if err := engine.Run(math.Inf(1)); err != nil {
		return metrics.LatencyStats{}, err
	}
	return collector.LatencyStats(""), nil
}
