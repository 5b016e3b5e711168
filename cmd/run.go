package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentic-sim/agentic-sim/sim"
	"github.com/agentic-sim/agentic-sim/sim/metrics"
	"github.com/agentic-sim/agentic-sim/sim/scenario"
	"github.com/agentic-sim/agentic-sim/sim/workload"
)

var (
	scenarioPath string  // Path to the scenario YAML
	horizon      float64 // Simulated window override (seconds)
	seed         int64   // Seed override for arrival generation
	timelinePath string  // Optional resource timeline JSON output
	rateScale    float64 // Multiplier applied to every class rate
)

// runCmd executes one simulation and prints the metrics summary.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload simulation from a scenario file",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("load scenario: %v", err)
		}
		if horizon > 0 {
			sc.Horizon = horizon
		}
		if seed != 0 {
			sc.Seed = seed
		}
		if sc.Horizon <= 0 {
			logrus.Fatalf("scenario has no horizon; pass --horizon")
		}

		collector := metrics.NewCollector()
		engine, err := sim.NewEngine(sc.Capacities, sc, sc, collector)
		if err != nil {
			logrus.Fatalf("build engine: %v", err)
		}

		gen := workload.NewGenerator(sc.Seed)
		var rates []workload.ClassRate
		for _, class := range sc.Classes() {
			rates = append(rates, workload.ClassRate{
				RequestType: class.Name,
				RatePerSec:  class.RatePerMin / 60 * rateScale,
			})
		}
		arrivals := gen.MixedWorkload(rates, sc.Horizon)
		for _, ev := range arrivals {
			if err := engine.Schedule(ev); err != nil {
				logrus.Fatalf("schedule arrival: %v", err)
			}
		}

		logrus.Infof("starting simulation: %d arrivals, horizon=%.1fs, seed=%d",
			len(arrivals), sc.Horizon, sc.Seed)
		start := time.Now()
		if err := engine.Run(sc.Horizon); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		st := engine.Stats()
		logrus.Infof("simulation ended at t=%.4fs after %d steps (%.2fms wall clock)",
			st.Clock, st.Steps, float64(time.Since(start).Microseconds())/1000)

		collector.PrintSummary()

		if timelinePath != "" {
			f, err := os.Create(timelinePath)
			if err != nil {
				logrus.Fatalf("create timeline file: %v", err)
			}
			defer f.Close()
			if err := collector.ExportTimeline(f); err != nil {
				logrus.Fatalf("export timeline: %v", err)
			}
			logrus.Infof("resource timeline written to %s", timelinePath)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "Simulated window in seconds (overrides scenario)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for arrival generation (overrides scenario)")
	runCmd.Flags().StringVar(&timelinePath, "timeline", "", "Write the resource allocation timeline to this JSON file")
	runCmd.Flags().Float64Var(&rateScale, "rate-scale", 1.0, "Multiplier applied to every request class rate")
	_ = runCmd.MarkFlagRequired("scenario")
}
