package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentic-sim/agentic-sim/sim/experiment"
	"github.com/agentic-sim/agentic-sim/sim/scenario"
)

var (
	maxRateScenario string  // Path to the scenario YAML
	sloPercentile   float64 // Latency percentile the SLO constrains
	sloLatency      float64 // Latency target in seconds
	sloRequestType  string  // Request class the SLO applies to (empty = overall)
	maxRateHorizon  float64 // Simulated window per probe (seconds)
	maxRateSeed     int64   // Seed for probe workloads
	minMultiplier   float64 // Lower bracket of the rate multiplier search
	maxMultiplier   float64 // Upper bracket of the rate multiplier search
)

// maxRateCmd solves the inverse problem: the maximum arrival rate that
// still meets a latency SLO.
var maxRateCmd = &cobra.Command{
	Use:   "maxrate",
	Short: "Find the maximum sustainable arrival rate under a latency SLO",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := scenario.Load(maxRateScenario)
		if err != nil {
			logrus.Fatalf("load scenario: %v", err)
		}

		res, err := experiment.FindMaxRate(sc,
			experiment.SLO{
				Percentile:     sloPercentile,
				LatencySeconds: sloLatency,
				RequestType:    sloRequestType,
			},
			experiment.Options{
				Horizon:       maxRateHorizon,
				Seed:          maxRateSeed,
				MinMultiplier: minMultiplier,
				MaxMultiplier: maxMultiplier,
			})
		if err != nil {
			logrus.Fatalf("maxrate search failed: %v", err)
		}

		fmt.Println("=== Max Sustainable Rate ===")
		fmt.Printf("Rate multiplier : x%.4f\n", res.Multiplier)
		fmt.Printf("Aggregate rate  : %.2f req/min\n", res.RatePerMin)
		fmt.Printf("Probes          : %d\n", res.Probes)
		fmt.Printf("At that rate    : p95=%.4fs p99=%.4fs mean=%.4fs over %d requests\n",
			res.Stats.P95, res.Stats.P99, res.Stats.Mean, res.Stats.Count)
	},
}

func init() {
	maxRateCmd.Flags().StringVar(&maxRateScenario, "scenario", "", "Path to the scenario YAML file")
	maxRateCmd.Flags().Float64Var(&sloPercentile, "slo-percentile", 95, "Latency percentile the SLO constrains")
	maxRateCmd.Flags().Float64Var(&sloLatency, "slo-latency", 0, "Latency target in seconds")
	maxRateCmd.Flags().StringVar(&sloRequestType, "request-type", "", "Request class the SLO applies to (default: overall)")
	maxRateCmd.Flags().Float64Var(&maxRateHorizon, "horizon", 0, "Simulated window per probe in seconds (default: scenario horizon)")
	maxRateCmd.Flags().Int64Var(&maxRateSeed, "seed", 0, "Seed for probe workloads (default: scenario seed)")
	maxRateCmd.Flags().Float64Var(&minMultiplier, "min-multiplier", 0, "Lower bracket of the multiplier search")
	maxRateCmd.Flags().Float64Var(&maxMultiplier, "max-multiplier", 0, "Upper bracket of the multiplier search")
	_ = maxRateCmd.MarkFlagRequired("scenario")
	_ = maxRateCmd.MarkFlagRequired("slo-latency")
}
