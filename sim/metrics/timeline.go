// Resource allocation timeline export. Consecutive snapshots bound the
// intervals over which shares were constant; the JSON output feeds external
// visualization.

package metrics

import (
	"encoding/json"
	"io"

	"github.com/agentic-sim/agentic-sim/sim"
)

// TimelineInterval is one constant-allocation interval on one resource.
type TimelineInterval struct {
	Start  float64         `json:"start"`
	End    float64         `json:"end"`
	Shares []sim.ToolShare `json:"shares"`
}

// Timeline is the exported document: per-resource interval lists.
type Timeline struct {
	Resources map[string][]TimelineInterval `json:"resources"`
}

// BuildTimeline derives the allocation timeline from the collected
// snapshots. Intervals with no consumers are omitted.
func (c *Collector) BuildTimeline() Timeline {
	tl := Timeline{Resources: make(map[string][]TimelineInterval, len(sim.Resources))}
	for i := 0; i < len(c.snapshots)-1; i++ {
		snap := c.snapshots[i]
		end := c.snapshots[i+1].Time
		if end <= snap.Time {
			continue
		}
		for _, r := range sim.Resources {
			shares := snap.Allocations[r]
			if len(shares) == 0 {
				continue
			}
			tl.Resources[string(r)] = append(tl.Resources[string(r)], TimelineInterval{
				Start:  snap.Time,
				End:    end,
				Shares: shares,
			})
		}
	}
	return tl
}

// ExportTimeline writes the allocation timeline as indented JSON.
func (c *Collector) ExportTimeline(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c.BuildTimeline())
}
