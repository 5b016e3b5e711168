// The completion search: a pure function over the active set returning the
// next instant at which any active tool exhausts its work on any resource.
// Nothing is pre-scheduled; this is recomputed from live state every step.

package sim

import "math"

// completion identifies the earliest upcoming resource exhaustion.
type completion struct {
	tool     *ToolInstance
	resource Resource
	at       float64
}

// findNextCompletion scans all active tools and all resources with remaining
// work above Tolerance and returns the minimum of
//
//	now + remaining / (capacity / consumers)
//
// counts must be the consumer counts in force now (see consumerCounts).
// Ties break deterministically: tools in active-set (start-ordinal) order,
// resources in canonical order; the first minimum seen wins.
// An active tool already exhausted on every resource completes at now.
// Returns ok=false when the active set is empty, which callers treat as a
// completion at +Inf.
func findNextCompletion(now float64, active []*ToolInstance, caps Capacities, counts map[Resource]int) (completion, bool) {
	best := completion{at: math.Inf(1)}
	found := false
	for _, tool := range active {
		// A fully exhausted tool still in the active set completes now.
		// This arises when a start event ties with a completion: the start
		// is dispatched first, after progress already drained the finisher.
		if tool.Done() {
			if now < best.at {
				best = completion{tool: tool, resource: Resources[0], at: now}
				found = true
			}
			continue
		}
		for _, r := range Resources {
			if !tool.HasWorkOn(r) {
				continue
			}
			share := caps.Get(r) / float64(counts[r])
			at := now + tool.Remaining[r]/share
			if at < best.at {
				best = completion{tool: tool, resource: r, at: at}
				found = true
			}
		}
	}
	return best, found
}
