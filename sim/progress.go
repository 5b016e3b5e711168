// The progress accountant: debits each active tool's remaining work by its
// fair share × elapsed interval. The consumer counts passed in must be those
// in force at the start of the interval; they are constant over it because
// the interval ends at the earliest change point.

package sim

// consumerCounts returns, for each resource kind, the number of active tools
// with remaining work above Tolerance on it. This is the authoritative
// fair-share denominator.
func consumerCounts(active []*ToolInstance) map[Resource]int {
	counts := make(map[Resource]int, len(Resources))
	for _, tool := range active {
		for _, r := range Resources {
			if tool.HasWorkOn(r) {
				counts[r]++
			}
		}
	}
	return counts
}

// accountProgress debits delta × capacity/consumers from every active tool on
// every resource it is consuming, clamping at zero. An over-debit beyond
// Tolerance means the interval was longer than the earliest completion, which
// is a logic defect.
func accountProgress(now, delta float64, active []*ToolInstance, caps Capacities, counts map[Resource]int) error {
	if delta == 0 {
		return nil
	}
	for _, tool := range active {
		for _, r := range Resources {
			if !tool.HasWorkOn(r) {
				continue
			}
			share := caps.Get(r) / float64(counts[r])
			done := share * delta
			rem := tool.Remaining[r] - done
			if rem < -Tolerance {
				return invariantf(tool.ID, now,
					"progress over-debits %s by %g beyond tolerance", r, -rem)
			}
			if rem < 0 {
				rem = 0
			}
			tool.Remaining[r] = rem
		}
	}
	return nil
}
