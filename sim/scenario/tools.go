// Typed tool catalog: each tool type derives its per-resource loads from
// domain parameters. `custom` bypasses derivation and takes raw loads.

package scenario

import (
	"fmt"

	"github.com/agentic-sim/agentic-sim/sim"
)

// Tool type names accepted in ToolSpec.Type.
const (
	ToolTypeWeb       = "webtool"
	ToolTypeInfer     = "infer"
	ToolTypeEmbedding = "embedding"
	ToolTypeQuestion  = "question"
	ToolTypeCustom    = "custom"
)

func buildTemplate(ts ToolSpec) (sim.Template, error) {
	loads := make(sim.Loads, len(sim.Resources))
	for _, r := range sim.Resources {
		loads[r] = 0
	}

	param := func(name string, def float64) float64 {
		if v, ok := ts.Params[name]; ok {
			return v
		}
		return def
	}

	switch ts.Type {
	case ToolTypeWeb:
		// Work is dominated by moving and holding the fetched payload:
		// input/output token counts convert to bytes, with extraction
		// shrinking the output before it is retained.
		extraction := param("extraction_ratio", 1)
		if extraction <= 0 {
			return sim.Template{}, fmt.Errorf("%w: tool %q: extraction_ratio must be positive", sim.ErrInvalidConfig, ts.Name)
		}
		tokenSize := param("bpe_token_size", 0)
		inputBytes := param("input_tokens", 0) * tokenSize
		outputBytes := param("output_tokens", 0) * tokenSize / extraction
		loads[sim.ResourceNetwork] = inputBytes + outputBytes
		loads[sim.ResourceMemory] = inputBytes + outputBytes

	case ToolTypeInfer:
		loads[sim.ResourceNPU] = param("flops", 0)
		loads[sim.ResourceMemory] = param("kv_bytes", 0)

	case ToolTypeEmbedding:
		tokens := param("tokens", 0)
		loads[sim.ResourceNPU] = tokens * param("flops_per_token", 1)
		loads[sim.ResourceMemory] = tokens * param("bytes_per_token", 0)

	case ToolTypeQuestion:
		// Pure synchronization point: completes the instant it starts.

	case ToolTypeCustom:
		for name, load := range ts.Loads {
			r := sim.Resource(name)
			known := false
			for _, kr := range sim.Resources {
				if r == kr {
					known = true
					break
				}
			}
			if !known {
				return sim.Template{}, fmt.Errorf("%w: tool %q: unknown resource %q", sim.ErrInvalidConfig, ts.Name, name)
			}
			loads[r] = load
		}

	default:
		return sim.Template{}, fmt.Errorf("%w: tool %q: unknown tool type %q", sim.ErrInvalidConfig, ts.Name, ts.Type)
	}

	return sim.Template{Name: ts.Name, Loads: loads}, nil
}
