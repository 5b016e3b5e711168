// Package scenario loads simulation scenarios from YAML: the resource
// capacity table, the tool catalog, and the request classes with their tool
// DAGs and arrival rates. A loaded Scenario implements the engine's
// TemplateProvider and DAGProvider interfaces.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agentic-sim/agentic-sim/sim"
	"github.com/agentic-sim/agentic-sim/sim/dag"
)

// Spec is the top-level scenario configuration, loaded via Load(path).
type Spec struct {
	// Resources maps resource kind names (cpu, npu, memory, network, disk)
	// to capacities in work units per second. Omitted kinds are effectively
	// unlimited.
	Resources map[string]float64 `yaml:"resources"`

	Tools          []ToolSpec         `yaml:"tools"`
	RequestClasses []RequestClassSpec `yaml:"request_classes"`

	// Horizon is the simulated window in seconds.
	Horizon float64 `yaml:"horizon"`
	Seed    int64   `yaml:"seed"`
}

// ToolSpec declares one catalog entry. Type selects how the per-resource
// loads are derived; `custom` takes raw loads directly.
type ToolSpec struct {
	Name   string             `yaml:"name"`
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Loads  map[string]float64 `yaml:"loads,omitempty"`
}

// NodeSpec binds a DAG node to a catalog tool, with its dependencies.
type NodeSpec struct {
	Name         string   `yaml:"name"`
	Tool         string   `yaml:"tool"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// RequestClassSpec declares one request type: its DAG and arrival rate.
type RequestClassSpec struct {
	Name string `yaml:"name"`
	// Rate is the arrival rate in requests per minute.
	Rate  float64    `yaml:"rate"`
	Nodes []NodeSpec `yaml:"nodes"`
}

// Class is one compiled request class.
type Class struct {
	Name       string
	RatePerMin float64
	Graph      *dag.Graph
}

// Scenario is a validated, compiled scenario.
type Scenario struct {
	Capacities sim.Capacities
	Horizon    float64
	Seed       int64

	templates map[string]sim.Template
	classes   map[string]*Class
	order     []string
}

// Load reads and compiles a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return Parse(data)
}

// Parse compiles a scenario from YAML bytes, validating as it goes.
// All validation failures wrap sim.ErrInvalidConfig.
func Parse(data []byte) (*Scenario, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: parse scenario: %v", sim.ErrInvalidConfig, err)
	}
	return Compile(&spec)
}

// Compile validates a Spec and builds the runnable Scenario.
func Compile(spec *Spec) (*Scenario, error) {
	provided := make(map[sim.Resource]float64, len(spec.Resources))
	for name, cap := range spec.Resources {
		provided[sim.Resource(name)] = cap
	}
	caps, err := sim.NewCapacities(provided)
	if err != nil {
		return nil, err
	}

	sc := &Scenario{
		Capacities: caps,
		Horizon:    spec.Horizon,
		Seed:       spec.Seed,
		templates:  make(map[string]sim.Template, len(spec.Tools)),
		classes:    make(map[string]*Class, len(spec.RequestClasses)),
	}
	if sc.Horizon < 0 {
		return nil, fmt.Errorf("%w: horizon must be non-negative, got %v", sim.ErrInvalidConfig, sc.Horizon)
	}

	for _, ts := range spec.Tools {
		if ts.Name == "" {
			return nil, fmt.Errorf("%w: tool with empty name", sim.ErrInvalidConfig)
		}
		if _, dup := sc.templates[ts.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %q", sim.ErrInvalidConfig, ts.Name)
		}
		tmpl, err := buildTemplate(ts)
		if err != nil {
			return nil, err
		}
		if err := tmpl.Validate(); err != nil {
			return nil, err
		}
		sc.templates[ts.Name] = tmpl
	}

	if len(spec.RequestClasses) == 0 {
		return nil, fmt.Errorf("%w: no request classes", sim.ErrInvalidConfig)
	}
	for _, cs := range spec.RequestClasses {
		if cs.Name == "" {
			return nil, fmt.Errorf("%w: request class with empty name", sim.ErrInvalidConfig)
		}
		if _, dup := sc.classes[cs.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate request class %q", sim.ErrInvalidConfig, cs.Name)
		}
		if cs.Rate < 0 {
			return nil, fmt.Errorf("%w: request class %q has negative rate %v", sim.ErrInvalidConfig, cs.Name, cs.Rate)
		}
		g, err := buildGraph(cs, sc.templates)
		if err != nil {
			return nil, err
		}
		sc.classes[cs.Name] = &Class{Name: cs.Name, RatePerMin: cs.Rate, Graph: g}
		sc.order = append(sc.order, cs.Name)
	}
	return sc, nil
}

func buildGraph(cs RequestClassSpec, templates map[string]sim.Template) (*dag.Graph, error) {
	g := dag.NewGraph()
	for _, node := range cs.Nodes {
		if _, ok := templates[node.Tool]; !ok {
			return nil, fmt.Errorf("%w: request class %q node %q references unknown tool %q",
				sim.ErrInvalidConfig, cs.Name, node.Name, node.Tool)
		}
		if err := g.AddNode(node.Name, node.Tool); err != nil {
			return nil, fmt.Errorf("%w: request class %q: %v", sim.ErrInvalidConfig, cs.Name, err)
		}
	}
	for _, node := range cs.Nodes {
		for _, dep := range node.Dependencies {
			if err := g.AddEdge(dep, node.Name); err != nil {
				return nil, fmt.Errorf("%w: request class %q: %v", sim.ErrInvalidConfig, cs.Name, err)
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: request class %q: %v", sim.ErrInvalidConfig, cs.Name, err)
	}
	return g, nil
}

// Template implements sim.TemplateProvider.
func (s *Scenario) Template(name string) (sim.Template, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return sim.Template{}, fmt.Errorf("%w: unknown tool template %q", sim.ErrInvalidConfig, name)
	}
	return tmpl, nil
}

// DAG implements sim.DAGProvider.
func (s *Scenario) DAG(requestType string) (*dag.Graph, error) {
	class, ok := s.classes[requestType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown request class %q", sim.ErrInvalidConfig, requestType)
	}
	return class.Graph, nil
}

// Classes returns the request classes in declaration order.
func (s *Scenario) Classes() []*Class {
	out := make([]*Class, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.classes[name])
	}
	return out
}
