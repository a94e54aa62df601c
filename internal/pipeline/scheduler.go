package pipeline

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownComponent = errors.New("unknown component")
	ErrDuplicateNode    = errors.New("duplicate node id")
	ErrUnknownNode      = errors.New("unknown node")
	ErrUnknownPort      = errors.New("unknown port")
	ErrMissingInput     = errors.New("missing required input")
	ErrKindMismatch     = errors.New("port kind mismatch")
	ErrCycle            = errors.New("graph has a cycle")
	ErrMissingOutput    = errors.New("upstream output not produced")
)

// NodeError reports which node stopped a run.
type NodeError struct {
	Node      string
	Component string
	Err       error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.Node, e.Component, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Outputs holds each executed node's output values by node ID.
type Outputs map[string]Values

// Scheduler validates a Graph and runs it in dependency order.
type Scheduler struct {
	Catalog Catalog
	Logger  zerolog.Logger
}

func NewScheduler(catalog Catalog, logger zerolog.Logger) *Scheduler {
	return &Scheduler{Catalog: catalog, Logger: logger}
}

// Plan validates g and returns its nodes in execution order. Among nodes whose
// dependencies are satisfied, declaration order wins.
func (s *Scheduler) Plan(g *Graph) ([]*Node, error) {
	index := make(map[string]*Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if n == nil {
			return nil, errors.Wrapf(ErrUnknownNode, "node %d is empty", i)
		}
		if n.ID == "" {
			return nil, errors.Wrap(ErrUnknownNode, "node without id")
		}
		if _, dup := index[n.ID]; dup {
			return nil, errors.Wrap(ErrDuplicateNode, n.ID)
		}
		if _, ok := s.Catalog[n.Component]; !ok {
			return nil, errors.Wrapf(ErrUnknownComponent, "node %s: %q", n.ID, n.Component)
		}
		index[n.ID] = n
	}

	deps := make(map[string]map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		deps[n.ID] = map[string]bool{}
		if err := s.checkInputs(n, index); err != nil {
			return nil, err
		}
		for _, b := range n.Inputs {
			if src, _, ok := b.Ref(); ok {
				deps[n.ID][src] = true
			}
		}
		for _, a := range n.After {
			if _, ok := index[a]; !ok {
				return nil, errors.Wrapf(ErrUnknownNode, "node %s runs after %q", n.ID, a)
			}
			deps[n.ID][a] = true
		}
	}
	s.addToolbeltEdges(g, deps)

	order := make([]*Node, 0, len(g.Nodes))
	done := make(map[string]bool, len(g.Nodes))
	for len(order) < len(g.Nodes) {
		progressed := false
		for _, n := range g.Nodes {
			if done[n.ID] || !ready(deps[n.ID], done) {
				continue
			}
			done[n.ID] = true
			order = append(order, n)
			progressed = true
			break
		}
		if !progressed {
			var stuck []string
			for _, n := range g.Nodes {
				if !done[n.ID] {
					stuck = append(stuck, n.ID)
				}
			}
			return nil, errors.Wrapf(ErrCycle, "unresolved nodes %v", stuck)
		}
	}
	return order, nil
}

// addToolbeltEdges makes readers of a toolbelt wait for its writers. Only
// literal or unbound names are known before the run; an edge that would close
// a cycle is skipped so explicit ordering wins.
func (s *Scheduler) addToolbeltEdges(g *Graph, deps map[string]map[string]bool) {
	type use struct {
		node, belt string
	}
	writers := make(map[string][]string)
	var readers []use
	for _, n := range g.Nodes {
		user, ok := s.Catalog[n.Component].(ToolbeltUser)
		if !ok {
			continue
		}
		port, writes := user.ToolbeltPort()
		b := n.Inputs[port]
		if b.IsRef() {
			continue
		}
		name := toolbeltName(b.Literal)
		if writes {
			writers[name] = append(writers[name], n.ID)
		} else {
			readers = append(readers, use{node: n.ID, belt: name})
		}
	}

	for _, r := range readers {
		for _, w := range writers[r.belt] {
			if w == r.node || dependsOn(deps, w, r.node) {
				continue
			}
			if !deps[r.node][w] {
				s.Logger.Debug().Str("node", r.node).Str("after", w).Str("toolbelt", r.belt).Msg("Ordering toolbelt reader after writer")
			}
			deps[r.node][w] = true
		}
	}
}

// dependsOn reports whether from transitively depends on to.
func dependsOn(deps map[string]map[string]bool, from, to string) bool {
	seen := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		for dep := range deps[id] {
			if dep == to {
				return true
			}
			stack = append(stack, dep)
		}
	}
	return false
}

func ready(deps map[string]bool, done map[string]bool) bool {
	for d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}

func (s *Scheduler) checkInputs(n *Node, index map[string]*Node) error {
	comp := s.Catalog[n.Component]
	ports := portMap(comp.Inputs())

	for name, b := range n.Inputs {
		port, ok := ports[name]
		if !ok {
			return errors.Wrapf(ErrUnknownPort, "node %s has no input %q", n.ID, name)
		}
		if !b.IsRef() {
			if port.Kind != KindString {
				return errors.Wrapf(ErrKindMismatch, "node %s input %q expects %s, got literal string", n.ID, name, port.Kind)
			}
			continue
		}
		srcID, srcPort, ok := b.Ref()
		if !ok {
			return errors.Wrapf(ErrUnknownPort, "node %s input %q: malformed reference %q", n.ID, name, b.From)
		}
		src, ok := index[srcID]
		if !ok {
			return errors.Wrapf(ErrUnknownNode, "node %s input %q references %q", n.ID, name, srcID)
		}
		out, ok := portMap(s.Catalog[src.Component].Outputs())[srcPort]
		if !ok {
			return errors.Wrapf(ErrUnknownPort, "node %s has no output %q", srcID, srcPort)
		}
		if out.Kind != port.Kind {
			return errors.Wrapf(ErrKindMismatch, "node %s input %q expects %s, %s.%s is %s", n.ID, name, port.Kind, srcID, srcPort, out.Kind)
		}
	}

	for _, p := range comp.Inputs() {
		if _, ok := n.Inputs[p.Name]; p.Required && !ok {
			return errors.Wrapf(ErrMissingInput, "node %s: %q", n.ID, p.Name)
		}
	}
	return nil
}

func portMap(ports []Port) map[string]Port {
	m := make(map[string]Port, len(ports))
	for _, p := range ports {
		m[p.Name] = p
	}
	return m
}

// Run executes g against a fresh Context and returns every node's outputs.
func (s *Scheduler) Run(ctx context.Context, g *Graph) (Outputs, error) {
	order, err := s.Plan(g)
	if err != nil {
		return nil, err
	}

	pc := NewContext()
	outputs := make(Outputs, len(order))
	log := s.Logger.With().Str("pipeline", g.Name).Logger()

	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return outputs, &NodeError{Node: n.ID, Component: n.Component, Err: err}
		}
		comp := s.Catalog[n.Component]

		in, err := resolveInputs(n, outputs)
		if err != nil {
			return outputs, &NodeError{Node: n.ID, Component: n.Component, Err: err}
		}

		log.Debug().Str("node", n.ID).Str("component", n.Component).Msg("Executing node")
		out, err := comp.Execute(ctx, pc, in)
		if err != nil {
			log.Error().Err(err).Str("node", n.ID).Msg("Node failed")
			return outputs, &NodeError{Node: n.ID, Component: n.Component, Err: err}
		}
		if out == nil {
			out = Values{}
		}
		if err := checkOutputs(comp, out); err != nil {
			return outputs, &NodeError{Node: n.ID, Component: n.Component, Err: err}
		}
		outputs[n.ID] = out
	}
	return outputs, nil
}

func resolveInputs(n *Node, outputs Outputs) (Values, error) {
	in := make(Values, len(n.Inputs))
	for name, b := range n.Inputs {
		if !b.IsRef() {
			in[name] = StringValue(b.Literal)
			continue
		}
		srcID, srcPort, _ := b.Ref()
		v, ok := outputs[srcID][srcPort]
		if !ok {
			return nil, errors.Wrapf(ErrMissingOutput, "%s.%s", srcID, srcPort)
		}
		in[name] = v
	}
	return in, nil
}

func checkOutputs(comp Component, out Values) error {
	ports := portMap(comp.Outputs())
	for name, v := range out {
		p, ok := ports[name]
		if !ok {
			return errors.Wrapf(ErrUnknownPort, "undeclared output %q", name)
		}
		if p.Kind != v.Kind() {
			return errors.Wrapf(ErrKindMismatch, "output %q declared %s, produced %s", name, p.Kind, v.Kind())
		}
	}
	return nil
}
