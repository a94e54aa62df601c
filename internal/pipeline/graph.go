package pipeline

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Graph is a host pipeline: component nodes wired by port references.
type Graph struct {
	Name  string  `yaml:"name"`
	Nodes []*Node `yaml:"nodes"`
}

// Node is one scheduled component invocation.
type Node struct {
	ID        string             `yaml:"id"`
	Component string             `yaml:"component"`
	Inputs    map[string]Binding `yaml:"inputs"`
	// After lists nodes that must run first even though no port connects them,
	// e.g. tool registrars ahead of the toolbelt assembler.
	After []string `yaml:"after"`
}

// Binding feeds an input port either a literal string or another node's output.
type Binding struct {
	Literal string
	From    string
}

func Literal(s string) Binding {
	return Binding{Literal: s}
}

// From references the output port of another node as "node.port".
func From(ref string) Binding {
	return Binding{From: ref}
}

func (b Binding) IsRef() bool {
	return b.From != ""
}

// Ref splits a reference into node ID and port name.
func (b Binding) Ref() (node, port string, ok bool) {
	i := strings.LastIndex(b.From, ".")
	if i <= 0 || i == len(b.From)-1 {
		return "", "", false
	}
	return b.From[:i], b.From[i+1:], true
}

// UnmarshalYAML accepts a scalar literal or a mapping {from: node.port}.
func (b *Binding) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		b.Literal = value.Value
		return nil
	case yaml.MappingNode:
		var ref struct {
			From string `yaml:"from"`
		}
		if err := value.Decode(&ref); err != nil {
			return err
		}
		if ref.From == "" {
			return errors.Errorf("line %d: input mapping needs a 'from' reference", value.Line)
		}
		b.From = ref.From
		return nil
	default:
		return errors.Errorf("line %d: input must be a string or {from: node.port}", value.Line)
	}
}

func (b Binding) MarshalYAML() (any, error) {
	if b.IsRef() {
		return map[string]string{"from": b.From}, nil
	}
	return b.Literal, nil
}

// LoadGraph parses a YAML graph definition.
func LoadGraph(r io.Reader) (*Graph, error) {
	var g Graph
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return nil, errors.Wrap(err, "decode pipeline graph")
	}
	for i, n := range g.Nodes {
		if n == nil {
			return nil, errors.Errorf("decode pipeline graph: node %d is empty", i)
		}
	}
	return &g, nil
}
