package pipeline

import (
	"context"
)

// Component is one unit the host graph can schedule. Execute receives the
// run's shared Context and its bound inputs, and returns its outputs.
type Component interface {
	Name() string
	Inputs() []Port
	Outputs() []Port
	Execute(ctx context.Context, pc *Context, in Values) (Values, error)
}

// Catalog resolves component names used in a Graph.
type Catalog map[string]Component

func (c Catalog) Register(comp Component) {
	c[comp.Name()] = comp
}

// ToolbeltUser is implemented by components that write or read the toolbelt
// named by one of their string inputs. The scheduler runs every writer of a
// toolbelt ahead of the nodes that read it.
type ToolbeltUser interface {
	ToolbeltPort() (port string, writes bool)
}
