package pipeline

import (
	"github.com/rahul/crewline/internal/tools"
)

// RegisterTools upserts entries into the named toolbelt, creating it if needed.
//
// Registration is last-write-wins: a later entry under an already registered
// qualified name replaces the earlier tool and keeps its position. Independent
// registrars may target the same name; the scheduler's order decides which wins.
func RegisterTools(c *Context, toolbelt string, entries ...tools.Entry) {
	belt := c.EnsureToolbelt(toolbelt)
	for _, e := range entries {
		belt.Put(e.Name, e.Tool)
	}
}

// AssembleToolbelt snapshots the named toolbelt in registration order.
// A toolbelt that was never registered yields an empty Spec.
func AssembleToolbelt(c *Context, toolbelt string) tools.Spec {
	belt, ok := c.Toolbelt(toolbelt)
	if !ok {
		return tools.Spec{}
	}
	return belt.Spec()
}
