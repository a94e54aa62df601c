package components

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rahul/crewline/internal/agent"
	"github.com/rahul/crewline/internal/pipeline"
	"github.com/rahul/crewline/internal/tools"
)

// Env carries the shared services components are built from.
type Env struct {
	Factory  *agent.Factory
	Runner   *agent.Runner
	Model    agent.ModelConfig
	Searcher tools.Searcher
	Logger   zerolog.Logger
}

// Catalog returns every component keyed by name.
func Catalog(env Env) pipeline.Catalog {
	cat := pipeline.Catalog{}
	cat.Register(&ConversionTool{Logger: env.Logger})
	cat.Register(&WebTools{Logger: env.Logger, Searcher: env.Searcher})
	cat.Register(MakeToolbelt{})
	cat.Register(&AgentInit{Factory: env.Factory, Model: env.Model, Logger: env.Logger})
	cat.Register(&RunTasks{Runner: env.Runner})
	return cat
}

// registrars maps short toolbelt set names to registrar components.
var registrars = map[string]string{
	"conversion": "conversion_tool",
	"web":        "web_tools",
}

// AskRequest describes a one-shot task run.
type AskRequest struct {
	Role      string
	Goal      string
	Backstory string
	Task      string
	// Toolsets are registered into the default toolbelt, e.g. "conversion", "web".
	Toolsets []string
	Model    string
}

// AskGraph builds the register → assemble → init → run pipeline for req.
func AskGraph(req AskRequest) (*pipeline.Graph, error) {
	g := &pipeline.Graph{Name: "ask"}

	var after []string
	for _, set := range req.Toolsets {
		comp, ok := registrars[set]
		if !ok {
			return nil, errors.Errorf("unknown toolset %q", set)
		}
		id := "register_" + set
		g.Nodes = append(g.Nodes, &pipeline.Node{ID: id, Component: comp})
		after = append(after, id)
	}

	agentNode := &pipeline.Node{
		ID:        "agent",
		Component: "agent_init",
		Inputs: map[string]pipeline.Binding{
			"role":          pipeline.Literal(req.Role),
			"goal":          pipeline.Literal(req.Goal),
			"toolbelt_spec": pipeline.From("toolbelt.toolbelt_spec"),
		},
	}
	if req.Backstory != "" {
		agentNode.Inputs["backstory"] = pipeline.Literal(req.Backstory)
	}
	if req.Model != "" {
		agentNode.Inputs["model"] = pipeline.Literal(req.Model)
	}

	g.Nodes = append(g.Nodes,
		&pipeline.Node{ID: "toolbelt", Component: "make_toolbelt", After: after},
		agentNode,
		&pipeline.Node{
			ID:        "run",
			Component: "run_tasks",
			Inputs: map[string]pipeline.Binding{
				"agent":            pipeline.From("agent.agent"),
				"task_description": pipeline.Literal(req.Task),
			},
		},
	)
	return g, nil
}
