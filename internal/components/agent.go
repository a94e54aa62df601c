package components

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rahul/crewline/internal/agent"
	"github.com/rahul/crewline/internal/pipeline"
	"github.com/rahul/crewline/internal/tools"
)

// AgentInit constructs an agent from persona inputs and a toolbelt spec.
type AgentInit struct {
	Factory *agent.Factory
	// Model holds the configured defaults; the "model" input overrides Name.
	Model  agent.ModelConfig
	Logger zerolog.Logger
}

func (c *AgentInit) Name() string { return "agent_init" }

// Role and goal are optional ports so that absent and empty both surface as
// a ConfigurationError from the factory.
func (c *AgentInit) Inputs() []pipeline.Port {
	return []pipeline.Port{
		{Name: "agent_name", Kind: pipeline.KindString},
		{Name: "role", Kind: pipeline.KindString},
		{Name: "goal", Kind: pipeline.KindString},
		{Name: "backstory", Kind: pipeline.KindString},
		{Name: "toolbelt_spec", Kind: pipeline.KindList},
		{Name: "model", Kind: pipeline.KindString},
	}
}

func (c *AgentInit) Outputs() []pipeline.Port {
	return []pipeline.Port{{Name: "agent", Kind: pipeline.KindEntity}}
}

func (c *AgentInit) Execute(ctx context.Context, pc *pipeline.Context, in pipeline.Values) (pipeline.Values, error) {
	toolbelt := tools.Spec{}
	if in.Has("toolbelt_spec") {
		spec, ok := pipeline.Get[tools.Spec](in, "toolbelt_spec")
		if !ok {
			return nil, errors.Errorf("toolbelt_spec is %T, not a toolbelt spec", in["toolbelt_spec"].Data())
		}
		toolbelt = spec
	}

	model := c.Model
	if name := in.Text("model"); name != "" {
		model.Name = name
	}

	a, err := c.Factory.Create(ctx, agent.Spec{
		Role:      in.Text("role"),
		Goal:      in.Text("goal"),
		Backstory: in.Text("backstory"),
		Tools:     toolbelt,
		Model:     model,
	})
	if err != nil {
		return nil, err
	}

	c.Logger.Info().
		Str("agent_name", in.Text("agent_name")).
		Str("role", a.Role()).
		Strs("tools", a.Tools().Names()).
		Str("model", a.Model().Name).
		Msg("Agent initialized")

	return pipeline.Values{"agent": pipeline.EntityValue(a)}, nil
}

// RunTasks runs one task description against an agent.
type RunTasks struct {
	Runner *agent.Runner
}

func (c *RunTasks) Name() string { return "run_tasks" }

func (c *RunTasks) Inputs() []pipeline.Port {
	return []pipeline.Port{
		{Name: "agent", Kind: pipeline.KindEntity, Required: true},
		{Name: "task_description", Kind: pipeline.KindString, Required: true},
	}
}

func (c *RunTasks) Outputs() []pipeline.Port {
	return []pipeline.Port{{Name: "result", Kind: pipeline.KindString}}
}

func (c *RunTasks) Execute(ctx context.Context, pc *pipeline.Context, in pipeline.Values) (pipeline.Values, error) {
	a, ok := pipeline.Get[*agent.Agent](in, "agent")
	if !ok || a == nil {
		return nil, errors.Errorf("agent input is not an agent")
	}

	result, err := c.Runner.Run(ctx, a, in.Text("task_description"))
	if err != nil {
		return nil, err
	}
	return pipeline.Values{"result": pipeline.StringValue(result)}, nil
}
