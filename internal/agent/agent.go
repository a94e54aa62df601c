// Package agent builds agents from a role, goal, backstory, toolbelt and model,
// and runs single tasks against them.
package agent

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/rahul/crewline/internal/tools"
)

// DefaultBackstory is used when an agent is created without one.
const DefaultBackstory = "No backstory provided."

// Agent is a persona bound to a model and a toolbelt. It is immutable.
type Agent struct {
	role      string
	goal      string
	backstory string
	tools     tools.Spec
	model     Binding
}

func (a *Agent) Role() string      { return a.role }
func (a *Agent) Goal() string      { return a.goal }
func (a *Agent) Backstory() string { return a.backstory }
func (a *Agent) Model() Binding    { return a.model }

// Tools returns a copy of the agent's toolbelt.
func (a *Agent) Tools() tools.Spec {
	return a.tools.Clone()
}

// Spec is everything needed to construct an Agent.
type Spec struct {
	Role      string
	Goal      string
	Backstory string
	Tools     tools.Spec
	Model     ModelConfig
}

// Factory constructs agents, binding a fresh model client for each.
type Factory struct {
	Binder ModelBinder
}

func NewFactory(binder ModelBinder) *Factory {
	return &Factory{Binder: binder}
}

func (f *Factory) Create(ctx context.Context, spec Spec) (*Agent, error) {
	if strings.TrimSpace(spec.Role) == "" {
		return nil, &ConfigurationError{Field: "role", Reason: "is required"}
	}
	if strings.TrimSpace(spec.Goal) == "" {
		return nil, &ConfigurationError{Field: "goal", Reason: "is required"}
	}

	backstory := spec.Backstory
	if strings.TrimSpace(backstory) == "" {
		backstory = DefaultBackstory
	}

	cfg := spec.Model.withDefaults()
	binding, err := f.Binder.Bind(ctx, cfg)
	if err != nil {
		var bindErr *ModelBindingError
		if errors.As(err, &bindErr) {
			return nil, err
		}
		return nil, &ModelBindingError{Model: cfg.Name, Err: err}
	}
	if binding.Model == nil {
		return nil, &ModelBindingError{Model: cfg.Name, Err: errors.New("binder returned no model")}
	}

	toolbelt := tools.Spec{}
	if spec.Tools != nil {
		toolbelt = spec.Tools.Clone()
	}

	return &Agent{
		role:      spec.Role,
		goal:      spec.Goal,
		backstory: backstory,
		tools:     toolbelt,
		model:     binding,
	}, nil
}
