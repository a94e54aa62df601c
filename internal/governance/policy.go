package governance

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes a tool invocation an agent wants to make during a run.
type Request struct {
	ExecutionID string
	Role        string
	Tool        string
	Arguments   string
}

// Decision contains the outcome of a policy evaluation.
type Decision struct {
	Effect Effect
	Reason string
}

func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// Policy decides whether a tool call may proceed.
type Policy interface {
	Evaluate(ctx context.Context, req Request) (Decision, error)
}

// Rules configures a RuleEngine.
type Rules struct {
	// AllowTools, when non-empty, is the only set of tools that may run.
	AllowTools   []string
	DenyTools    []string
	DenyPatterns []string
}

// RuleEngine evaluates tool calls against static allow/deny rules.
type RuleEngine struct {
	allowed  map[string]bool
	denied   map[string]bool
	patterns []*regexp.Regexp
}

func NewRuleEngine(rules Rules) (*RuleEngine, error) {
	e := &RuleEngine{
		denied: make(map[string]bool),
	}
	if len(rules.AllowTools) > 0 {
		e.allowed = make(map[string]bool, len(rules.AllowTools))
		for _, name := range rules.AllowTools {
			e.allowed[name] = true
		}
	}
	for _, name := range rules.DenyTools {
		e.DenyTool(name)
	}
	for _, p := range rules.DenyPatterns {
		if err := e.DenyArguments(p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *RuleEngine) DenyTool(name string) {
	e.denied[name] = true
}

func (e *RuleEngine) DenyArguments(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errors.Wrapf(err, "invalid deny pattern %q", pattern)
	}
	e.patterns = append(e.patterns, re)
	return nil
}

func (e *RuleEngine) Evaluate(ctx context.Context, req Request) (Decision, error) {
	if e.allowed != nil && !e.allowed[req.Tool] {
		return Decision{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Tool '%s' is not on the allow list", req.Tool),
		}, nil
	}
	if e.denied[req.Tool] {
		return Decision{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Tool '%s' is restricted by system policy", req.Tool),
		}, nil
	}
	for _, re := range e.patterns {
		if re.MatchString(req.Arguments) {
			return Decision{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Arguments match restricted pattern: %s", re.String()),
			}, nil
		}
	}
	return Decision{Effect: EffectAllow, Reason: "Approved by default policy"}, nil
}

// AllowAll approves every request.
type AllowAll struct{}

func (AllowAll) Evaluate(ctx context.Context, req Request) (Decision, error) {
	return Decision{Effect: EffectAllow, Reason: "No policy configured"}, nil
}
