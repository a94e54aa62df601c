package tools

import (
	"context"
)

// Tool defines the interface for all agent capabilities.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
	Invoke(ctx context.Context, input string) Result
}

// ErrorKind classifies a soft tool failure.
type ErrorKind string

const (
	ErrInvalidInput     ErrorKind = "invalid_input"
	ErrMissingParameter ErrorKind = "missing_parameter"
	ErrIO               ErrorKind = "io"
	ErrUpstream         ErrorKind = "upstream"
)

// ToolError is a failure the tool reports back to the agent instead of raising.
type ToolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

// Result is what a tool hands back to the agent: either an output or a soft error.
// Callers always render it with String; a Result never aborts a run.
type Result struct {
	Output string
	Err    *ToolError
}

func Ok(output string) Result {
	return Result{Output: output}
}

func Fail(kind ErrorKind, message string) Result {
	return Result{Err: &ToolError{Kind: kind, Message: message}}
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// String renders the result as the text the model will read.
func (r Result) String() string {
	if r.Err != nil {
		return "Error: " + r.Err.Message
	}
	return r.Output
}

type funcTool struct {
	name        string
	description string
	params      map[string]any
	fn          func(ctx context.Context, input string) Result
}

// New builds a Tool from a plain function.
func New(name, description string, params map[string]any, fn func(ctx context.Context, input string) Result) Tool {
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &funcTool{name: name, description: description, params: params, fn: fn}
}

func (t *funcTool) Name() string               { return t.name }
func (t *funcTool) Description() string        { return t.description }
func (t *funcTool) Parameters() map[string]any { return t.params }

func (t *funcTool) Invoke(ctx context.Context, input string) Result {
	return t.fn(ctx, input)
}
