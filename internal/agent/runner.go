package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/crewline/internal/governance"
	"github.com/rahul/crewline/internal/observability"
	"github.com/rahul/crewline/internal/store"
)

// DefaultMaxIterations bounds the model round-trips of one execution.
const DefaultMaxIterations = 10

// Recorder persists finished executions.
type Recorder interface {
	RecordExecution(ctx context.Context, rec store.ExecutionRecord) error
}

// Runner drives a single agent through a single task: a crew of one.
// Each call is synchronous and the runner never retries.
type Runner struct {
	MaxIterations int
	Policy        governance.Policy
	Prompts       *PromptManager
	Journal       Recorder
	Events        *observability.Events
	Logger        zerolog.Logger
}

func NewRunner(logger zerolog.Logger, events *observability.Events) *Runner {
	return &Runner{
		MaxIterations: DefaultMaxIterations,
		Policy:        governance.AllowAll{},
		Events:        events,
		Logger:        logger,
	}
}

// Run executes description as a new task for a and returns its result.
// Failures are returned as *ExecutionError.
func (r *Runner) Run(ctx context.Context, a *Agent, description string) (string, error) {
	exec := r.Execute(ctx, NewTask(a, description))
	if exec.Err != nil {
		return "", exec.Err
	}
	return exec.Result, nil
}

// Execute runs task to completion and returns the finished execution.
func (r *Runner) Execute(ctx context.Context, task Task) *Execution {
	exec := &Execution{
		ID:    uuid.NewString(),
		Task:  task,
		State: StateCreated,
	}
	log := r.Logger.With().Str("execution_id", exec.ID).Logger()

	r.setState(exec, StateRunning)
	exec.StartedAt = time.Now()

	result, err := r.loop(ctx, exec)
	exec.FinishedAt = time.Now()
	if err != nil {
		exec.Err = &ExecutionError{ExecutionID: exec.ID, Err: err}
		r.setState(exec, StateFailed)
		log.Error().Err(err).Int("iterations", exec.Iterations).Msg("Task failed")
	} else {
		exec.Result = result
		r.setState(exec, StateCompleted)
		log.Info().Int("iterations", exec.Iterations).Int("tool_calls", exec.ToolCalls).Msg("Task completed")
	}

	r.record(context.WithoutCancel(ctx), exec)
	return exec
}

func (r *Runner) setState(exec *Execution, to State) {
	from := exec.State
	if err := exec.transition(to); err != nil {
		// Only reachable through a programming error in Execute.
		panic(err)
	}
	r.Events.State(exec.ID, string(from), string(to))
}

func (r *Runner) loop(ctx context.Context, exec *Execution) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Wrapf(ErrPanic, "%v", p)
		}
	}()

	a := exec.Task.Agent
	if a == nil {
		return "", ErrNoAgent
	}
	binding := a.Model()

	systemPrompt, err := r.Prompts.SystemPrompt(a)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("Failed to load prompt fragments")
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, TaskPrompt(exec.Task)),
	}

	opts := []llms.CallOption{llms.WithTemperature(binding.Temperature)}
	if defs := toolDefinitions(a); len(defs) > 0 {
		opts = append(opts, llms.WithTools(defs))
	}

	maxSteps := r.MaxIterations
	if maxSteps <= 0 {
		maxSteps = DefaultMaxIterations
	}

	for i := 0; i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(err, "execution cancelled")
		}
		exec.Iterations = i + 1
		r.Events.Step(exec.ID, exec.Iterations)

		resp, err := binding.Model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return "", errors.Wrap(err, "model call failed")
		}
		if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
			return "", ErrNoChoices
		}
		choice := resp.Choices[0]
		r.Events.LLM(exec.ID, messages, choice.Content, choice.ToolCalls)

		var assistantParts []llms.ContentPart
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})

		// No tool calls: this is the final answer.
		if len(choice.ToolCalls) == 0 {
			if strings.TrimSpace(choice.Content) == "" {
				return "", ErrEmptyAnswer
			}
			return choice.Content, nil
		}

		for _, tc := range choice.ToolCalls {
			content, err := r.invokeTool(ctx, exec, tc)
			if err != nil {
				return "", err
			}
			name := ""
			if tc.FunctionCall != nil {
				name = tc.FunctionCall.Name
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       name,
						Content:    content,
					},
				},
			})
		}
	}

	return "", errors.Wrapf(ErrMaxIterations, "after %d iterations", maxSteps)
}

// invokeTool returns the text fed back to the model. Unknown tools and policy
// denials become error messages for the model; only policy engine failures abort.
func (r *Runner) invokeTool(ctx context.Context, exec *Execution, tc llms.ToolCall) (string, error) {
	var name, args string
	if tc.FunctionCall != nil {
		name, args = tc.FunctionCall.Name, tc.FunctionCall.Arguments
	}

	tool, ok := exec.Task.Agent.tools.Lookup(name)
	if !ok {
		return fmt.Sprintf("Error: Tool %s not found", name), nil
	}

	decision, err := r.policy().Evaluate(ctx, governance.Request{
		ExecutionID: exec.ID,
		Role:        exec.Task.Agent.Role(),
		Tool:        name,
		Arguments:   args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "policy check for %s", name)
	}
	if !decision.Allowed() {
		r.Events.PolicyDenied(exec.ID, name, decision.Reason)
		return "Error: " + decision.Reason, nil
	}

	exec.ToolCalls++
	r.Events.ToolCall(exec.ID, name, args)
	res := tool.Invoke(ctx, args)
	content := res.String()
	r.Events.ToolResult(exec.ID, name, res.Failed(), content)
	return content, nil
}

func (r *Runner) policy() governance.Policy {
	if r.Policy == nil {
		return governance.AllowAll{}
	}
	return r.Policy
}

func (r *Runner) record(ctx context.Context, exec *Execution) {
	if r.Journal == nil {
		return
	}
	rec := store.ExecutionRecord{
		ID:         exec.ID,
		Task:       exec.Task.Description,
		State:      string(exec.State),
		Result:     exec.Result,
		Iterations: exec.Iterations,
		ToolCalls:  exec.ToolCalls,
		StartedAt:  exec.StartedAt,
		FinishedAt: exec.FinishedAt,
	}
	if exec.Task.Agent != nil {
		rec.Role = exec.Task.Agent.Role()
	}
	if exec.Err != nil {
		rec.Error = exec.Err.Error()
	}
	if err := r.Journal.RecordExecution(ctx, rec); err != nil {
		r.Logger.Warn().Err(err).Str("execution_id", exec.ID).Msg("Failed to journal execution")
	}
}

// toolDefinitions offers one definition per tool name. When names collide the
// last tool wins, matching Spec.Lookup.
func toolDefinitions(a *Agent) []llms.Tool {
	last := make(map[string]int, len(a.tools))
	for i, t := range a.tools {
		last[t.Name()] = i
	}
	defs := make([]llms.Tool, 0, len(last))
	for i, t := range a.tools {
		if last[t.Name()] != i {
			continue
		}
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}
