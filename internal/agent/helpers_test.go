package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/crewline/internal/store"
	"github.com/rahul/crewline/internal/tools"
)

// scriptedModel replays canned responses and records every request.
type scriptedModel struct {
	responses []*llms.ContentResponse
	err       error

	calls    int
	messages [][]llms.MessageContent
	options  []llms.CallOptions
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	m.options = append(m.options, opts)
	m.messages = append(m.messages, append([]llms.MessageContent(nil), messages...))

	i := m.calls
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if i >= len(m.responses) {
		return nil, errors.New("script exhausted")
	}
	return m.responses[i], nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func toolCallResponse(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           id,
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
		}},
	}}}
}

// recordingTool captures the inputs it was invoked with.
type recordingTool struct {
	name   string
	reply  tools.Result
	inputs []string
	panics bool
}

func (t *recordingTool) Name() string               { return t.name }
func (t *recordingTool) Description() string        { return "records " + t.name }
func (t *recordingTool) Parameters() map[string]any { return map[string]any{"type": "object"} }

func (t *recordingTool) Invoke(ctx context.Context, input string) tools.Result {
	t.inputs = append(t.inputs, input)
	if t.panics {
		panic("tool exploded")
	}
	return t.reply
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []store.ExecutionRecord
}

func (m *memoryRecorder) RecordExecution(ctx context.Context, rec store.ExecutionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}
