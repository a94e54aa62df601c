package observability

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EventType defines the category of a run event.
type EventType string

const (
	EventTypeState      EventType = "state"
	EventTypeStep       EventType = "step"
	EventTypeToolCall   EventType = "tool_call"
	EventTypeToolResult EventType = "tool_result"
	EventTypePolicy     EventType = "policy_check"
	EventTypeLLM        EventType = "llm"
)

// Event is one transcript line.
type Event struct {
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id,omitempty"`
	Data        any       `json:"data"`
	Timestamp   time.Time `json:"timestamp"`
}

// TranscriptConfig enables the LLM transcript file.
type TranscriptConfig struct {
	Path      string
	MaxSizeMB int
}

// Events emits structured run events. LLM exchanges are additionally
// appended to a rotating JSONL transcript when one is configured.
// A nil *Events drops everything.
type Events struct {
	log        zerolog.Logger
	transcript io.WriteCloser
}

func NewEvents(log zerolog.Logger, cfg TranscriptConfig) *Events {
	e := &Events{log: log}
	if cfg.Path != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		e.transcript = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    maxSize,
			MaxBackups: 1,
		}
	}
	return e
}

func (e *Events) State(executionID, from, to string) {
	if e == nil {
		return
	}
	e.log.Info().
		Str("event", string(EventTypeState)).
		Str("execution_id", executionID).
		Str("from", from).
		Str("to", to).
		Msg("Execution state changed")
}

func (e *Events) Step(executionID string, iteration int) {
	if e == nil {
		return
	}
	e.log.Debug().
		Str("event", string(EventTypeStep)).
		Str("execution_id", executionID).
		Int("iteration", iteration).
		Msg("Model round-trip")
}

func (e *Events) ToolCall(executionID, tool, args string) {
	if e == nil {
		return
	}
	e.log.Info().
		Str("event", string(EventTypeToolCall)).
		Str("execution_id", executionID).
		Str("tool", tool).
		Str("args", args).
		Msg("Executing tool")
}

func (e *Events) ToolResult(executionID, tool string, failed bool, content string) {
	if e == nil {
		return
	}
	evt := e.log.Info()
	if failed {
		evt = e.log.Warn()
	}
	evt.Str("event", string(EventTypeToolResult)).
		Str("execution_id", executionID).
		Str("tool", tool).
		Bool("failed", failed).
		Int("bytes", len(content)).
		Msg("Tool returned")
}

func (e *Events) PolicyDenied(executionID, tool, reason string) {
	if e == nil {
		return
	}
	e.log.Warn().
		Str("event", string(EventTypePolicy)).
		Str("execution_id", executionID).
		Str("tool", tool).
		Str("reason", reason).
		Msg("Tool call denied by policy")
}

// LLM records one model exchange.
func (e *Events) LLM(executionID string, prompt any, response string, toolCalls any) {
	if e == nil {
		return
	}
	e.log.Debug().
		Str("event", string(EventTypeLLM)).
		Str("execution_id", executionID).
		Int("response_bytes", len(response)).
		Msg("Model responded")

	if e.transcript == nil {
		return
	}
	data, err := json.Marshal(Event{
		Type:        EventTypeLLM,
		ExecutionID: executionID,
		Data: map[string]any{
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
		Timestamp: time.Now(),
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("failed to marshal transcript event")
		return
	}
	if _, err := e.transcript.Write(append(data, '\n')); err != nil {
		e.log.Warn().Err(err).Msg("failed to write transcript")
	}
}

func (e *Events) Close() error {
	if e == nil || e.transcript == nil {
		return nil
	}
	return e.transcript.Close()
}
