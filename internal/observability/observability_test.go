package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "v", line["k"])
}

func TestNewLogger_AutoFormatOnBufferIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(Config{}, &buf)
	require.NoError(t, err)
	log.Info().Msg("hello")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = NewLogger(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestEvents_TranscriptRecordsLLMOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "llm.jsonl")
	events := NewEvents(zerolog.Nop(), TranscriptConfig{Path: path})

	events.ToolCall("exec-1", "convert_images", "{}")
	events.LLM("exec-1", []string{"hi"}, "hello there", nil)
	require.NoError(t, events.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var evt Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &evt))
		lines = append(lines, evt)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, EventTypeLLM, lines[0].Type)
	assert.Equal(t, "exec-1", lines[0].ExecutionID)
}

func TestEvents_NilIsSafe(t *testing.T) {
	var events *Events
	events.State("x", "CREATED", "RUNNING")
	events.LLM("x", nil, "", nil)
	assert.NoError(t, events.Close())
}

func TestEvents_LogsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	events := NewEvents(zerolog.New(&buf), TranscriptConfig{})
	events.PolicyDenied("exec-2", "scrape_page", "denied tool")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "policy_check", line["event"])
	assert.Equal(t, "scrape_page", line["tool"])
}
