package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/crewline/internal/agent"
	"github.com/rahul/crewline/internal/pipeline"
	"github.com/rahul/crewline/pkg/config"
)

type replyModel struct {
	replies []string
	calls   int
}

func (m *replyModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.calls >= len(m.replies) {
		return nil, errors.New("no more replies")
	}
	r := m.replies[m.calls]
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: r}}}, nil
}

func (m *replyModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

const helloGraph = `name: hello
nodes:
  - id: convert
    component: conversion_tool
  - id: toolbelt
    component: make_toolbelt
    after: [convert]
  - id: agent
    component: agent_init
    inputs:
      role: Assistant
      goal: Help
      toolbelt_spec: {from: toolbelt.toolbelt_spec}
  - id: run
    component: run_tasks
    inputs:
      agent: {from: agent.agent}
      task_description: Say hello
`

// writeConfig creates a config with a journal under dir and returns its path.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "crewline.yaml")
	body := "journal:\n  path: " + filepath.Join(dir, "journal.db") + "\nlog:\n  level: error\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(t *testing.T, model llms.Model, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(options{Binder: agent.StaticBinder(model)})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	graphPath := filepath.Join(dir, "hello.yaml")
	require.NoError(t, os.WriteFile(graphPath, []byte(helloGraph), 0644))

	out, err := execute(t, &replyModel{replies: []string{"Hello!"}}, "--config", cfgPath, "run", graphPath)
	require.NoError(t, err)
	assert.Equal(t, "Hello!\n", out)

	out, err = execute(t, &replyModel{}, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "Assistant")
	assert.Contains(t, out, "Say hello")
}

func TestRunCommand_MissingGraph(t *testing.T) {
	_, err := execute(t, &replyModel{}, "run", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestAskCommand(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	out, err := execute(t, &replyModel{replies: []string{"Hi there"}},
		"--config", cfgPath, "ask", "--role", "Assistant", "--goal", "Help", "--toolbelt", "conversion", "Say", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there\n", out)
}

func TestAskCommand_RequiresRole(t *testing.T) {
	_, err := execute(t, &replyModel{}, "ask", "--goal", "Help", "Say hello")
	assert.Error(t, err)
}

func TestComponentsCommand(t *testing.T) {
	out, err := execute(t, &replyModel{}, "components")
	require.NoError(t, err)
	for _, name := range []string{"agent_init", "conversion_tool", "make_toolbelt", "run_tasks", "web_tools"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "task_description:string")
	assert.Contains(t, out, "toolbelt_spec:list")
}

func TestHistoryCommand_JournalDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crewline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0644))

	_, err := execute(t, &replyModel{}, "--config", path, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal is disabled")
}

func TestNewApp_UnsupportedProvider(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{"anthropic": {Model: "claude", Enabled: true}},
		Log:       config.LogConfig{Level: "error", Format: "json"},
	}
	_, err := newApp(cfg, &bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestNewApp_NoProvider(t *testing.T) {
	cfg := &config.Config{Log: config.LogConfig{Format: "json"}}
	_, err := newApp(cfg, &bytes.Buffer{}, nil)
	assert.Error(t, err)
}

func TestNewApp_InvalidPolicy(t *testing.T) {
	cfg := &config.Config{
		Policy: config.PolicyConfig{DenyPatterns: []string{"("}},
		Log:    config.LogConfig{Format: "json"},
	}
	_, err := newApp(cfg, &bytes.Buffer{}, agent.StaticBinder(&replyModel{}))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid policy"))
}

func TestSinks(t *testing.T) {
	g, err := pipeline.LoadGraph(strings.NewReader(helloGraph))
	require.NoError(t, err)
	nodes := sinks(g)
	require.Len(t, nodes, 1)
	assert.Equal(t, "run", nodes[0].ID)
}
