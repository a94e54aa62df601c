package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rahul/crewline/internal/agent"
	"github.com/rahul/crewline/internal/components"
	"github.com/rahul/crewline/internal/governance"
	"github.com/rahul/crewline/internal/observability"
	"github.com/rahul/crewline/internal/pipeline"
	"github.com/rahul/crewline/internal/store"
	"github.com/rahul/crewline/pkg/config"
)

// app holds the services one CLI invocation runs against.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	events    *observability.Events
	journal   *store.Journal
	runner    *agent.Runner
	scheduler *pipeline.Scheduler
	catalog   pipeline.Catalog
}

// newApp wires configuration into the runner and component catalog.
// A nil binder selects one from the default provider.
func newApp(cfg *config.Config, logOut io.Writer, binder agent.ModelBinder) (*app, error) {
	logger, err := observability.NewLogger(observability.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}, logOut)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.events = observability.NewEvents(logger, observability.TranscriptConfig{
		Path:      cfg.Log.Transcript,
		MaxSizeMB: cfg.Log.TranscriptMaxSizeMB,
	})

	if cfg.Journal.Path != "" {
		a.journal, err = store.OpenJournal(cfg.Journal.Path)
		if err != nil {
			a.events.Close()
			return nil, err
		}
	}

	policy, err := governance.NewRuleEngine(governance.Rules{
		AllowTools:   cfg.Policy.AllowTools,
		DenyTools:    cfg.Policy.DenyTools,
		DenyPatterns: cfg.Policy.DenyPatterns,
	})
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "invalid policy")
	}

	model := agent.ModelConfig{}
	name, provider, ok := cfg.GetDefaultProvider()
	if ok {
		model = agent.ModelConfig{
			Name:        provider.Model,
			Temperature: agent.Temperature(provider.Temperature),
			APIKey:      provider.APIKey,
			BaseURL:     provider.BaseURL,
		}
	}
	if binder == nil {
		if !ok {
			a.Close()
			return nil, errors.New("no enabled provider found in config")
		}
		switch name {
		case "openai", "openrouter":
			binder = agent.OpenAIBinder{}
		default:
			a.Close()
			return nil, errors.Errorf("provider %s is not supported", name)
		}
	}

	a.runner = agent.NewRunner(logger, a.events)
	a.runner.Policy = policy
	a.runner.Prompts = agent.NewPromptManager(cfg.Prompts.Dir)
	if cfg.Agent.MaxIterations > 0 {
		a.runner.MaxIterations = cfg.Agent.MaxIterations
	}
	if a.journal != nil {
		a.runner.Journal = a.journal
	}

	a.catalog = components.Catalog(components.Env{
		Factory: agent.NewFactory(binder),
		Runner:  a.runner,
		Model:   model,
		Logger:  logger,
	})
	a.scheduler = pipeline.NewScheduler(a.catalog, logger)
	return a, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close journal")
		}
	}
	if err := a.events.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close transcript")
	}
}

// sinks returns the nodes no other node consumes or waits on, in
// declaration order.
func sinks(g *pipeline.Graph) []*pipeline.Node {
	consumed := make(map[string]bool)
	for _, n := range g.Nodes {
		for _, id := range n.After {
			consumed[id] = true
		}
		for _, b := range n.Inputs {
			if src, _, ok := b.Ref(); ok {
				consumed[src] = true
			}
		}
	}
	var out []*pipeline.Node
	for _, n := range g.Nodes {
		if !consumed[n.ID] {
			out = append(out, n)
		}
	}
	return out
}
