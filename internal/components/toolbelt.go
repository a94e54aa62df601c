// Package components adapts toolbelt registration, agent construction and
// task execution to the pipeline host's component contract.
package components

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rahul/crewline/internal/pipeline"
	"github.com/rahul/crewline/internal/tools"
)

const (
	ConversionToolbeltEntry = "ConversionTools.convert_images"
	ScrapeToolbeltEntry     = "WebTools.scrape"
	SearchToolbeltEntry     = "WebTools.search"
)

var registrarInputs = []pipeline.Port{{Name: "toolbelt_name", Kind: pipeline.KindString}}

// ConversionTool registers the batch image conversion tool.
type ConversionTool struct {
	Logger zerolog.Logger
}

func (c *ConversionTool) Name() string             { return "conversion_tool" }
func (c *ConversionTool) Inputs() []pipeline.Port  { return registrarInputs }
func (c *ConversionTool) Outputs() []pipeline.Port { return nil }

func (c *ConversionTool) ToolbeltPort() (string, bool) { return "toolbelt_name", true }

func (c *ConversionTool) Execute(ctx context.Context, pc *pipeline.Context, in pipeline.Values) (pipeline.Values, error) {
	pipeline.RegisterTools(pc, in.Text("toolbelt_name"), tools.Entry{
		Name: ConversionToolbeltEntry,
		Tool: tools.NewConvertTool(c.Logger),
	})
	return nil, nil
}

// WebTools registers the page scraper and, when available, web search.
type WebTools struct {
	Logger zerolog.Logger
	// Searcher overrides the DuckDuckGo client.
	Searcher tools.Searcher
}

func (w *WebTools) Name() string             { return "web_tools" }
func (w *WebTools) Inputs() []pipeline.Port  { return registrarInputs }
func (w *WebTools) Outputs() []pipeline.Port { return nil }

func (w *WebTools) ToolbeltPort() (string, bool) { return "toolbelt_name", true }

func (w *WebTools) Execute(ctx context.Context, pc *pipeline.Context, in pipeline.Values) (pipeline.Values, error) {
	entries := []tools.Entry{{Name: ScrapeToolbeltEntry, Tool: tools.NewScraperTool()}}

	var search *tools.SearchTool
	if w.Searcher != nil {
		search = tools.NewSearchToolWith(w.Searcher)
	} else {
		var err error
		search, err = tools.NewSearchTool(10)
		if err != nil {
			w.Logger.Warn().Err(err).Msg("Failed to initialize search tool")
		}
	}
	if search != nil {
		entries = append(entries, tools.Entry{Name: SearchToolbeltEntry, Tool: search})
	}

	pipeline.RegisterTools(pc, in.Text("toolbelt_name"), entries...)
	return nil, nil
}

// MakeToolbelt assembles a registered toolbelt into a toolbelt spec.
type MakeToolbelt struct{}

func (MakeToolbelt) Name() string { return "make_toolbelt" }

func (MakeToolbelt) Inputs() []pipeline.Port {
	return []pipeline.Port{{Name: "name", Kind: pipeline.KindString}}
}

func (MakeToolbelt) Outputs() []pipeline.Port {
	return []pipeline.Port{{Name: "toolbelt_spec", Kind: pipeline.KindList}}
}

func (MakeToolbelt) ToolbeltPort() (string, bool) { return "name", false }

func (MakeToolbelt) Execute(ctx context.Context, pc *pipeline.Context, in pipeline.Values) (pipeline.Values, error) {
	spec := pipeline.AssembleToolbelt(pc, in.Text("name"))
	return pipeline.Values{"toolbelt_spec": pipeline.ListValue(spec)}, nil
}
