package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rahul/crewline/internal/agent"
	"github.com/rahul/crewline/internal/components"
	"github.com/rahul/crewline/internal/pipeline"
	"github.com/rahul/crewline/pkg/config"
)

// options carries injectable dependencies for tests.
type options struct {
	Binder agent.ModelBinder
}

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(options{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts options) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "crewline",
		Short:        "crewline - run tool-using agents as component pipelines",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ./crewline.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format override: console or json")

	root.AddCommand(
		newRunCmd(flags, opts),
		newAskCmd(flags, opts),
		newComponentsCmd(),
		newHistoryCmd(flags, opts),
	)
	return root
}

// setup loads .env and configuration, then builds the app.
func setup(cmd *cobra.Command, flags *rootFlags, opts options) (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	return newApp(cfg, cmd.ErrOrStderr(), opts.Binder)
}

func newRunCmd(flags *rootFlags, opts options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <graph.yaml>",
		Short: "Run a pipeline graph and print the string outputs of its final nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open graph")
			}
			g, err := pipeline.LoadGraph(f)
			f.Close()
			if err != nil {
				return err
			}
			if g.Name == "" {
				g.Name = args[0]
			}

			a, err := setup(cmd, flags, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			outputs, err := a.scheduler.Run(cmd.Context(), g)
			if err != nil {
				return err
			}
			printSinks(cmd.OutOrStdout(), g, outputs)
			return nil
		},
	}
}

func printSinks(w io.Writer, g *pipeline.Graph, outputs pipeline.Outputs) {
	nodes := sinks(g)
	for _, n := range nodes {
		out := outputs[n.ID]
		names := make([]string, 0, len(out))
		for name, v := range out {
			if v.Kind() == pipeline.KindString {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			if len(nodes) > 1 || len(names) > 1 {
				fmt.Fprintf(w, "[%s.%s]\n", n.ID, name)
			}
			fmt.Fprintln(w, out.Text(name))
		}
	}
}

func newAskCmd(flags *rootFlags, opts options) *cobra.Command {
	var req components.AskRequest
	cmd := &cobra.Command{
		Use:   "ask <task>",
		Short: "Run a single task with a one-off agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Task = strings.Join(args, " ")
			g, err := components.AskGraph(req)
			if err != nil {
				return err
			}

			a, err := setup(cmd, flags, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			outputs, err := a.scheduler.Run(cmd.Context(), g)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outputs["run"].Text("result"))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Role, "role", "", "agent role")
	cmd.Flags().StringVar(&req.Goal, "goal", "", "agent goal")
	cmd.Flags().StringVar(&req.Backstory, "backstory", "", "agent backstory")
	cmd.Flags().StringVar(&req.Model, "model", "", "model name override")
	cmd.Flags().StringSliceVar(&req.Toolsets, "toolbelt", nil, "tool sets to register: conversion, web")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func newComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List pipeline components and their ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := components.Catalog(components.Env{})
			names := make([]string, 0, len(cat))
			for name := range cat {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPONENT\tINPUTS\tOUTPUTS")
			for _, name := range names {
				c := cat[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, formatPorts(c.Inputs(), true), formatPorts(c.Outputs(), false))
			}
			return tw.Flush()
		},
	}
}

// formatPorts renders ports as name:kind, marking optional inputs with "?".
func formatPorts(ports []pipeline.Port, inputs bool) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		s := p.Name + ":" + p.Kind.String()
		if inputs && !p.Required {
			s += "?"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func newHistoryCmd(flags *rootFlags, opts options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent task executions from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.journal == nil {
				return errors.New("journal is disabled; set journal.path")
			}

			recs, err := a.journal.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tROLE\tSTATE\tITER\tTASK")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Role, r.State, r.Iterations, truncate(r.Task, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of executions to show")
	return cmd
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
