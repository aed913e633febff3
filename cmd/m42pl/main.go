package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpclipffel/m42pl-core/pkg/builtin"
	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
	"github.com/jpclipffel/m42pl-core/pkg/script"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderErr(err))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "m42pl",
		Short: "m42pl — pipeline script introspection",
		Long: `m42pl parses pipeline scripts and exposes a command's registered
grammar. It does not run pipelines: that needs a concrete dispatcher
back-end, which is out of scope here.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initLogger(logLevel, logFormat)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	root.AddCommand(parseCmd())
	root.AddCommand(grammarCmd())
	return root
}

func initLogger(level, format string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q: use debug, info, warn, or error", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q: use text or json", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// ─── registry ────────────────────────────────────────────────────────────────

func buildRegistry() (*command.Registry, error) {
	reg := command.NewRegistry(slog.Default())
	if err := builtin.Register(reg); err != nil {
		return nil, fmt.Errorf("register builtin commands: %w", err)
	}
	return reg, nil
}

// ─── parse ───────────────────────────────────────────────────────────────────

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a pipeline script and dump its pipelines map as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %q: %w", path, err)
			}

			reg, err := buildRegistry()
			if err != nil {
				return err
			}

			prog, err := script.Parse(string(src), reg, path)
			if err != nil {
				return renderParseErr(string(src), err)
			}

			out := map[string]any{}
			for name, p := range prog.Pipelines.All() {
				out[name] = pipelineToDict(p)
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal pipelines: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
	return cmd
}

// pipelineToDict renders a built Pipeline's command chain (metas,
// generator, processors, in that order) the way command.ToDict renders a
// single instance.
func pipelineToDict(p *pipeline.Pipeline) map[string]any {
	commands := make([]map[string]any, 0, len(p.Metas)+len(p.Processors)+1)
	for _, m := range p.Metas {
		commands = append(commands, command.ToDict(m))
	}
	if p.Generator != nil {
		commands = append(commands, command.ToDict(p.Generator))
	}
	for _, proc := range p.Processors {
		if inst, ok := proc.(command.Instance); ok {
			commands = append(commands, command.ToDict(inst))
		}
	}
	return map[string]any{"name": p.Name, "commands": commands}
}

// ─── grammar ─────────────────────────────────────────────────────────────────

func grammarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar [alias]",
		Short: "Dump a registered command's about/syntax, or list every alias",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := buildRegistry()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				aliases := reg.Aliases()
				sort.Strings(aliases)
				for _, a := range aliases {
					fmt.Println(a)
				}
				return nil
			}

			alias := args[0]
			_, about, ok := reg.Lookup(alias)
			if !ok {
				return &perrors.ObjectNotFoundError{Kind: "command", Name: alias}
			}
			fmt.Printf("%s\n\n%s\n\nSyntax: %s\n", about.Alias, about.About, about.Syntax)
			return nil
		},
	}
	return cmd
}

// ─── error rendering ─────────────────────────────────────────────────────────

// renderErr renders header / short description for any domain error,
// falling back to a bare error string otherwise.
func renderErr(err error) string {
	if m, ok := err.(perrors.M42PLError); ok {
		return fmt.Sprintf("error: %s: %v", m.ShortDesc(), err)
	}
	return fmt.Sprintf("error: %v", err)
}

// renderParseErr folds in perrors.RenderSnippet's source-offset snippet
// for a script/command error raised while parsing src, matching the
// header / short_desc / location / snippet shape.
func renderParseErr(src string, err error) error {
	var offset = -1
	switch e := err.(type) {
	case *perrors.ScriptError:
		offset = e.Offset
	case *perrors.CommandError:
		offset = e.Offset
	}
	if offset < 0 {
		return err
	}
	snippet := perrors.RenderSnippet(src, offset)
	if snippet == "" {
		return err
	}
	return fmt.Errorf("%w\n  near: %s", err, snippet)
}
