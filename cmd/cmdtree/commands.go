package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/cmdtree/internal/app"
)

const (
	rootUse   = "cmdtree"
	rootShort = "Dispatch command lines against a literal command tree"
	rootLong  = `cmdtree matches input lines against a tree of literal command names,
selects the overload whose argument count fits, decodes the arguments and
runs the handler.

The tree comes from a Lua script (--script) or, without one, the built-in
elytra demo tree. Configuration layers are defaults, the --config file
(TOML or YAML), CMDTREE_ environment variables and flags.`

	runExample = `  # Dispatch one line against the demo tree
  cmdtree run -- elytra test sneed 1 2.5 3

  # Pass the line as a single argument to keep quoting
  cmdtree run 'elytra test sneed 1 "2.5" 3'`

	batchExample = `  # Dispatch every line of a file
  cmdtree batch --script tree.lua commands.txt

  # Read stdin and reload tree.lua when it changes
  cmdtree batch --script tree.lua --watch -`
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	scriptPath string
	logLevel   string
	logFormat  string
	metrics    bool
}

func (g *globalOptions) appOptions(cmd *cobra.Command, stdout, logOutput io.Writer) app.Options {
	overrides := map[string]any{}
	if cmd.Flags().Changed("log-level") {
		overrides["logging.level"] = g.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		overrides["logging.format"] = g.logFormat
	}
	if cmd.Flags().Changed("metrics") {
		overrides["dispatch.metrics"] = g.metrics
	}
	return app.Options{
		ConfigPath: g.configPath,
		ScriptPath: g.scriptPath,
		Overrides:  overrides,
		Stdout:     stdout,
		LogOutput:  logOutput,
	}
}

func newRootCommand(stdin io.Reader, stdout io.Writer, stderr *printer) *cobra.Command {
	var g globalOptions

	root := &cobra.Command{
		Use:           rootUse,
		Short:         rootShort,
		Long:          rootLong,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "path to a TOML or YAML configuration file")
	flags.StringVarP(&g.scriptPath, "script", "s", "", "Lua script defining the command tree")
	flags.StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&g.logFormat, "log-format", "text", "log format (text, json)")
	flags.BoolVar(&g.metrics, "metrics", false, "log dispatch metrics on exit")

	root.AddCommand(
		newRunCommand(&g, stdout, stderr),
		newBatchCommand(&g, stdin, stdout, stderr),
		newUsageCommand(&g, stdout, stderr),
		newCheckCommand(&g, stdout, stderr),
	)
	return root
}

func newRunCommand(g *globalOptions, stdout io.Writer, stderr *printer) *cobra.Command {
	return &cobra.Command{
		Use:     "run [--] <line...>",
		Short:   "Dispatch a single command line",
		Example: runExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(g.appOptions(cmd, stdout, stderr))
			if err != nil {
				return setupError(err)
			}
			defer a.Shutdown()

			if _, err := a.Dispatch(joinLine(args)); err != nil {
				stderr.Error(err)
				stderr.Help(a.Help(err))
				return &exitError{code: exitDispatch}
			}
			return nil
		},
	}
}

func newBatchCommand(g *globalOptions, stdin io.Reader, stdout io.Writer, stderr *printer) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:     "batch [file|-]",
		Short:   "Dispatch each line of a file or stdin",
		Long:    "Dispatch each non-empty line of a file, or stdin when the file is - or omitted. Lines starting with # are comments. Every failing line is reported and the run continues.",
		Example: batchExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := stdin
			name := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return setupError(err)
				}
				defer f.Close()
				in, name = f, args[0]
			}

			opts := g.appOptions(cmd, stdout, stderr)
			opts.Watch = watch
			a, err := app.New(opts)
			if err != nil {
				return setupError(err)
			}
			defer a.Shutdown()

			sum, err := a.RunBatch(cmd.Context(), in, func(r app.LineResult) {
				if r.Err != nil {
					stderr.Error(fmt.Errorf("%s:%d: %w", name, r.Line, r.Err))
				}
			})
			if err != nil {
				return setupError(fmt.Errorf("reading %s: %w", name, err))
			}
			if sum.Failed > 0 {
				return &exitError{code: exitDispatch}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the script when it changes")
	return cmd
}

func newUsageCommand(g *globalOptions, stdout io.Writer, stderr *printer) *cobra.Command {
	var types bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Print the usage line of every overload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(g.appOptions(cmd, stdout, stderr))
			if err != nil {
				return setupError(err)
			}
			defer a.Shutdown()

			for _, line := range a.Usage(types) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&types, "types", "t", false, "include argument types")
	return cmd
}

func newCheckCommand(g *globalOptions, stdout io.Writer, stderr *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate a script tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.scriptPath == "" {
				return setupError(errors.New("check requires --script"))
			}
			a, err := app.New(g.appOptions(cmd, stdout, stderr))
			if err != nil {
				return setupError(err)
			}
			defer a.Shutdown()

			root := a.Dispatcher().Root()
			fmt.Fprintf(stdout, "%s: tree %q is valid (%d usage lines)\n", g.scriptPath, root.Name(), len(a.Usage(false)))
			return nil
		},
	}
}

// joinLine builds the input line from command arguments. A single argument
// is used as is; otherwise arguments that are empty or contain spaces are quoted.
func joinLine(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		if arg == "" || strings.Contains(arg, " ") {
			arg = `"` + arg + `"`
		}
		parts[i] = arg
	}
	return strings.Join(parts, " ")
}
