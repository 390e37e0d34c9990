package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/archgraph-dev/archgraph/internal/app"
	"github.com/archgraph-dev/archgraph/internal/diag"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// buildOptions holds the flag values of the build command.
type buildOptions struct {
	docs         string
	applications string
	manifest     string
	logLevel     string
	logFormat    string
}

// New constructs the root command. Build output goes to out; logs and
// usage errors go to errOut.
func New(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "archgraph",
		Short: "Build and validate an architecture documentation graph",
		Long: `archgraph assembles a project's architecture model from its declaration
files, application manifests, and directory layout, resolves every
cross-reference, and reports what is missing, duplicated, or unreachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.AddCommand(newBuildCommand(out, errOut))
	return root
}

func newBuildCommand(out, errOut io.Writer) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "Build the graph of the project at path (default \".\")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runBuild(cmd.Context(), out, errOut, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.docs, "docs", "", "declaration directory, relative to the project root (default \"docs\")")
	flags.StringVar(&opts.applications, "applications", "", "application directory, relative to the project root (default \"applications\")")
	flags.StringVar(&opts.manifest, "manifest", "", "per-application manifest file name (default \"app.toml\")")
	flags.StringVar(&opts.logLevel, "log-level", "info", "logging level: 'debug', 'info', 'warn', or 'error'")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log output format: 'text' or 'json'")
	return cmd
}

func runBuild(ctx context.Context, out, errOut io.Writer, root string, opts *buildOptions) error {
	logFormat := strings.ToLower(opts.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch strings.ToLower(opts.logLevel) {
	case "debug", "info", "warn", "error":
	default:
		return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := app.Config{
		RootPath:     root,
		ManifestName: opts.manifest,
		LogLevel:     opts.logLevel,
		LogFormat:    logFormat,
	}
	if opts.docs != "" {
		cfg.DocsPath = filepath.Join(root, opts.docs)
	}
	if opts.applications != "" {
		cfg.AppsPath = filepath.Join(root, opts.applications)
	}

	logger := app.NewLogger(errOut, opts.logLevel, logFormat)
	a, err := app.NewApp(out, logger, cfg)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	result, err := a.Run(ctx)
	if err != nil {
		return err
	}

	printDiagnostics(out, result.Diags)
	if result.View != nil {
		fmt.Fprintln(out)
		if err := result.View.Render(out); err != nil {
			return err
		}
	}

	if !result.OK() {
		return &ExitError{
			Code: 1,
			Message: fmt.Sprintf("build failed: %d errors, %d warnings",
				result.Diags.Errors(), result.Diags.Warnings()),
		}
	}
	fmt.Fprintf(out, "\nbuild succeeded: %d entities, %d warnings\n",
		result.Graph.Len(), result.Diags.Warnings())
	return nil
}

// printDiagnostics writes every diagnostic with its location, plus the
// secondary locations a finding refers back to.
func printDiagnostics(w io.Writer, diags diag.List) {
	for _, d := range diags {
		fmt.Fprintln(w, d)
		for _, rel := range d.Related {
			fmt.Fprintf(w, "  see also: %s\n", rel)
		}
	}
}
