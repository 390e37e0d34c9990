package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/archgraph-dev/archgraph/internal/cli"
)

// main is the entrypoint for the archgraph binary.
func main() {
	// Minimal logger until the build command configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command tree; split out of main so tests can drive it
// with their own writers and argument lists.
func run(out, errOut io.Writer, args []string) error {
	root := cli.New(out, errOut)
	root.SetArgs(args)
	return root.Execute()
}
