package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vanshika/graphload/internal/graph"
)

// app holds process-wide dependencies so commands can be driven from tests.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	openClient func(ctx context.Context, opts graph.Options) (graph.Client, error)
	envFiles   []string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:     stdout,
		stderr:     stderr,
		openClient: graph.NewNeo4jClient,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "graphload",
		Short:         "Bulk-load CSV vertices and edges into a property graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")
	root.AddCommand(a.importCommand())
	return root
}

func execute(ctx context.Context, a *app, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		code := exitCodeOf(err)
		if code != ExitRecordFailures {
			fmt.Fprintf(a.stderr, "graphload: %v\n", err)
		}
		return code
	}
	return ExitSuccess
}
