package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/graphload/internal/generator"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "datagen: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := generator.DefaultConfig()
	var outputDir string

	cmd := &cobra.Command{
		Use:           "datagen",
		Short:         "Generate vertices.csv and edges.csv for import rehearsals",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.DanglingEdgeChance = clampProbability(cfg.DanglingEdgeChance)
			cfg.SelfLoopChance = clampProbability(cfg.SelfLoopChance)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			dataset, err := generator.New(cfg).Generate(ctx)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}
			if err := generator.WriteDataset(dataset, outputDir); err != nil {
				return fmt.Errorf("failed to write dataset: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d vertices and %d edges into %s (edges match on %q)\n",
				len(dataset.Vertices), len(dataset.Edges), outputDir, generator.KeyProperty)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.NumVertices, "vertices", cfg.NumVertices, "number of vertices to generate")
	f.IntVar(&cfg.NumEdges, "edges", cfg.NumEdges, "number of edges to generate")
	f.Float64Var(&cfg.DanglingEdgeChance, "dangling-chance", cfg.DanglingEdgeChance, "probability an edge targets a missing vertex")
	f.Float64Var(&cfg.SelfLoopChance, "self-loop-chance", cfg.SelfLoopChance, "probability an edge targets its own source")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for deterministic generation")
	f.StringVar(&outputDir, "output-dir", "data", "directory to write vertices.csv and edges.csv")
	return cmd
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
