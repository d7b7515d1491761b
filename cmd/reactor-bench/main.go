// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command reactor-bench drives a scheduler.Scheduler against a synthetic
// reaction graph for a bounded number of tags, and reports per-level
// dispatch counts and wall time. It is the concrete "host runtime" the
// scheduler core treats as an external collaborator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/tanneberger/reactor-sched/cmd/reactor-bench/internal/bench"
)

func main() {
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "reactor-bench: maxprocs: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reactor-bench",
		Short: "Drive the level-synchronized reaction scheduler against a synthetic workload",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var cfg bench.Config

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic reaction graph to a bounded number of tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := bench.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result.Print(cmd.OutOrStdout())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Workers, "workers", 4, "number of worker goroutines")
	flags.IntVar(&cfg.Levels, "levels", 3, "number of precedence levels")
	flags.IntVar(&cfg.ReactionsPerLevel, "reactions-per-level", 50, "reactions registered at each level")
	flags.IntVar(&cfg.Tags, "tags", 1000, "number of logical tags to run before stopping")
	flags.StringVar(&cfg.ConfigPath, "config", "", "optional TOML file overriding workers/levels")
	flags.StringVar(&cfg.TracePath, "trace", "", "optional file to persist the dispatch trace to")

	return cmd
}
