/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/themailman05/factory/braintrust"
	"github.com/themailman05/factory/config"
	"github.com/themailman05/factory/gitdiff"
	"github.com/themailman05/factory/replay"
)

func newRegressCmd() *cobra.Command {
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "regress",
		Short: "Replay recorded tasks from the dataset and compare scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			return runRegress(ctx, cfg, replay.Options{Limit: limit, DryRun: dryRun})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tasks to replay (0 = all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list tasks without dispatching the runner")
	return cmd
}

func runRegress(ctx context.Context, cfg config.Config, opts replay.Options) error {
	log := clog.FromContext(ctx)

	bt := braintrust.New(cfg.BraintrustAPIURL, cfg.BraintrustAPIKey)
	ds, err := bt.Dataset(ctx, cfg.Project, cfg.Dataset)
	if err != nil {
		return err
	}

	// A dry run never writes, so the experiment is only created when rows
	// will actually be dispatched.
	var exp *braintrust.Experiment
	if !opts.DryRun {
		name := "regression-" + time.Now().Format("20060102-150405")
		exp, err = bt.Experiment(ctx, cfg.Project, name)
		if err != nil {
			return err
		}
		log.With("experiment", exp.Name()).Info("Replaying into experiment")
	}

	replayer := replay.New(
		ds,
		exp,
		replay.NewScriptRunner(cfg.Runner),
		gitdiff.NewGitProvider(cfg.Repo),
		cfg.RunsDir,
		os.Stdout,
	)

	summary, err := replayer.Replay(ctx, opts)
	if err != nil {
		return err
	}

	if !opts.DryRun && summary.Total > 0 {
		if s, err := exp.Summarize(ctx); err != nil {
			log.With("error", err.Error()).Warn("Experiment summarize failed")
		} else if s.ExperimentURL != "" {
			fmt.Printf("Results: %s\n", s.ExperimentURL)
		}
	}
	return nil
}
