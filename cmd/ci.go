/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/themailman05/factory/braintrust"
	"github.com/themailman05/factory/cichecks"
	"github.com/themailman05/factory/config"
	"github.com/themailman05/factory/gitdiff"
	"github.com/themailman05/factory/record"
	"github.com/themailman05/factory/report"
	"github.com/themailman05/factory/scorecard"
)

func newCICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ci",
		Short: "Run repository checks for the current PR and gate on failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return runCI(ctx, cfg, dir)
		},
	}
}

func runCI(ctx context.Context, cfg config.Config, dir string) error {
	log := clog.FromContext(ctx)

	specs, err := cichecks.Detect(dir)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		fmt.Println("No recognized project type and no check manifest; nothing to run")
		return nil
	}

	checks := cichecks.Run(ctx, dir, specs)

	// Diff precision is informational in the CI hook: it is reported and
	// logged but never gates the exit status.
	inspector := gitdiff.NewInspector(gitdiff.NewGitProvider(dir))
	summary := inspector.Inspect(ctx, cfg.BaseRef, "HEAD")
	checks = append(checks, scorecard.DiffPrecision(summary.Lines()))

	if err := report.ScoreTable(os.Stdout, checks); err != nil {
		return err
	}

	expName := fmt.Sprintf("ci-pr%s-%s", cfg.PRNumber, cfg.ShortSHA())
	bt := braintrust.New(cfg.BraintrustAPIURL, cfg.BraintrustAPIKey)
	if exp, err := bt.Experiment(ctx, cfg.Project, expName); err != nil {
		log.With("error", err.Error()).Warn("Experiment unavailable, skipping backend log")
	} else {
		ev := braintrust.Event{
			Input: fmt.Sprintf("PR #%s (%s)", cfg.PRNumber, cfg.PRBranch),
			Output: map[string]any{
				"commit":     cfg.CommitSHA,
				"diff_lines": summary.Lines(),
			},
			Expected: record.Expected{Status: record.StatusSuccess},
			Scores:   scorecard.Fold(checks),
			Metadata: map[string]any{
				"pr":     cfg.PRNumber,
				"branch": cfg.PRBranch,
				"commit": cfg.CommitSHA,
				"source": "ci-hook",
			},
		}
		if err := exp.Log(ctx, ev); err != nil {
			log.With("error", err.Error()).Warn("Experiment log failed")
		} else if _, err := exp.Summarize(ctx); err != nil {
			log.With("error", err.Error()).Warn("Experiment summarize failed")
		}
	}

	if err := report.AppendCISummary(cfg.StepSummary, report.CISummary{
		PRNumber:     cfg.PRNumber,
		Project:      cfg.Project,
		Experiment:   expName,
		Checks:       checks,
		FilesChanged: summary.FilesChanged,
		Insertions:   summary.Insertions,
		Deletions:    summary.Deletions,
	}); err != nil {
		log.With("error", err.Error()).Warn("Step summary append failed")
	}

	if cichecks.AnyHardFailure(checks) {
		return fmt.Errorf("one or more checks failed for PR #%s", cfg.PRNumber)
	}
	return nil
}
