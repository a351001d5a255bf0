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
	"github.com/themailman05/factory/config"
	"github.com/themailman05/factory/gitdiff"
	"github.com/themailman05/factory/record"
	"github.com/themailman05/factory/report"
	"github.com/themailman05/factory/rundir"
	"github.com/themailman05/factory/scorecard"
)

// checkLogLines is the tail kept from the final iteration's check log when
// capturing a dataset row.
const checkLogLines = 30

func newPostRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-run <run-dir>",
		Short: "Score a completed run, log it, and capture a dataset row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			return runPostRun(ctx, cfg, args[0])
		},
	}
}

func runPostRun(ctx context.Context, cfg config.Config, dir string) error {
	log := clog.FromContext(ctx)

	res, err := rundir.ReadResult(dir)
	if err != nil {
		return err
	}
	taskText := rundir.TaskText(dir)

	inspector := gitdiff.NewInspector(gitdiff.NewGitProvider(cfg.Repo))
	summary := inspector.Inspect(ctx, cfg.BaseRef, res.Branch)

	checks := scorecard.Deterministic(res.Status, res.Iterations, summary)
	scores := scorecard.Fold(checks)

	rec := record.Record{
		RunID:      res.RunID,
		Status:     res.Status,
		Iterations: res.Iterations,
		Branch:     res.Branch,
		PR:         res.PR,
		TaskText:   taskText,
		Scores:     scores,
		Metadata: map[string]any{
			"run_id":     res.RunID,
			"status":     string(res.Status),
			"iterations": res.Iterations,
			"branch":     res.Branch,
			"pr":         res.PR,
			"diff_lines": summary.Lines(),
			"source":     "ralph-loop",
		},
	}
	if err := rec.ValidateScores(); err != nil {
		return err
	}

	if err := report.ScoreTable(os.Stdout, checks); err != nil {
		return err
	}

	bt := braintrust.New(cfg.BraintrustAPIURL, cfg.BraintrustAPIKey)

	// Trace logging is best-effort observability.
	if logger, err := bt.Logger(ctx, cfg.Project); err != nil {
		log.With("error", err.Error()).Warn("Trace logger unavailable")
	} else {
		_ = logger.Log(ctx, braintrust.Event{
			Input:    rec.Title(),
			Output:   string(rec.Status),
			Scores:   rec.Scores,
			Metadata: rec.Metadata,
		})
	}

	// The experiment entry must be durably recorded.
	exp, err := bt.Experiment(ctx, cfg.Project, "ralph-"+rec.RunID)
	if err != nil {
		return err
	}
	if err := exp.Log(ctx, braintrust.Event{
		Input: rec.TaskText,
		Output: map[string]any{
			"status":     string(rec.Status),
			"iterations": rec.Iterations,
			"branch":     rec.Branch,
			"pr":         rec.PR,
			"diff_lines": summary.Lines(),
		},
		Expected: record.Expected{Status: record.StatusSuccess, MaxIterations: 1},
		Scores:   rec.Scores,
		Metadata: map[string]any{
			"run_id":     rec.RunID,
			"task_title": rec.Title(),
			"branch":     rec.Branch,
			"pr":         rec.PR,
		},
	}); err != nil {
		return err
	}
	if _, err := exp.Summarize(ctx); err != nil {
		log.With("error", err.Error()).Warn("Experiment summarize failed")
	}
	log.With("experiment", exp.Name()).Info("Logged experiment entry")

	// Dataset capture: runs whose evaluation completed become regression
	// fixtures. Flush is mandatory before exit.
	ds, err := bt.Dataset(ctx, cfg.Project, cfg.Dataset)
	if err != nil {
		return err
	}
	ds.Insert(record.DatasetRow{
		ID:    rec.RunID,
		Input: rec.TaskText,
		Expected: record.Expected{
			Status: record.StatusSuccess,
			Scores: map[string]float64{
				"build_passes":   1.0,
				"efficiency":     1.0,
				"diff_precision": 0.7,
				"integrity":      1.0,
			},
		},
		Metadata: map[string]any{
			"run_id":            rec.RunID,
			"actual_status":     string(rec.Status),
			"actual_iterations": rec.Iterations,
			"actual_scores":     rec.Scores,
			"diff_summary":      inspector.StatText(ctx, cfg.BaseRef, rec.Branch, 2000),
			"check_output":      rundir.CheckLogTail(dir, rec.Iterations, checkLogLines),
			"branch":            rec.Branch,
			"pr":                rec.PR,
		},
	})
	if err := ds.Flush(ctx); err != nil {
		return err
	}

	fmt.Printf("Appended to dataset: %s\n", ds.Name())
	return nil
}
