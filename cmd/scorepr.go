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
	"github.com/themailman05/factory/judge"
	"github.com/themailman05/factory/report"
	"github.com/themailman05/factory/rundir"
	"github.com/themailman05/factory/trello"
)

// maxDiffForJudge caps the diff text gathered as judge evidence; the judge
// applies its own tighter prompt cap on top.
const maxDiffForJudge = 15000

func newScorePRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score-pr <run-dir>",
		Short: "Judge a completed run against its task and log the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			return runScorePR(ctx, cfg, args[0])
		},
	}
}

func runScorePR(ctx context.Context, cfg config.Config, dir string) error {
	log := clog.FromContext(ctx)

	res, err := rundir.ReadResult(dir)
	if err != nil {
		return err
	}
	taskText := rundir.TaskText(dir)

	// Gather evidence. Every gathering failure degrades to empty evidence;
	// a partial evaluation is more useful than none.
	inspector := gitdiff.NewInspector(gitdiff.NewGitProvider(cfg.Repo))
	diffStat := inspector.StatText(ctx, cfg.BaseRef, res.Branch, judge.MaxDiffStat)
	summary := inspector.Inspect(ctx, cfg.BaseRef, res.Branch)
	diffText := summary.DiffText
	if len(diffText) > maxDiffForJudge {
		diffText = diffText[:maxDiffForJudge]
	}
	ciLog := rundir.CILogTail(dir, judge.MaxCILog)

	ticketContext := ""
	enrichment, err := trello.New(cfg.TrelloAPIKey, cfg.TrelloToken).Enrich(ctx, taskText)
	switch {
	case err != nil:
		log.With("error", err.Error()).Warn("Ticket lookup failed, continuing without it")
	case enrichment != nil:
		ticketContext = enrichment.String()
	}

	bt := braintrust.New(cfg.BraintrustAPIURL, cfg.BraintrustAPIKey)
	logger, err := bt.Logger(ctx, cfg.Project)
	if err != nil {
		return err
	}

	j, err := judge.NewClaude(cfg.AnthropicAPIKey, cfg.JudgeModel, judge.WithTraceSink(logger))
	if err != nil {
		return err
	}

	// Judge protocol errors are fatal for this invocation: a silently
	// zero-filled verdict would corrupt the experiment history.
	verdict, err := j.Judge(ctx, &judge.Request{
		TaskText:      taskText,
		TicketContext: ticketContext,
		DiffStat:      diffStat,
		DiffText:      diffText,
		CILog:         ciLog,
		Status:        res.Status,
		Iterations:    res.Iterations,
		Branch:        res.Branch,
	})
	if err != nil {
		return err
	}

	scores := verdict.Scores()
	reasons := verdict.Reasons()
	if err := report.ScoreMap(os.Stdout, scores, reasons); err != nil {
		return err
	}
	fmt.Printf("Verdict: %s\n", verdict.Verdict)

	_ = logger.Log(ctx, braintrust.Event{
		Input: map[string]any{
			"task":   clip(taskText, 5000),
			"ticket": clip(ticketContext, 2000),
		},
		Output: map[string]any{
			"status":  string(res.Status),
			"pr":      res.PR,
			"branch":  res.Branch,
			"verdict": verdict.Verdict,
			"reasons": reasons,
		},
		Scores: scores,
		Metadata: map[string]any{
			"run_id":     res.RunID,
			"scorer":     "llm-pr-scorer",
			"model":      cfg.JudgeModel,
			"iterations": res.Iterations,
		},
	})

	// Best-effort update of the run's experiment with the judged scores.
	if exp, err := bt.Experiment(ctx, cfg.Project, "ralph-"+res.RunID); err != nil {
		log.With("error", err.Error()).Warn("Experiment unavailable for judged scores")
	} else {
		if err := exp.Log(ctx, braintrust.Event{
			Input: clip(taskText, 5000),
			Output: map[string]any{
				"status":  string(res.Status),
				"verdict": verdict.Verdict,
				"pr":      res.PR,
			},
			Scores: scores,
			Metadata: map[string]any{
				"run_id":  res.RunID,
				"scorer":  "llm-pr-scorer",
				"reasons": reasons,
			},
		}); err != nil {
			log.With("error", err.Error()).Warn("Experiment log failed for judged scores")
		} else if _, err := exp.Summarize(ctx); err != nil {
			log.With("error", err.Error()).Warn("Experiment summarize failed")
		}
	}

	// The local score file is the durable record independent of the backend.
	if err := rundir.WriteScore(dir, rundir.ScoreResult{
		RunID:   res.RunID,
		Scores:  scores,
		Reasons: reasons,
		Verdict: verdict.Verdict,
		Scorer:  "llm-pr-scorer",
	}); err != nil {
		return err
	}

	return nil
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
