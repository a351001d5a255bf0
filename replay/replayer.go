/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package replay re-runs previously recorded tasks through the external task
// runner and logs fresh scores against the regression experiment, keyed to
// the originating dataset rows. Rows are processed strictly one at a time:
// the runner's working copy tolerates exactly one branch operation at once.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/themailman05/factory/braintrust"
	"github.com/themailman05/factory/record"
	"github.com/themailman05/factory/rundir"
	"github.com/themailman05/factory/scorecard"
)

// RowState tracks one dataset row through the replay state machine.
type RowState string

const (
	StateFetched    RowState = "fetched"
	StateDispatched RowState = "dispatched"
	StateCompleted  RowState = "completed"
	StateTimedOut   RowState = "timed_out"
	StateErrored    RowState = "errored"
)

// Dataset is the fixture source.
type Dataset interface {
	Fetch(ctx context.Context, limit int) ([]record.DatasetRow, error)
	Name() string
}

// Experiment receives one comparison entry per replayed row.
type Experiment interface {
	Log(ctx context.Context, ev braintrust.Event) error
	Name() string
}

// BranchDeleter removes throwaway replay branches, best-effort.
type BranchDeleter interface {
	DeleteBranch(ctx context.Context, name string) error
}

// Options controls one replay invocation.
type Options struct {
	// Limit caps the number of rows; 0 replays everything.
	Limit int
	// DryRun short-circuits after fetch: titles and prior status are
	// printed, nothing is dispatched.
	DryRun bool
}

// Summary aggregates a replay invocation. Failed rows are not retried
// within one invocation.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Replayer drives the regression replay loop.
type Replayer struct {
	dataset  Dataset
	exp      Experiment
	runner   Runner
	branches BranchDeleter
	runsDir  string
	out      io.Writer
	now      func() time.Time
}

// New constructs a Replayer. out receives the human-readable progress the
// original CI operators watch.
func New(dataset Dataset, exp Experiment, runner Runner, branches BranchDeleter, runsDir string, out io.Writer) *Replayer {
	return &Replayer{
		dataset:  dataset,
		exp:      exp,
		runner:   runner,
		branches: branches,
		runsDir:  runsDir,
		out:      out,
		now:      time.Now,
	}
}

// Replay fetches up to opts.Limit rows and replays them sequentially. A
// per-row failure never aborts the remaining queue.
func (r *Replayer) Replay(ctx context.Context, opts Options) (*Summary, error) {
	rows, err := r.dataset.Fetch(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset %q: %w", r.dataset.Name(), err)
	}

	fmt.Fprintf(r.out, "Found %d tasks in dataset %s\n", len(rows), r.dataset.Name())
	if len(rows) == 0 {
		return &Summary{}, nil
	}

	if opts.DryRun {
		for _, row := range rows {
			fmt.Fprintf(r.out, "  - %s (status=%v, iters=%v)\n",
				row.Title(), row.Metadata["actual_status"], row.Metadata["actual_iterations"])
		}
		return &Summary{Total: len(rows)}, nil
	}

	summary := &Summary{Total: len(rows)}
	for _, row := range rows {
		if r.replayRow(ctx, row) {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	fmt.Fprintf(r.out, "Regression complete: %d / %d passed\n", summary.Passed, summary.Total)
	return summary, nil
}

// replayRow runs one row through the state machine and logs the comparison
// entry. Returns true when the replayed run succeeded.
func (r *Replayer) replayRow(ctx context.Context, row record.DatasetRow) bool {
	log := clog.FromContext(ctx).With("row", row.ID)
	fmt.Fprintf(r.out, "Replaying: %s\n", row.Title())

	state := StateFetched
	branch := r.branchName(row.ID)

	taskFile, err := writeTaskFile(row.Input)
	if err != nil {
		log.With("error", err.Error()).Error("Failed to write task file")
		r.logRow(ctx, row, branch, state, record.StatusError, 0)
		return false
	}
	// Cleanup is unconditional: the task file goes away and the throwaway
	// branch is deleted best-effort whatever happened in between.
	defer func() {
		os.Remove(taskFile)
		if err := r.branches.DeleteBranch(ctx, branch); err != nil {
			log.With("branch", branch).With("error", err.Error()).
				Debug("Branch cleanup failed")
		}
	}()

	state = StateDispatched
	status := record.StatusError
	iterations := 0

	switch err := r.runner.Run(ctx, taskFile, branch); {
	case errors.Is(err, ErrTimeout):
		state = StateTimedOut
		status = record.StatusTimeout
	case err != nil:
		state = StateErrored
		log.With("error", err.Error()).Warn("Dispatch failed")
	default:
		state = StateCompleted
		status, iterations = r.latestResult(ctx, &state)
	}

	r.logRow(ctx, row, branch, state, status, iterations)

	if status == record.StatusSuccess {
		fmt.Fprintf(r.out, "  passed (%d iterations)\n", iterations)
		return true
	}
	fmt.Fprintf(r.out, "  failed (%s)\n", status)
	return false
}

// latestResult reads the newest run directory's result file. A missing
// result file is itself an errored row.
func (r *Replayer) latestResult(ctx context.Context, state *RowState) (record.Status, int) {
	log := clog.FromContext(ctx)

	dir, err := rundir.Latest(r.runsDir)
	if err != nil {
		log.With("error", err.Error()).Warn("No run directory after dispatch")
		*state = StateErrored
		return record.StatusError, 0
	}
	res, err := rundir.ReadResult(dir)
	if err != nil {
		log.With("dir", dir).With("error", err.Error()).Warn("Run directory has no readable result")
		*state = StateErrored
		return record.StatusError, 0
	}
	return res.Status, res.Iterations
}

// logRow records the comparison entry regardless of outcome, keyed to the
// original dataset row so the backend can compute per-row deltas.
func (r *Replayer) logRow(ctx context.Context, row record.DatasetRow, branch string, state RowState, status record.Status, iterations int) {
	checks := []scorecard.Check{
		scorecard.BuildPasses(status),
		scorecard.Efficiency(iterations),
	}

	ev := braintrust.Event{
		Input:           row.Input,
		Output:          map[string]any{"status": string(status), "iterations": iterations},
		Expected:        row.Expected,
		Scores:          scorecard.Fold(checks),
		DatasetRecordID: row.ID,
		Metadata: map[string]any{
			"branch":      branch,
			"original_id": row.ID,
			"state":       string(state),
		},
	}
	if err := r.exp.Log(ctx, ev); err != nil {
		clog.FromContext(ctx).With("row", row.ID).With("error", err.Error()).
			Error("Failed to log replay entry")
	}
}

// branchName derives a collision-resistant throwaway branch from the row id
// prefix and the current time.
func (r *Replayer) branchName(rowID string) string {
	prefix := rowID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("agent/regression-%s-%d", prefix, r.now().Unix())
}

func writeTaskFile(input string) (string, error) {
	f, err := os.CreateTemp("", "factory-reg-*.md")
	if err != nil {
		return "", fmt.Errorf("creating task file: %w", err)
	}
	if _, err := f.WriteString(input); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing task file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing task file: %w", err)
	}
	return f.Name(), nil
}
