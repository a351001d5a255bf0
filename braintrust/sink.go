/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package braintrust

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/themailman05/factory/record"
)

// Logger appends entries to the project-level log. Trace logging is
// best-effort observability: failures degrade to a warning and the
// evaluation continues.
type Logger struct {
	client    *Client
	projectID string
}

// Log appends one trace entry. The returned error is already logged; most
// call sites ignore it.
func (l *Logger) Log(ctx context.Context, ev Event) error {
	err := l.client.insert(ctx, "/v1/project_logs/"+l.projectID+"/insert", []Event{ev})
	if err != nil {
		clog.FromContext(ctx).With("error", err.Error()).Warn("Trace log failed")
	}
	return err
}

// Experiment is a named, comparable collection of logged records. Unlike
// trace logging, experiment writes must not be silently lost: the run's
// scoring is worthless if it is not durably recorded.
type Experiment struct {
	client *Client
	id     string
	name   string
}

// Name returns the experiment's deterministic name.
func (e *Experiment) Name() string { return e.name }

// Log appends one record to the experiment.
func (e *Experiment) Log(ctx context.Context, ev Event) error {
	if err := e.client.insert(ctx, "/v1/experiment/"+e.id+"/insert", []Event{ev}); err != nil {
		return fmt.Errorf("logging to experiment %q: %w", e.name, err)
	}
	return nil
}

// Summary is the backend's aggregate view of an experiment.
type Summary struct {
	ExperimentName string             `json:"experiment_name"`
	ExperimentURL  string             `json:"experiment_url"`
	Scores         map[string]float64 `json:"scores,omitempty"`
}

// Summarize asks the backend to aggregate the experiment.
func (e *Experiment) Summarize(ctx context.Context) (*Summary, error) {
	var out Summary
	if err := e.client.do(ctx, "GET", "/v1/experiment/"+e.id+"/summarize", nil, &out); err != nil {
		return nil, fmt.Errorf("summarizing experiment %q: %w", e.name, err)
	}
	return &out, nil
}

// Dataset is the regression fixture population. Inserts buffer locally and
// upsert by row ID; Flush must run before process exit or buffered rows are
// lost.
type Dataset struct {
	client *Client
	id     string
	name   string

	pending []Event
}

// Name returns the dataset's name.
func (d *Dataset) Name() string { return d.name }

// Insert buffers a row. Re-inserting an ID replaces the earlier buffered
// row, so a flush leaves exactly one row per ID with the latest metadata.
func (d *Dataset) Insert(row record.DatasetRow) {
	ev := Event{
		ID:       row.ID,
		Input:    row.Input,
		Expected: row.Expected,
		Metadata: row.Metadata,
	}
	for i, p := range d.pending {
		if p.ID == ev.ID {
			d.pending[i] = ev
			return
		}
	}
	d.pending = append(d.pending, ev)
}

// Flush commits all buffered rows. The backend upserts by event ID, keeping
// dataset writes idempotent across invocations as well.
func (d *Dataset) Flush(ctx context.Context) error {
	if len(d.pending) == 0 {
		return nil
	}
	if err := d.client.insert(ctx, "/v1/dataset/"+d.id+"/insert", d.pending); err != nil {
		return fmt.Errorf("flushing dataset %q: %w", d.name, err)
	}
	d.pending = nil
	return nil
}

// Pending returns the number of buffered, unflushed rows.
func (d *Dataset) Pending() int { return len(d.pending) }

type fetchResponse struct {
	Events []fetchEvent `json:"events"`
}

type fetchEvent struct {
	ID       string          `json:"id"`
	Input    string          `json:"input"`
	Expected record.Expected `json:"expected"`
	Metadata map[string]any  `json:"metadata"`
}

// Fetch returns up to limit rows from the dataset, in backend order. A
// limit of 0 fetches everything.
func (d *Dataset) Fetch(ctx context.Context, limit int) ([]record.DatasetRow, error) {
	body := map[string]any{}
	if limit > 0 {
		body["limit"] = limit
	}
	var out fetchResponse
	if err := d.client.do(ctx, "POST", "/v1/dataset/"+d.id+"/fetch", body, &out); err != nil {
		return nil, fmt.Errorf("fetching dataset %q: %w", d.name, err)
	}

	rows := make([]record.DatasetRow, 0, len(out.Events))
	for _, ev := range out.Events {
		rows = append(rows, record.DatasetRow{
			ID:       ev.ID,
			Input:    ev.Input,
			Expected: ev.Expected,
			Metadata: ev.Metadata,
		})
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
