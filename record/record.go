/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package record defines the canonical unit of evaluation output: one Record
// per completed agent run, plus the DatasetRow shape persisted for replay.
// Records are value types; a persisted record is never mutated, corrections
// are logged as new entries.
package record

import (
	"fmt"
	"strings"
)

// Status classifies the terminal state of an agent run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// ParseStatus maps arbitrary runner output onto a known Status, defaulting
// unrecognized values to StatusError.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusSuccess, StatusFailure, StatusTimeout, StatusError:
		return Status(s)
	default:
		return StatusError
	}
}

// Record identifies one evaluation subject and carries its scores.
type Record struct {
	RunID      string
	Status     Status
	Iterations int
	Branch     string
	PR         string
	TaskText   string
	Scores     map[string]float64
	Metadata   map[string]any
}

// Title returns the first line of the task text with markdown heading
// markers stripped.
func (r Record) Title() string {
	return TaskTitle(r.TaskText)
}

// TaskTitle derives a display title from task text.
func TaskTitle(taskText string) string {
	first, _, _ := strings.Cut(taskText, "\n")
	return strings.TrimSpace(strings.TrimLeft(first, "# "))
}

// ValidateScores rejects any score value outside [0.0, 1.0]. A record that
// fails validation must not be persisted.
func (r Record) ValidateScores() error {
	for name, score := range r.Scores {
		if score < 0.0 || score > 1.0 {
			return fmt.Errorf("score %q out of range: %v", name, score)
		}
	}
	return nil
}

// Expected is the target outcome stored alongside a dataset row.
type Expected struct {
	Status        Status             `json:"status"`
	MaxIterations int                `json:"max_iterations,omitempty"`
	Scores        map[string]float64 `json:"scores,omitempty"`
}

// DatasetRow is a run's input/expected pairing saved as a regression
// fixture. ID equals the originating run's RunID.
type DatasetRow struct {
	ID       string         `json:"id"`
	Input    string         `json:"input"`
	Expected Expected       `json:"expected"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Title derives the row's display title from its task input.
func (d DatasetRow) Title() string {
	return TaskTitle(d.Input)
}
