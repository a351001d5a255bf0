/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package record

import (
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
	}{{
		input: "success",
		want:  StatusSuccess,
	}, {
		input: "failure",
		want:  StatusFailure,
	}, {
		input: "timeout",
		want:  StatusTimeout,
	}, {
		input: "error",
		want:  StatusError,
	}, {
		input: "exploded",
		want:  StatusError,
	}, {
		input: "",
		want:  StatusError,
	}, {
		input: "SUCCESS",
		want:  StatusError,
	}}

	for _, tt := range tests {
		if got := ParseStatus(tt.input); got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTaskTitle(t *testing.T) {
	tests := []struct {
		name string
		task string
		want string
	}{{
		name: "markdown heading",
		task: "# Fix login crash\n\nThe app crashes when...",
		want: "Fix login crash",
	}, {
		name: "plain first line",
		task: "Add dark mode toggle\nDetails follow.",
		want: "Add dark mode toggle",
	}, {
		name: "deep heading",
		task: "### Nested heading",
		want: "Nested heading",
	}, {
		name: "single line",
		task: "just a title",
		want: "just a title",
	}, {
		name: "empty",
		task: "",
		want: "",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskTitle(tt.task); got != tt.want {
				t.Errorf("TaskTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateScores(t *testing.T) {
	tests := []struct {
		name    string
		scores  map[string]float64
		wantErr bool
	}{{
		name:   "all in range",
		scores: map[string]float64{"build_passes": 1.0, "efficiency": 0.0, "integrity": 0.5},
	}, {
		name:   "empty",
		scores: nil,
	}, {
		name:    "negative",
		scores:  map[string]float64{"efficiency": -0.1},
		wantErr: true,
	}, {
		name:    "above one",
		scores:  map[string]float64{"build_passes": 1.01},
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Record{Scores: tt.scores}.ValidateScores()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScores() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatasetRowTitle(t *testing.T) {
	row := DatasetRow{Input: "# Migrate billing cron\n\nSteps..."}
	if got := row.Title(); got != "Migrate billing cron" {
		t.Errorf("Title() = %q, want %q", got, "Migrate billing cron")
	}
}
