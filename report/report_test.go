/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/themailman05/factory/scorecard"
)

func TestScoreTable(t *testing.T) {
	var buf bytes.Buffer
	err := ScoreTable(&buf, []scorecard.Check{
		{Name: "build_passes", Score: 1.0, Evidence: "status=success"},
		{Name: "efficiency", Score: 0.8, Evidence: "2 iterations"},
	})
	if err != nil {
		t.Fatalf("ScoreTable() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"build_passes", "1.00", "efficiency", "0.80", "2 iterations"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestScoreMapSorted(t *testing.T) {
	var buf bytes.Buffer
	err := ScoreMap(&buf,
		map[string]float64{"overall": 0.8, "code_quality": 0.7},
		map[string]string{"overall": "solid", "code_quality": "fine"})
	if err != nil {
		t.Fatalf("ScoreMap() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "code_quality") || !strings.Contains(out, "overall") {
		t.Fatalf("table missing rows:\n%s", out)
	}
	// Rows are sorted by name for stable output.
	if strings.Index(out, "code_quality") > strings.Index(out, "overall") {
		t.Errorf("rows not sorted:\n%s", out)
	}
}

func TestAppendCISummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	s := CISummary{
		PRNumber:     "42",
		Project:      "Factory",
		Experiment:   "ci-pr42-abc1234",
		FilesChanged: 3,
		Insertions:   20,
		Deletions:    5,
		Checks: []scorecard.Check{
			{Name: "lint", Score: 1.0, Evidence: "clean"},
			{Name: "test", Score: 0.0, Evidence: "2 failures"},
		},
	}
	if err := AppendCISummary(path, s); err != nil {
		t.Fatalf("AppendCISummary() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		"## Factory Eval - PR #42",
		"| lint | 1.00 |",
		"3 files, +20/-5 (25 total)",
		"ci-pr42-abc1234",
		"### test: failed",
		"2 failures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	// Appends accumulate rather than truncate.
	if err := AppendCISummary(path, s); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if got := strings.Count(string(data), "## Factory Eval"); got != 2 {
		t.Errorf("expected 2 appended sections, got %d", got)
	}
}

func TestAppendCISummaryNoPath(t *testing.T) {
	if err := AppendCISummary("", CISummary{}); err != nil {
		t.Errorf("AppendCISummary(\"\") = %v, want nil", err)
	}
}
