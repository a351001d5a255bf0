/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scorecard

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/themailman05/factory/gitdiff"
	"github.com/themailman05/factory/record"
)

func TestBuildPasses(t *testing.T) {
	tests := []struct {
		status record.Status
		want   float64
	}{{
		status: record.StatusSuccess,
		want:   1.0,
	}, {
		status: record.StatusFailure,
		want:   0.0,
	}, {
		status: record.StatusTimeout,
		want:   0.0,
	}, {
		status: record.StatusError,
		want:   0.0,
	}}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := BuildPasses(tt.status)
			if c.Name != "build_passes" {
				t.Errorf("Name = %q, want build_passes", c.Name)
			}
			if c.Score != tt.want {
				t.Errorf("BuildPasses(%s) = %v, want %v", tt.status, c.Score, tt.want)
			}
		})
	}
}

func TestEfficiency(t *testing.T) {
	tests := []struct {
		iterations int
		want       float64
	}{{
		iterations: 0,
		want:       1.0,
	}, {
		iterations: 1,
		want:       1.0,
	}, {
		iterations: 2,
		want:       0.8,
	}, {
		iterations: 3,
		want:       0.5,
	}, {
		iterations: 4,
		want:       0.5,
	}, {
		iterations: 5,
		want:       0.2,
	}, {
		iterations: 100,
		want:       0.2,
	}}

	for _, tt := range tests {
		if got := Efficiency(tt.iterations).Score; got != tt.want {
			t.Errorf("Efficiency(%d) = %v, want %v", tt.iterations, got, tt.want)
		}
	}
}

// Bucket boundaries are exact: 50, 150 and 500 lines are the last value of
// each bucket.
func TestDiffPrecisionBoundaries(t *testing.T) {
	tests := []struct {
		lines int
		want  float64
	}{{
		lines: 0,
		want:  1.0,
	}, {
		lines: 50,
		want:  1.0,
	}, {
		lines: 51,
		want:  0.7,
	}, {
		lines: 150,
		want:  0.7,
	}, {
		lines: 151,
		want:  0.4,
	}, {
		lines: 500,
		want:  0.4,
	}, {
		lines: 501,
		want:  0.1,
	}}

	for _, tt := range tests {
		if got := DiffPrecision(tt.lines).Score; got != tt.want {
			t.Errorf("DiffPrecision(%d) = %v, want %v", tt.lines, got, tt.want)
		}
	}
}

func TestIntegrity(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want float64
	}{{
		name: "clean diff",
		diff: "+func add(a, b int) int {\n+\treturn a + b\n+}\n",
		want: 1.0,
	}, {
		name: "empty diff",
		diff: "",
		want: 1.0,
	}, {
		name: "added suppression",
		diff: "+x := unsafeCall() // nolint\n",
		want: 0.3,
	}, {
		name: "added ignore directive",
		diff: "+value = compute() //ignore\n",
		want: 0.3,
	}, {
		name: "removed assertion",
		diff: "-\texpect(result).toBe(42)\n",
		want: 0.5,
	}, {
		name: "removed test call",
		diff: "-test('handles empty input', () => {\n",
		want: 0.5,
	}, {
		name: "both penalties compound",
		diff: "+  doWork() // nolint\n-  expect(x).toBe(1)\n",
		want: 0.15,
	}, {
		name: "suppression only counted once",
		diff: "+a() // nolint\n+b() // nolint\n+c() // ignore\n",
		want: 0.3,
	}, {
		name: "suppression in removed line is not a penalty",
		diff: "-old() // nolint\n+new()\n",
		want: 1.0,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Integrity(tt.diff).Score; got != tt.want {
				t.Errorf("Integrity() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A well-formed unified diff goes through the parser; file headers must not
// register as removed assertions.
func TestIntegrityParsedDiff(t *testing.T) {
	diff := `diff --git a/app_test.js b/app_test.js
index 1111111..2222222 100644
--- a/app_test.js
+++ b/app_test.js
@@ -1,4 +1,3 @@
 function setup() {}
-test('old behavior', () => {})
 function teardown() {}
+const ready = true
`
	if got := Integrity(diff).Score; got != 0.5 {
		t.Errorf("Integrity(parsed diff) = %v, want 0.5", got)
	}
}

func TestFold(t *testing.T) {
	got := Fold([]Check{
		{Name: "build_passes", Score: 1.0},
		{Name: "efficiency", Score: 0.8},
		{Name: "efficiency", Score: 0.5},
	})
	want := map[string]float64{
		"build_passes": 1.0,
		"efficiency":   0.5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fold() mismatch (-want +got):\n%s", diff)
	}
}

func TestDeterministic(t *testing.T) {
	tests := []struct {
		name       string
		status     record.Status
		iterations int
		summary    gitdiff.Summary
		want       map[string]float64
	}{{
		name:       "clean one-shot run",
		status:     record.StatusSuccess,
		iterations: 1,
		summary:    gitdiff.Summary{Insertions: 20, Deletions: 10},
		want: map[string]float64{
			"build_passes":   1.0,
			"efficiency":     1.0,
			"diff_precision": 1.0,
			"integrity":      1.0,
		},
	}, {
		name:       "failed sprawling run",
		status:     record.StatusFailure,
		iterations: 6,
		summary:    gitdiff.Summary{Insertions: 400, Deletions: 200},
		want: map[string]float64{
			"build_passes":   0.0,
			"efficiency":     0.2,
			"diff_precision": 0.1,
			"integrity":      1.0,
		},
	}, {
		name:       "gamed run",
		status:     record.StatusSuccess,
		iterations: 2,
		summary: gitdiff.Summary{
			Insertions: 30,
			Deletions:  30,
			DiffText:   "+skip() // no-check\n-assert.Equal(t, want, got)\n",
		},
		want: map[string]float64{
			"build_passes":   1.0,
			"efficiency":     0.8,
			"diff_precision": 1.0,
			"integrity":      0.15,
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fold(Deterministic(tt.status, tt.iterations, tt.summary))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Deterministic() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
