/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package cichecks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/themailman05/factory/scorecard"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ManifestName, `checks:
  - name: vet
    command: go vet ./...
  - name: test
    command: go test ./...
`)
	// A manifest takes precedence over project-type detection.
	writeFile(t, dir, "package.json", "{}")

	specs, err := Detect(dir)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, CheckSpec{Name: "vet", Command: "go vet ./..."}, specs[0])
	require.Equal(t, "test", specs[1].Name)
}

func TestDetectManifestMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ManifestName, "checks: [not: valid: yaml")
	if _, err := Detect(dir); err == nil {
		t.Error("Detect() expected error on malformed manifest")
	}
}

func TestDetectProjectType(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   []string
	}{{
		name:   "flutter",
		marker: "pubspec.yaml",
		want:   []string{"analyze", "build_ios", "test"},
	}, {
		name:   "npm",
		marker: "package.json",
		want:   []string{"lint", "test", "build"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.marker, "")
			specs, err := Detect(dir)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			var names []string
			for _, s := range specs {
				names = append(names, s.Name)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("Detect() names = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("Detect() names = %v, want %v", names, tt.want)
					break
				}
			}
		})
	}
}

func TestDetectUnrecognized(t *testing.T) {
	specs, err := Detect(t.TempDir())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if specs != nil {
		t.Errorf("Detect() = %v, want nil for unrecognized project", specs)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	checks := Run(context.Background(), dir, []CheckSpec{
		{Name: "passes", Command: "echo all good"},
		{Name: "fails", Command: "echo broken >&2; exit 1"},
		{Name: "after_failure", Command: "true"},
	})

	if len(checks) != 3 {
		t.Fatalf("Run() returned %d checks, want 3", len(checks))
	}
	if checks[0].Score != 1.0 {
		t.Errorf("passing check score = %v", checks[0].Score)
	}
	if !strings.Contains(checks[0].Evidence, "all good") {
		t.Errorf("evidence = %q", checks[0].Evidence)
	}
	if checks[1].Score != 0.0 {
		t.Errorf("failing check score = %v", checks[1].Score)
	}
	if !strings.Contains(checks[1].Evidence, "broken") {
		t.Errorf("failing evidence = %q", checks[1].Evidence)
	}
	// A failure never aborts the remaining checks.
	if checks[2].Score != 1.0 {
		t.Errorf("check after failure score = %v", checks[2].Score)
	}
}

func TestAnyHardFailure(t *testing.T) {
	tests := []struct {
		name   string
		checks []scorecard.Check
		want   bool
	}{{
		name: "all passing",
		checks: []scorecard.Check{
			{Name: "lint", Score: 1.0},
			{Name: "test", Score: 1.0},
		},
		want: false,
	}, {
		name: "hard failure",
		checks: []scorecard.Check{
			{Name: "lint", Score: 1.0},
			{Name: "test", Score: 0.0},
		},
		want: true,
	}, {
		name: "diff precision never gates",
		checks: []scorecard.Check{
			{Name: "test", Score: 1.0},
			{Name: "diff_precision", Score: 0.0},
		},
		want: false,
	}, {
		name:   "empty",
		checks: nil,
		want:   false,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnyHardFailure(tt.checks); got != tt.want {
				t.Errorf("AnyHardFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}
