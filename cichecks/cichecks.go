/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package cichecks runs project-specific checks for the CI-hook evaluation.
// Checks come from an optional .factory-checks.yaml manifest, falling back
// to project-type auto-detection. Checks run sequentially; each yields an
// immutable scorecard check with a bounded evidence tail.
package cichecks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"gopkg.in/yaml.v3"

	"github.com/themailman05/factory/scorecard"
)

// ManifestName is the optional per-repo check definition file.
const ManifestName = ".factory-checks.yaml"

// evidenceLines bounds the output tail kept per check.
const evidenceLines = 20

// CheckSpec is one named shell command from the manifest.
type CheckSpec struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}

type manifest struct {
	Checks []CheckSpec `yaml:"checks"`
}

// Detect returns the checks to run in dir: the manifest when present,
// otherwise checks inferred from the project type. An empty result means
// the project type is unrecognized.
func Detect(dir string) ([]CheckSpec, error) {
	path := filepath.Join(dir, ManifestName)
	if data, err := os.ReadFile(path); err == nil {
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ManifestName, err)
		}
		return m.Checks, nil
	}

	if _, err := os.Stat(filepath.Join(dir, "pubspec.yaml")); err == nil {
		return []CheckSpec{
			{Name: "analyze", Command: "flutter analyze --no-pub 2>&1"},
			{Name: "build_ios", Command: "flutter build ios --no-codesign --release 2>&1 | tail -30"},
			{Name: "test", Command: "flutter test 2>&1 | tail -30"},
		}, nil
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return []CheckSpec{
			{Name: "lint", Command: "npm run lint 2>&1 | tail -30"},
			{Name: "test", Command: "npm test 2>&1 | tail -30"},
			{Name: "build", Command: "npm run build 2>&1 | tail -30"},
		}, nil
	}
	return nil, nil
}

// Run executes the checks sequentially in dir. A failing command scores 0.0
// with its output tail as evidence; it never aborts the remaining checks.
func Run(ctx context.Context, dir string, specs []CheckSpec) []scorecard.Check {
	log := clog.FromContext(ctx)
	checks := make([]scorecard.Check, 0, len(specs))

	for _, spec := range specs {
		log.With("check", spec.Name).Info("Running check")

		cmd := exec.CommandContext(ctx, "sh", "-c", spec.Command)
		cmd.Dir = dir
		output, err := cmd.CombinedOutput()

		score := 1.0
		if err != nil {
			score = 0.0
			log.With("check", spec.Name).With("error", err.Error()).Warn("Check failed")
		}

		checks = append(checks, scorecard.Check{
			Name:     spec.Name,
			Score:    score,
			Evidence: tail(string(output), evidenceLines),
		})
	}
	return checks
}

// AnyHardFailure reports whether any check other than diff_precision scored
// zero. Drives the CI hook's non-zero exit.
func AnyHardFailure(checks []scorecard.Check) bool {
	for _, c := range checks {
		if c.Name != "diff_precision" && c.Score == 0.0 {
			return true
		}
	}
	return false
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
