/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package scorecard maps run metadata onto the fixed deterministic score set.
// Each check produces an immutable Check triple; the final score map is a
// fold over the sequence. No state is shared across invocations.
package scorecard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/waigani/diffparser"

	"github.com/themailman05/factory/gitdiff"
	"github.com/themailman05/factory/record"
)

// Check is one named score with the evidence that produced it.
type Check struct {
	Name     string
	Score    float64
	Evidence string
}

// Fold reduces a check sequence to the score map persisted on a Record.
// Later checks win on name collision, keeping the reduction explicit.
func Fold(checks []Check) map[string]float64 {
	scores := make(map[string]float64, len(checks))
	for _, c := range checks {
		scores[c.Name] = c.Score
	}
	return scores
}

// BuildPasses scores terminal status: success and nothing else.
func BuildPasses(status record.Status) Check {
	score := 0.0
	if status == record.StatusSuccess {
		score = 1.0
	}
	return Check{
		Name:     "build_passes",
		Score:    score,
		Evidence: fmt.Sprintf("status=%s", status),
	}
}

// Efficiency rewards first-attempt correctness with coarse buckets rather
// than a continuous penalty.
func Efficiency(iterations int) Check {
	var score float64
	switch {
	case iterations <= 1:
		score = 1.0
	case iterations <= 2:
		score = 0.8
	case iterations <= 4:
		score = 0.5
	default:
		score = 0.2
	}
	return Check{
		Name:     "efficiency",
		Score:    score,
		Evidence: fmt.Sprintf("%d iterations", iterations),
	}
}

// DiffPrecision scores total changed lines: smaller, more surgical diffs
// score higher. The thresholds step exactly at 50, 150 and 500 lines.
func DiffPrecision(lines int) Check {
	var score float64
	switch {
	case lines <= 50:
		score = 1.0
	case lines <= 150:
		score = 0.7
	case lines <= 500:
		score = 0.4
	default:
		score = 0.1
	}
	return Check{
		Name:     "diff_precision",
		Score:    score,
		Evidence: fmt.Sprintf("%d changed lines", lines),
	}
}

var (
	suppressionPattern = regexp.MustCompile(`//\s*(ignore|nolint|no-check)`)
	assertionPattern   = regexp.MustCompile(`test\(|expect\(|assert`)
)

// Integrity discounts for signs of gaming the checks: an added suppression
// directive multiplies by 0.3, a removed test or assertion call by 0.5.
// Both penalties compound, so removing tests and silencing the linter is
// worse than either alone.
func Integrity(diffText string) Check {
	score := 1.0
	var evidence []string

	added, removed := diffLines(diffText)
	for _, line := range added {
		if suppressionPattern.MatchString(line) {
			score *= 0.3
			evidence = append(evidence, "added suppression directive")
			break
		}
	}
	for _, line := range removed {
		if assertionPattern.MatchString(line) {
			score *= 0.5
			evidence = append(evidence, "removed test or assertion")
			break
		}
	}

	if len(evidence) == 0 {
		evidence = append(evidence, "no gaming markers")
	}
	return Check{
		Name:     "integrity",
		Score:    score,
		Evidence: strings.Join(evidence, "; "),
	}
}

// Deterministic composes the full deterministic score set for a run.
func Deterministic(status record.Status, iterations int, summary gitdiff.Summary) []Check {
	return []Check{
		BuildPasses(status),
		Efficiency(iterations),
		DiffPrecision(summary.Lines()),
		Integrity(summary.DiffText),
	}
}

// diffLines splits diff text into added and removed line contents. The
// parsed form is preferred; unparseable diffs fall back to a prefix scan so
// scoring never fails on malformed input.
func diffLines(diffText string) (added, removed []string) {
	if diffText == "" {
		return nil, nil
	}

	diff, err := diffparser.Parse(diffText)
	if err == nil && len(diff.Files) > 0 {
		for _, file := range diff.Files {
			for _, hunk := range file.Hunks {
				for _, line := range hunk.WholeRange.Lines {
					switch line.Mode {
					case diffparser.ADDED:
						added = append(added, line.Content)
					case diffparser.REMOVED:
						removed = append(removed, line.Content)
					}
				}
			}
		}
		return added, removed
	}

	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added = append(added, line[1:])
		case strings.HasPrefix(line, "-"):
			removed = append(removed, line[1:])
		}
	}
	return added, removed
}
