/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gitdiff derives per-run diff evidence: file and line-change counts
// plus the raw unified diff text, bounded before it is forwarded anywhere
// expensive. Provider errors degrade to an all-zero summary so a broken ref
// never aborts an evaluation.
package gitdiff

import (
	"context"
	"regexp"
	"strconv"

	"github.com/chainguard-dev/clog"
)

// MaxDiffText bounds the diff text handed to downstream consumers.
const MaxDiffText = 64 * 1024

// Summary is the ephemeral result of one inspection. It is derived freshly
// per evaluation call and never cached, because the underlying revisions may
// be rewritten between runs.
type Summary struct {
	FilesChanged int
	Insertions   int
	Deletions    int
	DiffText     string
}

// Lines is the total changed-line count used by diff precision scoring.
func (s Summary) Lines() int {
	return s.Insertions + s.Deletions
}

var (
	filesPattern     = regexp.MustCompile(`(\d+) file`)
	insertionPattern = regexp.MustCompile(`(\d+) insertion`)
	deletionPattern  = regexp.MustCompile(`(\d+) deletion`)
)

// Inspector computes diff summaries through a Provider.
type Inspector struct {
	provider Provider
}

// NewInspector returns an Inspector over the given provider.
func NewInspector(p Provider) *Inspector {
	return &Inspector{provider: p}
}

// Inspect returns the diff summary between base and head. Any provider error
// is logged and reported as the zero Summary: partial evaluation beats none.
func (i *Inspector) Inspect(ctx context.Context, base, head string) Summary {
	log := clog.FromContext(ctx)

	stat, err := i.provider.Stat(ctx, base, head)
	if err != nil {
		log.With("base", base).With("head", head).With("error", err.Error()).
			Warn("Diff stat unavailable, proceeding with zero summary")
		return Summary{}
	}

	summary := Summary{
		FilesChanged: matchCount(filesPattern, stat),
		Insertions:   matchCount(insertionPattern, stat),
		Deletions:    matchCount(deletionPattern, stat),
	}

	diff, err := i.provider.Diff(ctx, base, head)
	if err != nil {
		log.With("error", err.Error()).Warn("Diff text unavailable")
		return summary
	}
	if len(diff) > MaxDiffText {
		diff = diff[:MaxDiffText]
	}
	summary.DiffText = diff
	return summary
}

// StatText returns the raw stat summary capped at maxLen, or "" on error.
// Used where the stat text itself is evidence (dataset metadata, judge
// prompts).
func (i *Inspector) StatText(ctx context.Context, base, head string, maxLen int) string {
	stat, err := i.provider.Stat(ctx, base, head)
	if err != nil {
		return ""
	}
	if len(stat) > maxLen {
		stat = stat[:maxLen]
	}
	return stat
}

// matchCount extracts the first captured integer, treating a missing match
// as zero. Malformed stat output must not fail the evaluation.
func matchCount(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
