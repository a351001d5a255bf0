/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package judge submits run evidence to an LLM judge and parses its
// structured multi-dimensional verdict. Malformed judge output is a hard
// failure: a silently zero-filled score set would corrupt the experiment
// history indistinguishably from a genuinely failing run.
package judge

import (
	"context"
	"errors"
	"fmt"

	"github.com/themailman05/factory/record"
)

// Evidence caps keep prompt cost and latency bounded.
const (
	MaxDiffStat = 2000
	MaxDiffText = 10000
	MaxCILog    = 3000
)

// Dimension names, in the order they are presented to the judge.
var Dimensions = []string{
	"requirements_met",
	"acceptance_criteria",
	"no_regressions",
	"code_quality",
	"completeness",
}

// Verdict labels. The judge assigns them from its own overall score:
// PASS at or above 0.7, NEEDS_WORK at or above 0.4, FAIL below.
const (
	VerdictPass      = "PASS"
	VerdictNeedsWork = "NEEDS_WORK"
	VerdictFail      = "FAIL"
	VerdictUnknown   = "UNKNOWN"
)

// ErrMalformedVerdict marks judge responses that could not be parsed as the
// required structured block. Callers must surface it, never default scores.
var ErrMalformedVerdict = errors.New("malformed judge verdict")

// Request carries the evidence for one judgment.
type Request struct {
	TaskText      string
	TicketContext string
	DiffStat      string
	DiffText      string
	CILog         string
	Status        record.Status
	Iterations    int
	Branch        string
}

// Score is one dimension's score with its justification.
type Score struct {
	Score  float64 `json:"score" jsonschema:"minimum=0,maximum=1"`
	Reason string  `json:"reason"`
}

// Verdict is the judge's structured answer. Overall is the judge's own
// weighted composite; it is validated, not recomputed, so the weighting has
// a single source of truth in the prompt.
type Verdict struct {
	RequirementsMet    Score  `json:"requirements_met"`
	AcceptanceCriteria Score  `json:"acceptance_criteria"`
	NoRegressions      Score  `json:"no_regressions"`
	CodeQuality        Score  `json:"code_quality"`
	Completeness       Score  `json:"completeness"`
	Overall            Score  `json:"overall"`
	Verdict            string `json:"verdict" jsonschema:"enum=PASS,enum=NEEDS_WORK,enum=FAIL"`
}

// Scores flattens the verdict into the score map persisted on a Record.
func (v *Verdict) Scores() map[string]float64 {
	return map[string]float64{
		"requirements_met":    v.RequirementsMet.Score,
		"acceptance_criteria": v.AcceptanceCriteria.Score,
		"no_regressions":      v.NoRegressions.Score,
		"code_quality":        v.CodeQuality.Score,
		"completeness":        v.Completeness.Score,
		"overall":             v.Overall.Score,
	}
}

// Reasons flattens the per-dimension justifications.
func (v *Verdict) Reasons() map[string]string {
	return map[string]string{
		"requirements_met":    v.RequirementsMet.Reason,
		"acceptance_criteria": v.AcceptanceCriteria.Reason,
		"no_regressions":      v.NoRegressions.Reason,
		"code_quality":        v.CodeQuality.Reason,
		"completeness":        v.Completeness.Reason,
		"overall":             v.Overall.Reason,
	}
}

// Validate checks every score lies in [0.0, 1.0] and normalizes a missing
// verdict label to UNKNOWN.
func (v *Verdict) Validate() error {
	for name, score := range v.Scores() {
		if score < 0.0 || score > 1.0 {
			return fmt.Errorf("%w: score %q out of range: %v", ErrMalformedVerdict, name, score)
		}
	}
	switch v.Verdict {
	case VerdictPass, VerdictNeedsWork, VerdictFail:
	case "":
		v.Verdict = VerdictUnknown
	default:
		v.Verdict = VerdictUnknown
	}
	return nil
}

// Interface is the contract for judge implementations.
type Interface interface {
	// Judge evaluates the request's evidence and returns the parsed verdict.
	Judge(ctx context.Context, req *Request) (*Verdict, error)
}
