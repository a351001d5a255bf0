/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"errors"
	"testing"
)

const goodPayload = `{
  "requirements_met": {"score": 0.9, "reason": "all items addressed"},
  "acceptance_criteria": {"score": 0.8, "reason": "criteria satisfied"},
  "no_regressions": {"score": 1.0, "reason": "no DO NOT items touched"},
  "code_quality": {"score": 0.7, "reason": "idiomatic"},
  "completeness": {"score": 0.9, "reason": "fully done"},
  "overall": {"score": 0.87, "reason": "strong submission"},
  "verdict": "PASS"
}`

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantVerdict string
		wantOverall float64
	}{{
		name:        "fenced json block",
		response:    "Here is my assessment.\n```json\n" + goodPayload + "\n```\nDone.",
		wantVerdict: VerdictPass,
		wantOverall: 0.87,
	}, {
		name:        "bare json",
		response:    goodPayload,
		wantVerdict: VerdictPass,
		wantOverall: 0.87,
	}, {
		name:        "unterminated fence",
		response:    "```json\n" + goodPayload,
		wantVerdict: VerdictPass,
		wantOverall: 0.87,
	}, {
		name:        "fence markers without newline structure",
		response:    "```json\n" + goodPayload + "\n```",
		wantVerdict: VerdictPass,
		wantOverall: 0.87,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.response)
			if err != nil {
				t.Fatalf("ParseVerdict() error = %v", err)
			}
			if v.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %q, want %q", v.Verdict, tt.wantVerdict)
			}
			if v.Overall.Score != tt.wantOverall {
				t.Errorf("Overall.Score = %v, want %v", v.Overall.Score, tt.wantOverall)
			}
		})
	}
}

func TestParseVerdictMalformed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{{
		name:     "empty response",
		response: "",
	}, {
		name:     "prose only",
		response: "I think this PR looks great, ship it!",
	}, {
		name:     "broken json",
		response: "```json\n{\"requirements_met\": {\"score\": 0.9,\n```",
	}, {
		name:     "score above one",
		response: `{"requirements_met": {"score": 1.5, "reason": "x"}, "verdict": "PASS"}`,
	}, {
		name:     "negative score",
		response: `{"overall": {"score": -0.2, "reason": "x"}, "verdict": "FAIL"}`,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.response)
			if err == nil {
				t.Fatal("ParseVerdict() expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedVerdict) {
				t.Errorf("error = %v, want ErrMalformedVerdict", err)
			}
		})
	}
}

// Responses with valid scores but a missing or unexpected verdict label
// normalize to UNKNOWN rather than failing.
func TestParseVerdictUnknownLabel(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{{
		name:     "missing verdict",
		response: `{"overall": {"score": 0.5, "reason": "mixed"}}`,
	}, {
		name:     "unexpected label",
		response: `{"overall": {"score": 0.5, "reason": "mixed"}, "verdict": "MAYBE"}`,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.response)
			if err != nil {
				t.Fatalf("ParseVerdict() error = %v", err)
			}
			if v.Verdict != VerdictUnknown {
				t.Errorf("Verdict = %q, want %q", v.Verdict, VerdictUnknown)
			}
		})
	}
}

func TestVerdictScoresReasons(t *testing.T) {
	v := &Verdict{
		RequirementsMet: Score{Score: 0.9, Reason: "a"},
		Overall:         Score{Score: 0.8, Reason: "b"},
	}
	scores := v.Scores()
	if len(scores) != len(Dimensions)+1 {
		t.Errorf("Scores() has %d entries, want %d", len(scores), len(Dimensions)+1)
	}
	if scores["requirements_met"] != 0.9 || scores["overall"] != 0.8 {
		t.Errorf("Scores() = %v", scores)
	}
	reasons := v.Reasons()
	if reasons["requirements_met"] != "a" || reasons["overall"] != "b" {
		t.Errorf("Reasons() = %v", reasons)
	}
}
