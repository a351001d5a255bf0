/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/themailman05/factory/promptbuilder"
)

// systemInstructions anchor the judge to evidence over assumption.
const systemInstructions = "You are a code review scorer. Be precise and honest. " +
	"Score based on evidence in the diff and CI results, not assumptions."

// scoringPrompt is the single prompt embedding all evidence for one
// judgment. The overall weighting and verdict thresholds live here and only
// here; the judge computes them itself.
var scoringPrompt = promptbuilder.MustNewPrompt(`<task>
You are evaluating a code PR produced by an automated software factory.
</task>

{{original_task}}

{{ticket_context}}

{{diff_stat}}

{{diff}}

{{ci_results}}

<run_facts>
Status: {{status}}
Iterations: {{iterations}}
Branch: {{branch}}
</run_facts>

<instructions>
Score this PR on the following dimensions. For each, provide a score from 0.0 to 1.0 and a brief justification.

1. requirements_met: Did the PR address ALL requirements listed in the task? (1.0 = all met, 0.5 = partially, 0.0 = missed key requirements)
2. acceptance_criteria: Did the PR meet the stated acceptance criteria? (1.0 = all criteria satisfied, 0.0 = none met)
3. no_regressions: Did the PR avoid the "DO NOT" items? Did it avoid breaking existing functionality? (1.0 = clean, 0.0 = introduced regressions)
4. code_quality: Is the code well-structured, idiomatic, and maintainable? (1.0 = excellent, 0.5 = acceptable, 0.0 = poor)
5. completeness: Is this a complete solution or a partial/WIP? (1.0 = fully complete, 0.5 = mostly done, 0.0 = barely started)

The overall score must be the weighted average: requirements_met (30%), acceptance_criteria (25%), no_regressions (20%), code_quality (10%), completeness (15%).
Set verdict to PASS if overall >= 0.7, NEEDS_WORK if overall >= 0.4, FAIL otherwise.
</instructions>

<output_format>
Return your judgment as a single JSON object in a fenced code block, conforming to this JSON schema:

{{response_schema}}

Example shape:
` + "```json" + `
{
  "requirements_met": {"score": 0.0, "reason": "..."},
  "acceptance_criteria": {"score": 0.0, "reason": "..."},
  "no_regressions": {"score": 0.0, "reason": "..."},
  "code_quality": {"score": 0.0, "reason": "..."},
  "completeness": {"score": 0.0, "reason": "..."},
  "overall": {"score": 0.0, "reason": "one-line summary"},
  "verdict": "PASS|NEEDS_WORK|FAIL"
}
` + "```" + `
</output_format>`)

// verdictSchema reflects the Verdict type once so the prompt's schema and
// the parser can never drift apart.
var verdictSchema = func() string {
	reflector := jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	data, err := json.MarshalIndent(reflector.Reflect(&Verdict{}), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(data)
}()

// buildPrompt binds a Request's evidence into the scoring prompt, applying
// the per-section caps. Evidence sections are bound as XML so delimiters
// inside diff or log text cannot masquerade as prompt structure.
func buildPrompt(req *Request) (string, error) {
	ticket := req.TicketContext
	if ticket == "" {
		ticket = "(no ticket linked)"
	}
	ciLog := clip(req.CILog, MaxCILog)
	if ciLog == "" {
		ciLog = "(no CI results available)"
	}

	prompt := scoringPrompt
	var err error

	if prompt, err = prompt.BindXML("original_task", struct {
		XMLName struct{} `xml:"original_task"`
		Content string   `xml:",chardata"`
	}{Content: req.TaskText}); err != nil {
		return "", err
	}
	if prompt, err = prompt.BindXML("ticket_context", struct {
		XMLName struct{} `xml:"ticket_context"`
		Content string   `xml:",chardata"`
	}{Content: ticket}); err != nil {
		return "", err
	}
	if prompt, err = prompt.BindXML("diff_stat", struct {
		XMLName struct{} `xml:"diff_stat"`
		Content string   `xml:",chardata"`
	}{Content: clip(req.DiffStat, MaxDiffStat)}); err != nil {
		return "", err
	}
	if prompt, err = prompt.BindXML("diff", struct {
		XMLName struct{} `xml:"diff"`
		Content string   `xml:",chardata"`
	}{Content: clip(req.DiffText, MaxDiffText)}); err != nil {
		return "", err
	}
	if prompt, err = prompt.BindXML("ci_results", struct {
		XMLName struct{} `xml:"ci_results"`
		Content string   `xml:",chardata"`
	}{Content: ciLog}); err != nil {
		return "", err
	}

	if prompt, err = prompt.Bind("status", string(req.Status)); err != nil {
		return "", err
	}
	if prompt, err = prompt.Bind("iterations", fmt.Sprintf("%d", req.Iterations)); err != nil {
		return "", err
	}
	if prompt, err = prompt.Bind("branch", req.Branch); err != nil {
		return "", err
	}
	if prompt, err = prompt.Bind("response_schema", verdictSchema); err != nil {
		return "", err
	}

	return prompt.Build()
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
