/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseVerdict extracts the structured verdict from a judge response. A
// fenced ```json block is preferred; when none is present the whole
// response is parsed as JSON directly. Any parse failure wraps
// ErrMalformedVerdict.
func ParseVerdict(response string) (*Verdict, error) {
	payload := extractFenced(response)
	if payload == "" {
		payload = stripFences(response)
	}

	var v Verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// extractFenced returns the content of the first ```json fence, or "".
func extractFenced(response string) string {
	var sb strings.Builder
	inBlock := false
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBlock && (trimmed == "```json" || trimmed == "```"):
			// An unlabeled fence only counts if it opens a JSON object.
			if trimmed == "```json" {
				inBlock = true
			}
		case inBlock && trimmed == "```":
			return strings.TrimSpace(sb.String())
		case inBlock:
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	// An unterminated fence still carries the payload.
	return strings.TrimSpace(sb.String())
}

// stripFences removes stray markdown fencing some models wrap around bare
// JSON answers.
func stripFences(response string) string {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
