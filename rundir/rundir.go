/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package rundir reads and writes the artifacts the external task runner
// leaves behind in a run directory: result.json, task.md, per-iteration
// check and CI logs, and the locally persisted score.json.
package rundir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/themailman05/factory/record"
)

// Result mirrors the runner's result.json contract.
type Result struct {
	RunID      string        `json:"run_id"`
	Status     record.Status `json:"status"`
	Iterations int           `json:"iterations"`
	Branch     string        `json:"branch,omitempty"`
	PR         string        `json:"pr,omitempty"`
}

// ScoreResult is the durable local record written after every judged
// scoring invocation, independent of the remote backend.
type ScoreResult struct {
	RunID   string             `json:"run_id"`
	Scores  map[string]float64 `json:"scores"`
	Reasons map[string]string  `json:"reasons"`
	Verdict string             `json:"verdict"`
	Scorer  string             `json:"scorer"`
}

// ReadResult loads and validates result.json from a run directory.
func ReadResult(dir string) (*Result, error) {
	data, err := os.ReadFile(filepath.Join(dir, "result.json"))
	if err != nil {
		return nil, fmt.Errorf("reading result.json: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing result.json: %w", err)
	}
	res.Status = record.ParseStatus(string(res.Status))
	return &res, nil
}

// HasResult reports whether dir contains a result.json.
func HasResult(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "result.json"))
	return err == nil
}

// TaskText returns the run's task description, or "unknown" when the task
// file is missing. Evidence-gathering failures degrade, they never abort.
func TaskText(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "task.md"))
	if err != nil {
		return "unknown"
	}
	return string(data)
}

// CheckLogTail returns the last n lines of the check log for the given
// iteration, or "" when the file is absent.
func CheckLogTail(dir string, iteration, n int) string {
	data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("checks-iter-%d.log", iteration)))
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// CILogTail concatenates the trailing maxPerFile bytes of each ci-iter-*.log
// in the run directory, falling back to checks-iter-*.log when no CI logs
// exist.
func CILogTail(dir string, maxPerFile int) string {
	out := globTails(dir, "ci-iter-*.log", maxPerFile)
	if out == "" {
		out = globTails(dir, "checks-iter-*.log", maxPerFile)
	}
	return out
}

func globTails(dir, pattern string, maxPerFile int) string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return ""
	}
	sort.Strings(matches)
	var sb strings.Builder
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		if len(data) > maxPerFile {
			data = data[len(data)-maxPerFile:]
		}
		sb.Write(data)
	}
	return sb.String()
}

// Latest returns the most-recently-modified run directory under root.
func Latest(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("reading runs root: %w", err)
	}
	var latest string
	var latestMod int64 = -1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); mod > latestMod {
			latestMod = mod
			latest = filepath.Join(root, e.Name())
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no run directories under %s", root)
	}
	return latest, nil
}

// WriteScore persists score.json into the run directory.
func WriteScore(dir string, sr ScoreResult) error {
	data, err := json.MarshalIndent(sr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling score result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "score.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing score.json: %w", err)
	}
	return nil
}
