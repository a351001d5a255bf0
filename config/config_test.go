/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Pin the repo path so the home-expansion default doesn't depend on the
	// test environment.
	t.Setenv("RALPH_REPO", "/work/flowstate")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Project != "Factory" {
		t.Errorf("Project = %q, want Factory", cfg.Project)
	}
	if cfg.Dataset != "factory-runs" {
		t.Errorf("Dataset = %q, want factory-runs", cfg.Dataset)
	}
	if cfg.BaseRef != "origin/master" {
		t.Errorf("BaseRef = %q, want origin/master", cfg.BaseRef)
	}
	if cfg.JudgeModel == "" {
		t.Error("JudgeModel default missing")
	}
	if cfg.PRNumber != "unknown" {
		t.Errorf("PRNumber = %q, want unknown", cfg.PRNumber)
	}
}

func TestLoadDerivedPaths(t *testing.T) {
	t.Setenv("RALPH_REPO", "/work/flowstate")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join("/work/flowstate", "..", "factory", "runs"); cfg.RunsDir != want {
		t.Errorf("RunsDir = %q, want %q", cfg.RunsDir, want)
	}
	if want := filepath.Join(filepath.Dir(cfg.RunsDir), "ralph.sh"); cfg.Runner != want {
		t.Errorf("Runner = %q, want %q", cfg.Runner, want)
	}
}

func TestLoadExplicitPathsWin(t *testing.T) {
	t.Setenv("RALPH_REPO", "/work/flowstate")
	t.Setenv("FACTORY_RUNS_DIR", "/data/runs")
	t.Setenv("FACTORY_RUNNER", "/usr/local/bin/ralph")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RunsDir != "/data/runs" {
		t.Errorf("RunsDir = %q", cfg.RunsDir)
	}
	if cfg.Runner != "/usr/local/bin/ralph" {
		t.Errorf("Runner = %q", cfg.Runner)
	}
}

func TestShortSHA(t *testing.T) {
	tests := []struct {
		sha  string
		want string
	}{{
		sha:  "0123456789abcdef",
		want: "0123456",
	}, {
		sha:  "abc",
		want: "abc",
	}, {
		sha:  "unknown",
		want: "unknown",
	}}

	for _, tt := range tests {
		c := Config{CommitSHA: tt.sha}
		if got := c.ShortSHA(); got != tt.want {
			t.Errorf("ShortSHA(%q) = %q, want %q", tt.sha, got, tt.want)
		}
	}
}

func TestTrelloConfigured(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		token string
		want  bool
	}{{
		name: "neither",
	}, {
		name: "key only",
		key:  "k",
	}, {
		name:  "both",
		key:   "k",
		token: "t",
		want:  true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{TrelloAPIKey: tt.key, TrelloToken: tt.token}
			if got := c.TrelloConfigured(); got != tt.want {
				t.Errorf("TrelloConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}
