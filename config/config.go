/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config holds the single configuration structure for the factory
// evaluation pipeline. Every recognized option is enumerated here with its
// default and threaded explicitly into the components that need it; no
// component reads the environment on its own.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config is processed once at startup and passed by value into each command.
type Config struct {
	// Project is the telemetry backend project all entries are keyed by.
	Project string `env:"BRAINTRUST_CC_PROJECT,default=Factory"`

	// Dataset names the regression fixture population.
	Dataset string `env:"FACTORY_DATASET,default=factory-runs"`

	// Repo is the working copy the agent produces branches in.
	Repo string `env:"RALPH_REPO,default=~/src/flowstate"`

	// BaseRef is the ref diffs are computed against.
	BaseRef string `env:"FACTORY_BASE_REF,default=origin/master"`

	// RunsDir is the root under which the task runner creates run directories.
	RunsDir string `env:"FACTORY_RUNS_DIR"`

	// Runner is the external task-runner executable dispatched by the replayer.
	Runner string `env:"FACTORY_RUNNER"`

	// Telemetry backend.
	BraintrustAPIKey string `env:"BRAINTRUST_API_KEY"`
	BraintrustAPIURL string `env:"BRAINTRUST_API_URL,default=https://api.braintrust.dev"`

	// LLM judge.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	JudgeModel      string `env:"FACTORY_JUDGE_MODEL,default=claude-sonnet-4-20250514"`

	// Optional ticket enrichment. Both must be set for lookups to happen.
	TrelloAPIKey string `env:"TRELLO_API_KEY"`
	TrelloToken  string `env:"TRELLO_TOKEN"`

	// CI-hook context, populated by GitHub Actions.
	PRNumber    string `env:"PR_NUMBER,default=unknown"`
	PRBranch    string `env:"PR_BRANCH,default=unknown"`
	CommitSHA   string `env:"COMMIT_SHA,default=unknown"`
	StepSummary string `env:"GITHUB_STEP_SUMMARY"`
}

// Load processes the environment into a Config and resolves derived defaults.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return cfg, fmt.Errorf("processing config: %w", err)
	}

	repo, err := expandHome(cfg.Repo)
	if err != nil {
		return cfg, fmt.Errorf("resolving repo path: %w", err)
	}
	cfg.Repo = repo

	// The runner and its runs directory live together by convention.
	if cfg.RunsDir == "" {
		cfg.RunsDir = filepath.Join(cfg.Repo, "..", "factory", "runs")
	}
	if cfg.Runner == "" {
		cfg.Runner = filepath.Join(filepath.Dir(cfg.RunsDir), "ralph.sh")
	}

	return cfg, nil
}

// ShortSHA returns the abbreviated commit used in CI experiment names.
func (c Config) ShortSHA() string {
	if len(c.CommitSHA) > 7 {
		return c.CommitSHA[:7]
	}
	return c.CommitSHA
}

// TrelloConfigured reports whether ticket enrichment credentials are present.
func (c Config) TrelloConfigured() bool {
	return c.TrelloAPIKey != "" && c.TrelloToken != ""
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
