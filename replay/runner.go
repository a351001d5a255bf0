/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package replay

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout is the hard per-dispatch bound. A run that exceeds it is
// marked timed out and the replay moves on; there is no kill-and-retry.
const DefaultTimeout = 10 * time.Minute

// ErrTimeout marks a dispatch that exceeded the hard timeout.
var ErrTimeout = errors.New("task runner timed out")

// Runner dispatches the external task runner for one task file and branch.
type Runner interface {
	Run(ctx context.Context, taskFile, branch string) error
}

// ScriptRunner invokes the runner executable as
// "<runner> <task-file> --branch <name>" with a hard timeout.
type ScriptRunner struct {
	Path    string
	Timeout time.Duration
}

// NewScriptRunner returns a ScriptRunner with the default timeout.
func NewScriptRunner(path string) *ScriptRunner {
	return &ScriptRunner{Path: path, Timeout: DefaultTimeout}
}

// Run implements Runner.
func (r *ScriptRunner) Run(ctx context.Context, taskFile, branch string) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Path, taskFile, "--branch", branch)
	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if err != nil {
		return fmt.Errorf("task runner: %w", err)
	}
	return nil
}
