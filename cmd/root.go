/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package cmd wires configuration and components into the factory-eval CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the factory-eval command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "factory-eval",
		Short:         "Score agent runs and replay recorded tasks for regressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newPostRunCmd(),
		newScorePRCmd(),
		newRegressCmd(),
		newCICmd(),
	)
	return root
}
