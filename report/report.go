/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders score tables for terminals and the GitHub Actions
// step summary.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/themailman05/factory/scorecard"
)

// ScoreTable writes the checks as a markdown-style table.
func ScoreTable(w io.Writer, checks []scorecard.Check) error {
	table := newTable([]string{"Check", "Score", "Evidence"}, w)
	for _, c := range checks {
		if err := table.Append([]string{c.Name, fmt.Sprintf("%.2f", c.Score), c.Evidence}); err != nil {
			return err
		}
	}
	return table.Render()
}

// ScoreMap writes a name/score map as a table, sorted by name for stable
// output.
func ScoreMap(w io.Writer, scores map[string]float64, reasons map[string]string) error {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	table := newTable([]string{"Score", "Value", "Reason"}, w)
	for _, name := range names {
		if err := table.Append([]string{name, fmt.Sprintf("%.2f", scores[name]), reasons[name]}); err != nil {
			return err
		}
	}
	return table.Render()
}

func newTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// CISummary is the content appended to the GitHub Actions step summary.
type CISummary struct {
	PRNumber     string
	Project      string
	Experiment   string
	Checks       []scorecard.Check
	FilesChanged int
	Insertions   int
	Deletions    int
}

// AppendCISummary appends the summary markdown to path. A missing path (not
// running under GitHub Actions) is a no-op.
func AppendCISummary(path string, s CISummary) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step summary: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "## Factory Eval - PR #%s\n\n", s.PRNumber)
	fmt.Fprintf(f, "| Metric | Score |\n|--------|-------|\n")
	for _, c := range s.Checks {
		fmt.Fprintf(f, "| %s | %.2f |\n", c.Name, c.Score)
	}
	fmt.Fprintf(f, "\n**Diff:** %d files, +%d/-%d (%d total)\n\n",
		s.FilesChanged, s.Insertions, s.Deletions, s.Insertions+s.Deletions)
	fmt.Fprintf(f, "Experiment: `%s` (project %s)\n\n", s.Experiment, s.Project)
	for _, c := range s.Checks {
		marker := "passed"
		if c.Score == 0.0 {
			marker = "failed"
		}
		fmt.Fprintf(f, "### %s: %s\n```\n%s\n```\n\n", c.Name, marker, c.Evidence)
	}
	return nil
}
