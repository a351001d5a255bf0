/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gitdiff

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Provider is the version-control boundary: two read operations producing
// text, plus the single mutating operation the replayer needs. Everything
// behind it is a black box to the evaluation pipeline.
type Provider interface {
	// Stat returns a git-style stat summary between base and head.
	Stat(ctx context.Context, base, head string) (string, error)
	// Diff returns the full unified diff text between base and head.
	Diff(ctx context.Context, base, head string) (string, error)
	// DeleteBranch removes a local branch ref. Used best-effort by replay
	// cleanup only.
	DeleteBranch(ctx context.Context, name string) error
}

// GitProvider implements Provider against a local working copy using go-git.
// Diffs use merge-base semantics (the three-dot form), matching how the
// agent's branches diverge from the base ref.
type GitProvider struct {
	path string
}

// NewGitProvider opens the repository at path lazily; open errors surface on
// the first operation so a missing repo degrades rather than failing startup.
func NewGitProvider(path string) *GitProvider {
	return &GitProvider{path: path}
}

// Stat implements Provider.
func (p *GitProvider) Stat(_ context.Context, base, head string) (string, error) {
	patch, err := p.patch(base, head)
	if err != nil {
		return "", err
	}

	stats := patch.Stats()
	var insertions, deletions int
	for _, fs := range stats {
		insertions += fs.Addition
		deletions += fs.Deletion
	}

	var sb strings.Builder
	sb.WriteString(stats.String())
	sb.WriteString(fmt.Sprintf(" %d files changed, %d insertions(+), %d deletions(-)\n",
		len(stats), insertions, deletions))
	return sb.String(), nil
}

// Diff implements Provider.
func (p *GitProvider) Diff(_ context.Context, base, head string) (string, error) {
	patch, err := p.patch(base, head)
	if err != nil {
		return "", err
	}
	return patch.String(), nil
}

// DeleteBranch implements Provider.
func (p *GitProvider) DeleteBranch(_ context.Context, name string) error {
	repo, err := git.PlainOpen(p.path)
	if err != nil {
		return fmt.Errorf("opening repo: %w", err)
	}
	ref := plumbing.NewBranchReferenceName(name)
	if err := repo.Storer.RemoveReference(ref); err != nil {
		return fmt.Errorf("removing ref %s: %w", ref, err)
	}
	return nil
}

func (p *GitProvider) patch(base, head string) (*object.Patch, error) {
	repo, err := git.PlainOpen(p.path)
	if err != nil {
		return nil, fmt.Errorf("opening repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, base)
	if err != nil {
		return nil, fmt.Errorf("resolving base %q: %w", base, err)
	}
	headCommit, err := resolveCommit(repo, head)
	if err != nil {
		return nil, fmt.Errorf("resolving head %q: %w", head, err)
	}

	// Diff from the merge base so commits already on the base ref don't
	// count against the branch.
	if bases, err := baseCommit.MergeBase(headCommit); err == nil && len(bases) > 0 {
		baseCommit = bases[0]
	}

	patch, err := baseCommit.Patch(headCommit)
	if err != nil {
		return nil, fmt.Errorf("computing patch: %w", err)
	}
	return patch, nil
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, err
	}
	return repo.CommitObject(*hash)
}
