package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// ErrNothingToCommit is returned when none of the requested paths exist or
// none of them changed since the last commit.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies the signature used for generated commits.
type Author struct {
	Name  string
	Email string
}

// Committer stages and commits files in a local working tree using go-git.
type Committer struct {
	repoPath string
	author   Author
	now      func() time.Time
}

// NewCommitter creates a committer for the working tree at repoPath.
func NewCommitter(repoPath string, author Author) *Committer {
	return &Committer{
		repoPath: repoPath,
		author:   author,
		now:      time.Now,
	}
}

// IsRepo reports whether repoPath is a git working tree.
func (c *Committer) IsRepo() bool {
	_, err := git.PlainOpen(c.repoPath)
	return err == nil
}

// Commit stages the given root-relative paths that exist and records a commit.
// It returns the new commit hash.
func (c *Committer) Commit(ctx context.Context, message string, paths ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo, err := git.PlainOpen(c.repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get working tree: %w", err)
	}

	staged := 0
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(c.repoPath, p)); err != nil {
			continue
		}
		if _, err := worktree.Add(filepath.ToSlash(p)); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", p, err)
		}
		staged++
	}
	if staged == 0 {
		return "", ErrNothingToCommit
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.author.Name,
			Email: c.author.Email,
			When:  c.now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return "", ErrNothingToCommit
	}
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	return hash.String(), nil
}
