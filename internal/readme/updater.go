package readme

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cexll/kanban-mcp/internal/docpatch"
	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/vcs"
)

const (
	ReadmeFile    = "README.md"
	ChangelogFile = "CHANGELOG.md"

	// MissingReadme is returned by GetReadme when no README exists yet.
	MissingReadme = "# Project README\n\nNo README file found."

	changelogTemplate = "# Changelog\n\nAll notable changes to this project will be documented in this file.\n\n"
	badgeSeed         = docpatch.DefaultHeading + "\n\n"
)

// Store reads and writes whole documents below the repository root.
type Store interface {
	Read(rel string) (string, bool, error)
	Write(rel, content string) error
}

// Committer records document changes in version control.
type Committer interface {
	IsRepo() bool
	Commit(ctx context.Context, message string, paths ...string) (string, error)
}

// Result is the outcome reported to callers of a mutating operation.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func success(format string, args ...any) *Result {
	return &Result{Status: "success", Message: fmt.Sprintf(format, args...)}
}

// Updater applies docpatch edits to README.md and CHANGELOG.md. Read-modify-write
// cycles are serialized so concurrent callers never lose each other's edits.
type Updater struct {
	store     Store
	committer Committer
	logger    *logging.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewUpdater creates an updater. committer may be nil to disable commits.
func NewUpdater(store Store, committer Committer, logger *logging.Logger) *Updater {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Updater{
		store:     store,
		committer: committer,
		logger:    logger.Component("readme"),
		now:       time.Now,
	}
}

// GetReadme returns the README content, or a placeholder when there is none.
func (u *Updater) GetReadme(ctx context.Context) (string, error) {
	content, ok, err := u.store.Read(ReadmeFile)
	if err != nil {
		return "", fmt.Errorf("error reading README: %w", err)
	}
	if !ok {
		return MissingReadme, nil
	}
	return content, nil
}

// Update replaces the whole README.
func (u *Updater) Update(ctx context.Context, content string) (*Result, error) {
	err := u.patch(ctx, ReadmeFile, "", "Update README.md", func(string) string {
		return content
	})
	if err != nil {
		return nil, fmt.Errorf("error updating README: %w", err)
	}
	return success("README updated successfully"), nil
}

// UpdateSection replaces or appends a README section.
func (u *Updater) UpdateSection(ctx context.Context, sectionName, content string) (*Result, error) {
	err := u.patch(ctx, ReadmeFile, "", "Update README.md - "+sectionName+" section", func(doc string) string {
		return docpatch.UpdateSection(doc, sectionName, content)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating README section: %w", err)
	}
	return success("Section '%s' updated successfully", sectionName), nil
}

// AddBadge inserts a badge line. badgeType only labels the result message.
func (u *Updater) AddBadge(ctx context.Context, badgeType, badgeContent string) (*Result, error) {
	err := u.patch(ctx, ReadmeFile, badgeSeed, "Add "+badgeType+" badge to README.md", func(doc string) string {
		return docpatch.InsertBadge(doc, badgeContent)
	})
	if err != nil {
		return nil, fmt.Errorf("error adding badge: %w", err)
	}
	return success("Badge '%s' added successfully", badgeType), nil
}

// UpdateChangelog prepends a dated entry for version, creating CHANGELOG.md
// from a template when missing.
func (u *Updater) UpdateChangelog(ctx context.Context, version string, changes []string) (*Result, error) {
	entry := docpatch.ChangelogEntry{Version: version, Date: u.now(), Changes: changes}
	err := u.patch(ctx, ChangelogFile, changelogTemplate, "Update CHANGELOG.md for "+version, func(doc string) string {
		return docpatch.InsertChangelogEntry(doc, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating changelog: %w", err)
	}
	return success("Changelog updated with version %s", version), nil
}

// patch runs a read-modify-write of rel and the commit recording it under the
// updater lock, so each commit holds exactly its own edit. seed is the
// starting content for a missing file.
func (u *Updater) patch(ctx context.Context, rel, seed, message string, edit func(string) string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	doc, ok, err := u.store.Read(rel)
	if err != nil {
		return err
	}
	if !ok {
		doc = seed
	}
	if err := u.store.Write(rel, edit(doc)); err != nil {
		return err
	}
	u.commit(ctx, message)
	return nil
}

// commit is best effort; the document write already succeeded.
func (u *Updater) commit(ctx context.Context, message string) {
	if u.committer == nil || !u.committer.IsRepo() {
		return
	}

	hash, err := u.committer.Commit(ctx, message, ReadmeFile, ChangelogFile)
	switch {
	case errors.Is(err, vcs.ErrNothingToCommit):
		u.logger.Debug("Nothing to commit", "message", message)
	case err != nil:
		u.logger.Warn("Could not commit changes", "message", message, "error", err)
	default:
		u.logger.Info("Committed changes", "message", message, "hash", hash)
	}
}
