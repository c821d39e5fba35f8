package pragent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func files(names ...string) []ChangedFile {
	out := make([]ChangedFile, 0, len(names))
	for _, n := range names {
		out = append(out, ChangedFile{Filename: n, Additions: 2, Deletions: 1})
	}
	return out
}

func TestAnalyzeChanges(t *testing.T) {
	a := AnalyzeChanges(Changes{Files: files("internal/auth/service.go", "api/handler.go", "README.md", "config/test.yaml")})

	assert.Equal(t, "Modified 4 files with 8 additions and 4 deletions. File types affected: .go, .md, .yaml", a.Summary)
	assert.Equal(t, "HIGH - Critical files modified: internal/auth/service.go", a.Impact)
	assert.Equal(t, []string{
		"Run all tests before merging",
		"Verify configuration changes in staging environment",
		"Update API documentation if endpoints changed",
	}, a.Suggestions)
	assert.Equal(t, []string{
		"Unit tests for internal/auth/service.go",
		"Integration tests for api/handler.go",
	}, a.TestRequirements)
}

func TestAssessImpact(t *testing.T) {
	assert.Equal(t, "LOW - Routine changes", assessImpact(files("main.go")))

	many := make([]string, 11)
	for i := range many {
		many[i] = fmt.Sprintf("pkg/f%d.go", i)
	}
	assert.Equal(t, "MEDIUM - Large number of files changed", assessImpact(files(many...)))

	assert.Equal(t,
		"HIGH - Critical files modified: db/migration_1.sql, schema.graphql, Security.md",
		assessImpact(files("db/migration_1.sql", "schema.graphql", "Security.md", "authz.go")))
}

func TestTestRequirementsCapped(t *testing.T) {
	names := make([]string, 8)
	for i := range names {
		names[i] = fmt.Sprintf("svc/service%d.go", i)
	}
	reqs := testRequirements(files(names...))
	assert.Len(t, reqs, maxTestRequirements)
	assert.Equal(t, "Unit tests for svc/service0.go", reqs[0])
}

func TestAnalyzeChanges_Empty(t *testing.T) {
	a := AnalyzeChanges(Changes{})
	assert.Equal(t, "Modified 0 files with 0 additions and 0 deletions. File types affected: ", a.Summary)
	assert.Equal(t, "LOW - Routine changes", a.Impact)
	assert.Empty(t, a.Suggestions)
	assert.NotNil(t, a.Suggestions)
	assert.NotNil(t, a.TestRequirements)
}

func TestSuggestLabels(t *testing.T) {
	tests := map[string][]string{
		"fix: crash on start":         {"bug"},
		"Feature: dark mode":          {"enhancement"},
		"docs: update guide":          {"documentation"},
		"Add tests for parser":        {"testing"},
		"feat: add bug report + docs": {"bug", "enhancement", "documentation"},
		"chore: bump deps":            nil,
	}
	for title, want := range tests {
		assert.Equal(t, want, SuggestLabels(title), title)
	}
}
