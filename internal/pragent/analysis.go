package pragent

import (
	"fmt"
	"path"
	"strings"
)

// ChangedFile is one file in a change set.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status,omitempty"`
	Additions int    `json:"additions,omitempty"`
	Deletions int    `json:"deletions,omitempty"`
	Changes   int    `json:"changes,omitempty"`
	Patch     string `json:"patch,omitempty"`
}

// Changes is a set of changed files.
type Changes struct {
	Files []ChangedFile `json:"files"`
}

// Analysis is the heuristic review of a change set.
type Analysis struct {
	Summary          string   `json:"summary"`
	Impact           string   `json:"impact"`
	Suggestions      []string `json:"suggestions"`
	TestRequirements []string `json:"test_requirements"`
}

var criticalPatterns = []string{"database", "migration", "schema", "auth", "security"}

const maxTestRequirements = 5

// AnalyzeChanges summarizes a change set without calling any external service.
func AnalyzeChanges(changes Changes) *Analysis {
	return &Analysis{
		Summary:          summarize(changes.Files),
		Impact:           assessImpact(changes.Files),
		Suggestions:      suggestions(changes.Files),
		TestRequirements: testRequirements(changes.Files),
	}
}

func summarize(files []ChangedFile) string {
	var additions, deletions int
	var exts []string
	seen := make(map[string]bool)
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
		if ext := path.Ext(f.Filename); ext != "" && !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return fmt.Sprintf("Modified %d files with %d additions and %d deletions. File types affected: %s",
		len(files), additions, deletions, strings.Join(exts, ", "))
}

func assessImpact(files []ChangedFile) string {
	var critical []string
	for _, f := range files {
		name := strings.ToLower(f.Filename)
		for _, p := range criticalPatterns {
			if strings.Contains(name, p) {
				critical = append(critical, f.Filename)
				break
			}
		}
	}

	switch {
	case len(critical) > 0:
		return "HIGH - Critical files modified: " + strings.Join(critical[:min(3, len(critical))], ", ")
	case len(files) > 10:
		return "MEDIUM - Large number of files changed"
	default:
		return "LOW - Routine changes"
	}
}

func suggestions(files []ChangedFile) []string {
	out := []string{}
	if anyNameContains(files, "test") {
		out = append(out, "Run all tests before merging")
	}
	if anyNameContains(files, "config") {
		out = append(out, "Verify configuration changes in staging environment")
	}
	if anyNameContains(files, "api") {
		out = append(out, "Update API documentation if endpoints changed")
	}
	return out
}

func testRequirements(files []ChangedFile) []string {
	out := []string{}
	for _, f := range files {
		name := strings.ToLower(f.Filename)
		switch {
		case strings.Contains(name, "service"):
			out = append(out, "Unit tests for "+f.Filename)
		case strings.Contains(name, "api"):
			out = append(out, "Integration tests for "+f.Filename)
		}
		if len(out) == maxTestRequirements {
			break
		}
	}
	return out
}

func anyNameContains(files []ChangedFile, needle string) bool {
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Filename), needle) {
			return true
		}
	}
	return false
}

// SuggestLabels maps conventional title keywords to repository labels.
func SuggestLabels(title string) []string {
	t := strings.ToLower(title)
	var labels []string
	if strings.Contains(t, "fix") || strings.Contains(t, "bug") {
		labels = append(labels, "bug")
	}
	if strings.Contains(t, "feat") || strings.Contains(t, "feature") {
		labels = append(labels, "enhancement")
	}
	if strings.Contains(t, "docs") {
		labels = append(labels, "documentation")
	}
	if strings.Contains(t, "test") {
		labels = append(labels, "testing")
	}
	return labels
}
