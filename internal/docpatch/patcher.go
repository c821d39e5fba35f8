package docpatch

import (
	"regexp"
	"strings"
	"time"
)

// DefaultHeading is used when a document has neither a heading nor a badge.
const DefaultHeading = "# Project"

// headingLine matches a markdown heading marker at line start. It bounds
// sections; badge placement uses the looser firstHeading.
var headingLine = regexp.MustCompile(`^#+[ \t]+`)

// ChangelogEntry is a dated, versioned block inserted at the top of a changelog.
type ChangelogEntry struct {
	Version string
	Date    time.Time
	Changes []string
}

// Heading returns the entry heading line, e.g. "## [1.2.0] - 2024-05-01".
func (e ChangelogEntry) Heading() string {
	return "## [" + e.Version + "] - " + e.Date.Format("2006-01-02")
}

// lines renders the entry followed by a blank separator line.
func (e ChangelogEntry) lines() []string {
	out := make([]string, 0, len(e.Changes)+3)
	out = append(out, e.Heading(), "")
	for _, change := range e.Changes {
		out = append(out, "- "+change)
	}
	return append(out, "")
}

// UpdateSection replaces the body of the first section whose heading text starts
// with sectionName (case-insensitive). The heading line is kept verbatim. When no
// heading matches, a new "## sectionName" section is appended.
func UpdateSection(document, sectionName, newContent string) string {
	body := strings.TrimRight(newContent, "\n")

	start, end, ok := findSection(document, sectionName)
	if !ok {
		if document == "" {
			return "## " + sectionName + "\n\n" + body + "\n"
		}
		if !strings.HasSuffix(document, "\n") {
			document += "\n"
		}
		return document + "\n## " + sectionName + "\n\n" + body + "\n"
	}

	heading := document[start:end]
	if nl := strings.IndexByte(heading, '\n'); nl >= 0 {
		heading = heading[:nl]
	}

	return document[:start] + heading + "\n\n" + body + "\n" + document[end:]
}

// findSection returns the byte span [start, end) of the named section. The span
// stops before the newline that precedes the next heading, or at end of document.
func findSection(document, sectionName string) (int, int, bool) {
	want := strings.ToLower(sectionName)
	start := -1
	offset := 0

	for offset <= len(document) {
		lineEnd := strings.IndexByte(document[offset:], '\n')
		next := len(document) + 1
		line := document[offset:]
		if lineEnd >= 0 {
			line = document[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}

		if loc := headingLine.FindStringIndex(line); loc != nil {
			if start >= 0 {
				// offset-1 is the newline ending the previous line.
				return start, offset - 1, true
			}
			if strings.HasPrefix(strings.ToLower(line[loc[1]:]), want) {
				start = offset
			}
		}

		offset = next
	}

	if start >= 0 {
		return start, len(document), true
	}
	return 0, 0, false
}

// InsertBadge adds a badge line next to the existing badges, or below the first
// heading when there are none. Existing lines are never removed.
func InsertBadge(document, badge string) string {
	lines := strings.Split(document, "\n")

	if idx := firstBadge(lines); idx >= 0 {
		for idx+1 < len(lines) && isBadge(lines[idx+1]) {
			idx++
		}
		return strings.Join(insertLines(lines, idx+1, badge), "\n")
	}

	heading := firstHeading(lines)
	if heading < 0 {
		lines = strings.Split(DefaultHeading+"\n\n"+document, "\n")
		heading = 0
	}

	at := heading + 1
	if at < len(lines) && strings.TrimSpace(lines[at]) == "" {
		at++
		lines = insertLines(lines, at, badge)
	} else {
		lines = insertLines(lines, at, "", badge)
		at++
	}

	if after := at + 1; after < len(lines) && strings.TrimSpace(lines[after]) != "" {
		lines = insertLines(lines, after, "")
	}

	return strings.Join(lines, "\n")
}

// InsertChangelogEntry puts entry above the top-most "## [" entry. Without one it
// goes two lines below the first line mentioning "changelog", else at the end.
// Dates are not checked for ordering.
func InsertChangelogEntry(document string, entry ChangelogEntry) string {
	lines := strings.Split(document, "\n")
	at := changelogInsertPoint(lines)
	return strings.Join(insertLines(lines, at, entry.lines()...), "\n")
}

func changelogInsertPoint(lines []string) int {
	for i, line := range lines {
		if strings.HasPrefix(line, "## [") {
			return i
		}
	}
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), "changelog") {
			return min(i+2, len(lines))
		}
	}
	return len(lines)
}

func isBadge(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "![") || strings.HasPrefix(trimmed, "[![")
}

func firstBadge(lines []string) int {
	for i, line := range lines {
		if isBadge(line) {
			return i
		}
	}
	return -1
}

// firstHeading anchors badges on any line starting with '#', including "#tag".
// Section lookup is stricter (headingLine) so that such lines never split a
// section body.
func firstHeading(lines []string) int {
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			return i
		}
	}
	return -1
}

func insertLines(lines []string, at int, values ...string) []string {
	out := make([]string, 0, len(lines)+len(values))
	out = append(out, lines[:at]...)
	out = append(out, values...)
	return append(out, lines[at:]...)
}
