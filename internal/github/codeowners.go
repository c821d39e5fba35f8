package github

import (
	"strings"

	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

// CODEOWNERS patterns follow gitignore syntax, including "**".
type ownerRule struct {
	pattern gitignore.Pattern
	owners  []string
}

// CodeOwners is a parsed CODEOWNERS file.
type CodeOwners struct {
	rules []ownerRule
}

// ParseCodeOwners parses CODEOWNERS content. Owners are returned without the
// leading "@"; email owners are kept as is.
func ParseCodeOwners(content string) *CodeOwners {
	co := &CodeOwners{}
	for _, line := range strings.Split(content, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		owners := make([]string, 0, len(fields)-1)
		for _, o := range fields[1:] {
			owners = append(owners, strings.TrimPrefix(o, "@"))
		}
		co.rules = append(co.rules, ownerRule{pattern: gitignore.ParsePattern(fields[0], nil), owners: owners})
	}
	return co
}

// Len returns the number of rules.
func (c *CodeOwners) Len() int {
	return len(c.rules)
}

// OwnersFor returns the owners of file. The last matching rule wins.
func (c *CodeOwners) OwnersFor(file string) []string {
	parts := strings.Split(strings.TrimPrefix(file, "/"), "/")
	for i := len(c.rules) - 1; i >= 0; i-- {
		if c.rules[i].pattern.Match(parts, false) == gitignore.Exclude {
			return c.rules[i].owners
		}
	}
	return nil
}
