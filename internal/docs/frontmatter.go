package docs

import (
	"strings"

	"github.com/adrg/frontmatter"
)

type docMatter struct {
	Title string `yaml:"title"`
}

// linkTitle returns the frontmatter title of documentation, or fallback when
// there is no usable frontmatter.
func linkTitle(documentation, fallback string) string {
	var matter docMatter
	if _, err := frontmatter.Parse(strings.NewReader(documentation), &matter); err != nil {
		return fallback
	}
	if title := strings.TrimSpace(matter.Title); title != "" {
		return title
	}
	return fallback
}
