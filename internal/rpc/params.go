package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cexll/kanban-mcp/internal/pragent"
)

// Validator is implemented by every params struct.
type Validator interface {
	Validate() error
}

// ID accepts a JSON string or number and keeps its text form.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number")
	}
	*id = ID(n.String())
	return nil
}

var safeID = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type AnalyzeCodeChangesParams struct {
	Changes pragent.Changes `json:"changes"`
}

func (p *AnalyzeCodeChangesParams) Validate() error { return validateFiles(p.Changes) }

type GeneratePRDescriptionParams struct {
	Context pragent.DescriptionContext `json:"context"`
}

func (p *GeneratePRDescriptionParams) Validate() error { return nil }

type SelectReviewersParams struct {
	Changes       pragent.Changes `json:"changes"`
	RepositoryURL string          `json:"repositoryUrl,omitempty"`
}

func (p *SelectReviewersParams) Validate() error { return validateFiles(p.Changes) }

type AnalyzePRChangesParams struct {
	RepositoryURL string `json:"repositoryUrl"`
	Branch        string `json:"branch"`
	BaseBranch    string `json:"baseBranch,omitempty"`
}

func (p *AnalyzePRChangesParams) Validate() error {
	if strings.TrimSpace(p.RepositoryURL) == "" {
		return fmt.Errorf("repositoryUrl is required")
	}
	if strings.TrimSpace(p.Branch) == "" {
		return fmt.Errorf("branch is required")
	}
	return nil
}

type GenerateDocumentationParams struct {
	Code            string `json:"code,omitempty"`
	Type            string `json:"type,omitempty"`
	Path            string `json:"path,omitempty"`
	IncludeExamples *bool  `json:"includeExamples,omitempty"`
}

func (p *GenerateDocumentationParams) Validate() error { return nil }

// includeExamples defaults to true.
func (p *GenerateDocumentationParams) includeExamples() bool {
	return p.IncludeExamples == nil || *p.IncludeExamples
}

type GetReadmeParams struct{}

func (p *GetReadmeParams) Validate() error { return nil }

type UpdateReadmeParams struct {
	Content string `json:"content"`
}

func (p *UpdateReadmeParams) Validate() error { return nil }

type UpdateReadmeSectionParams struct {
	SectionName string `json:"sectionName"`
	Content     string `json:"content"`
}

func (p *UpdateReadmeSectionParams) Validate() error {
	if strings.TrimSpace(p.SectionName) == "" {
		return fmt.Errorf("sectionName is required")
	}
	if strings.ContainsAny(p.SectionName, "\r\n") {
		return fmt.Errorf("sectionName must be a single line")
	}
	return nil
}

type AddReadmeBadgeParams struct {
	BadgeType    string `json:"badgeType"`
	BadgeContent string `json:"badgeContent"`
}

func (p *AddReadmeBadgeParams) Validate() error {
	if strings.TrimSpace(p.BadgeType) == "" {
		return fmt.Errorf("badgeType is required")
	}
	if strings.TrimSpace(p.BadgeContent) == "" {
		return fmt.Errorf("badgeContent is required")
	}
	if strings.ContainsAny(p.BadgeContent, "\r\n") {
		return fmt.Errorf("badgeContent must be a single line")
	}
	return nil
}

type UpdateChangelogParams struct {
	Version string   `json:"version"`
	Changes []string `json:"changes"`
}

func (p *UpdateChangelogParams) Validate() error {
	if strings.TrimSpace(p.Version) == "" {
		return fmt.Errorf("version is required")
	}
	return nil
}

type UpdateProjectDocsParams struct {
	Documentation string `json:"documentation"`
	PRID          ID     `json:"prId,omitempty"`
}

func (p *UpdateProjectDocsParams) Validate() error {
	if p.PRID != "" && !safeID.MatchString(string(p.PRID)) {
		return fmt.Errorf("prId may only contain letters, digits, '.', '_' and '-'")
	}
	return nil
}

func validateFiles(c pragent.Changes) error {
	for i, f := range c.Files {
		if strings.TrimSpace(f.Filename) == "" {
			return fmt.Errorf("changes.files[%d].filename is required", i)
		}
	}
	return nil
}

// decodeParams strictly decodes raw into T. Absent or null params decode as {}.
func decodeParams[T any, P interface {
	*T
	Validator
}](raw json.RawMessage) (*T, *Error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	var params T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return nil, invalidParams(err)
	}
	if dec.More() {
		return nil, invalidParams(fmt.Errorf("unexpected data after params object"))
	}
	if err := P(&params).Validate(); err != nil {
		return nil, invalidParams(err)
	}
	return &params, nil
}
