package docs

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/provider"
	"github.com/cexll/kanban-mcp/internal/provider/chat"
)

// Documentation types accepted by Generate. Unknown types fall back to General.
const (
	TypeAPI          = "api"
	TypeComponent    = "component"
	TypeArchitecture = "architecture"
	TypeGeneral      = "general"
)

const (
	docsDir       = "docs"
	indexFile     = "docs/index.md"
	indexTemplate = "# Documentation Index\n\n## Generated Documentation\n\n"

	// NoCodeError is reported in metadata when neither code nor a readable path is given.
	NoCodeError = "No code provided"

	docTemperature = 0.3
	docMaxTokens   = 2000
)

// Store reads and writes documents below the repository root.
type Store interface {
	Read(rel string) (string, bool, error)
	Write(rel, content string) error
}

// Request describes one documentation job. Path, when set, is read from the
// repository and takes precedence over Code.
type Request struct {
	Code            string
	Type            string
	Path            string
	IncludeExamples bool
}

// Metadata accompanies generated documentation.
type Metadata struct {
	Type             string `json:"type,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
	IncludesExamples *bool  `json:"includesExamples,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Result is the output of Generate.
type Result struct {
	Documentation string   `json:"documentation"`
	Metadata      Metadata `json:"metadata"`
}

// UpdateResult is the output of UpdateProjectDocs.
type UpdateResult struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Generator produces markdown documentation through an LLM and files it under docs/.
type Generator struct {
	llm    provider.Provider
	store  Store
	logger *logging.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewGenerator creates a generator.
func NewGenerator(llm provider.Provider, store Store, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Generator{
		llm:    llm,
		store:  store,
		logger: logger.Component("docs"),
		now:    time.Now,
	}
}

// Generate documents req.Code (or the file at req.Path). An empty input is
// reported in the result metadata rather than as an error.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	code := req.Code
	if req.Path != "" {
		content, _, err := g.store.Read(req.Path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", req.Path, err)
		}
		code = content
	}
	if strings.TrimSpace(code) == "" {
		return &Result{Metadata: Metadata{Error: NoCodeError}}, nil
	}

	docType := req.Type
	if docType == "" {
		docType = TypeGeneral
	}

	system, prompt := buildPrompt(docType, code, req.IncludeExamples)
	start := time.Now()
	docs, err := g.llm.Complete(ctx, &chat.Request{
		Prompt:      prompt,
		System:      system,
		Temperature: chat.Temperature(docTemperature),
		MaxTokens:   docMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error generating documentation: %w", err)
	}
	g.logger.LogDuration("generate "+docType+" docs", start)

	includes := req.IncludeExamples
	return &Result{
		Documentation: docs,
		Metadata: Metadata{
			Type:             docType,
			Timestamp:        g.now().UTC().Format(time.RFC3339),
			IncludesExamples: &includes,
		},
	}, nil
}

// UpdateProjectDocs writes documentation to docs/pr_<id>_docs.md, or a
// timestamped file when prID is empty, and links it from docs/index.md.
func (g *Generator) UpdateProjectDocs(ctx context.Context, documentation, prID string) (*UpdateResult, error) {
	var filename string
	if prID != "" {
		filename = "pr_" + prID + "_docs.md"
	} else {
		filename = "generated_docs_" + g.now().UTC().Format("20060102T150405Z") + ".md"
	}
	rel := path.Join(docsDir, filename)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.Write(rel, documentation); err != nil {
		return nil, fmt.Errorf("error updating project docs: %w", err)
	}
	if err := g.updateIndex(filename, linkTitle(documentation, filename)); err != nil {
		return nil, fmt.Errorf("error updating docs index: %w", err)
	}
	g.logger.Info("Documentation updated", "path", rel)

	return &UpdateResult{
		Status:  "success",
		Path:    rel,
		Message: "Documentation updated successfully",
	}, nil
}

// updateIndex appends a link to filename unless the index already has one.
func (g *Generator) updateIndex(filename, title string) error {
	content, ok, err := g.store.Read(indexFile)
	if err != nil {
		return err
	}
	if !ok {
		content = indexTemplate
	}

	target := "(./" + filename + ")"
	if strings.Contains(content, target) {
		return nil
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "- [" + title + "]" + target + "\n"
	return g.store.Write(indexFile, content)
}

func buildPrompt(docType, code string, includeExamples bool) (system, prompt string) {
	example := func(line string) string {
		if includeExamples {
			return line
		}
		return ""
	}

	switch docType {
	case TypeAPI:
		return "You are a technical documentation expert.", fmt.Sprintf(`Generate comprehensive API documentation for the following code:

%s

Include:
1. Endpoint descriptions
2. Request/Response formats
3. Authentication requirements
4. Error codes
%s

Format as proper markdown with clear sections.`, code, example("5. Usage examples"))

	case TypeComponent:
		return "You are a frontend documentation expert.", fmt.Sprintf(`Generate component documentation for the following code:

%s

Include:
1. Component purpose and description
2. Props/Parameters documentation
3. Methods/Functions description
4. Events/Callbacks
%s

Format as proper markdown.`, code, example("5. Usage examples with code snippets"))

	case TypeArchitecture:
		return "You are a software architecture expert.", fmt.Sprintf(`Generate architecture documentation based on the following code structure:

%s

Include:
1. System overview
2. Component relationships
3. Data flow
4. Design patterns used
5. Scalability considerations

Format as proper markdown with diagrams where appropriate (use mermaid syntax).`, code)

	default:
		return "You are a technical documentation expert.", fmt.Sprintf(`Generate documentation for the following %s code:

%s

Include:
1. Overview and purpose
2. Key functions/classes/methods
3. Dependencies
4. Configuration requirements
%s

Format as proper markdown.`, DetectFileType(code), code, example("5. Usage examples"))
	}
}

// DetectFileType guesses the language family of code from marker substrings.
func DetectFileType(code string) string {
	switch {
	case strings.Contains(code, "import React") || strings.Contains(code, "export default"):
		return "React/TypeScript"
	case strings.Contains(code, "from flask") || strings.Contains(code, "from fastapi"):
		return "Python Web Framework"
	case strings.Contains(code, "package ") && strings.Contains(code, "func "):
		return "Go"
	case strings.Contains(code, "class ") && strings.Contains(code, "def "):
		return "Python"
	case strings.Contains(code, "function ") || strings.Contains(code, "const "):
		return "JavaScript/TypeScript"
	default:
		return "general"
	}
}
