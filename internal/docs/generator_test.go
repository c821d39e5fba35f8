package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/provider/chat"
	"github.com/cexll/kanban-mcp/internal/store"
)

type fakeLLM struct {
	reply string
	err   error
	last  *chat.Request
}

func (f *fakeLLM) Complete(_ context.Context, req *chat.Request) (string, error) {
	f.last = req
	return f.reply, f.err
}

func (f *fakeLLM) Name() string { return "fake" }

func newGenerator(t *testing.T, llm *fakeLLM) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	g := NewGenerator(llm, store.NewDocumentStore(dir), logging.Nop())
	g.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }
	return g, dir
}

func TestGenerate_ByType(t *testing.T) {
	tests := []struct {
		docType      string
		examples     bool
		wantSystem   string
		wantInPrompt string
		notInPrompt  string
	}{
		{docType: TypeAPI, examples: true, wantSystem: "You are a technical documentation expert.", wantInPrompt: "5. Usage examples"},
		{docType: TypeAPI, examples: false, wantSystem: "You are a technical documentation expert.", wantInPrompt: "4. Error codes", notInPrompt: "Usage examples"},
		{docType: TypeComponent, examples: true, wantSystem: "You are a frontend documentation expert.", wantInPrompt: "5. Usage examples with code snippets"},
		{docType: TypeArchitecture, wantSystem: "You are a software architecture expert.", wantInPrompt: "mermaid"},
		{docType: "unknown", examples: true, wantSystem: "You are a technical documentation expert.", wantInPrompt: "following JavaScript/TypeScript code"},
	}

	for _, tt := range tests {
		t.Run(tt.docType, func(t *testing.T) {
			llm := &fakeLLM{reply: "# Docs"}
			g, _ := newGenerator(t, llm)

			res, err := g.Generate(context.Background(), Request{Code: "const x = 1", Type: tt.docType, IncludeExamples: tt.examples})
			require.NoError(t, err)

			assert.Equal(t, "# Docs", res.Documentation)
			assert.Equal(t, tt.docType, res.Metadata.Type)
			assert.Equal(t, "2024-05-01T08:30:00Z", res.Metadata.Timestamp)
			require.NotNil(t, res.Metadata.IncludesExamples)
			assert.Equal(t, tt.examples, *res.Metadata.IncludesExamples)

			require.NotNil(t, llm.last)
			assert.Equal(t, tt.wantSystem, llm.last.System)
			assert.Contains(t, llm.last.Prompt, "const x = 1")
			assert.Contains(t, llm.last.Prompt, tt.wantInPrompt)
			if tt.notInPrompt != "" {
				assert.NotContains(t, llm.last.Prompt, tt.notInPrompt)
			}
			assert.Equal(t, 0.3, *llm.last.Temperature)
			assert.Equal(t, 2000, llm.last.MaxTokens)
		})
	}
}

func TestGenerate_DefaultTypeIsGeneral(t *testing.T) {
	g, _ := newGenerator(t, &fakeLLM{reply: "ok"})
	res, err := g.Generate(context.Background(), Request{Code: "x"})
	require.NoError(t, err)
	assert.Equal(t, TypeGeneral, res.Metadata.Type)
}

func TestGenerate_FromPath(t *testing.T) {
	llm := &fakeLLM{reply: "docs"}
	g, dir := newGenerator(t, llm)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "app.py"), []byte("from flask import Flask"), 0o644))

	_, err := g.Generate(context.Background(), Request{Path: "src/app.py", Code: "ignored"})
	require.NoError(t, err)
	assert.Contains(t, llm.last.Prompt, "from flask import Flask")
	assert.Contains(t, llm.last.Prompt, "Python Web Framework")
	assert.NotContains(t, llm.last.Prompt, "ignored")
}

func TestGenerate_NoCode(t *testing.T) {
	llm := &fakeLLM{}
	g, _ := newGenerator(t, llm)

	res, err := g.Generate(context.Background(), Request{Path: "missing.go"})
	require.NoError(t, err)
	assert.Equal(t, "", res.Documentation)
	assert.Equal(t, Metadata{Error: NoCodeError}, res.Metadata)
	assert.Nil(t, llm.last)

	_, err = g.Generate(context.Background(), Request{Path: "../escape.go"})
	assert.Error(t, err)
}

func TestGenerate_LLMError(t *testing.T) {
	g, _ := newGenerator(t, &fakeLLM{err: errors.New("quota")})
	_, err := g.Generate(context.Background(), Request{Code: "x"})
	assert.ErrorContains(t, err, "quota")
}

func TestDetectFileType(t *testing.T) {
	tests := map[string]string{
		"import React from 'react'":    "React/TypeScript",
		"export default App":           "React/TypeScript",
		"from fastapi import FastAPI":  "Python Web Framework",
		"package main\nfunc main() {}": "Go",
		"class A:\n  def f(self): ...": "Python",
		"function f() {}":              "JavaScript/TypeScript",
		"SELECT 1":                     "general",
	}
	for code, want := range tests {
		assert.Equal(t, want, DetectFileType(code), code)
	}
}

func TestUpdateProjectDocs(t *testing.T) {
	g, dir := newGenerator(t, &fakeLLM{})

	res, err := g.UpdateProjectDocs(context.Background(), "# PR docs\n", "42")
	require.NoError(t, err)
	assert.Equal(t, &UpdateResult{Status: "success", Path: "docs/pr_42_docs.md", Message: "Documentation updated successfully"}, res)

	data, err := os.ReadFile(filepath.Join(dir, "docs", "pr_42_docs.md"))
	require.NoError(t, err)
	assert.Equal(t, "# PR docs\n", string(data))

	index, err := os.ReadFile(filepath.Join(dir, "docs", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, indexTemplate+"- [pr_42_docs.md](./pr_42_docs.md)\n", string(index))

	// Same file again does not duplicate the link.
	_, err = g.UpdateProjectDocs(context.Background(), "# PR docs v2\n", "42")
	require.NoError(t, err)
	index, err = os.ReadFile(filepath.Join(dir, "docs", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, indexTemplate+"- [pr_42_docs.md](./pr_42_docs.md)\n", string(index))
}

func TestUpdateProjectDocs_TimestampedWithTitle(t *testing.T) {
	g, dir := newGenerator(t, &fakeLLM{})

	doc := "---\ntitle: Payment API\n---\n# Payments\n"
	res, err := g.UpdateProjectDocs(context.Background(), doc, "")
	require.NoError(t, err)
	assert.Equal(t, "docs/generated_docs_20240501T083000Z.md", res.Path)

	index, err := os.ReadFile(filepath.Join(dir, "docs", "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "- [Payment API](./generated_docs_20240501T083000Z.md)\n")
}

func TestLinkTitle(t *testing.T) {
	assert.Equal(t, "Guide", linkTitle("---\ntitle: Guide\n---\nbody", "f.md"))
	assert.Equal(t, "f.md", linkTitle("# No frontmatter", "f.md"))
	assert.Equal(t, "f.md", linkTitle("---\nauthor: x\n---\nbody", "f.md"))
	assert.Equal(t, "f.md", linkTitle("---\ntitle: [unclosed\n---\n", "f.md"))
}
