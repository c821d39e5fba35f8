// Package mcpserver exposes the RPC methods as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/rpc"
)

const (
	ServerName    = "kanban-mcp"
	ServerVersion = "v1.0.0"
)

// Dispatcher executes a named method with raw JSON params.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, raw json.RawMessage) (any, *rpc.Error)
}

var descriptions = map[rpc.Method]string{
	rpc.MethodAnalyzeCodeChanges:    "Summarize a set of changed files and estimate review impact",
	rpc.MethodGeneratePRDescription: "Generate a pull request description from its title, branch and changes",
	rpc.MethodSelectReviewers:       "Suggest up to three reviewers from CODEOWNERS and recent contributors",
	rpc.MethodAnalyzePRChanges:      "Compare a branch with its base branch on GitHub",
	rpc.MethodGenerateDocumentation: "Generate markdown documentation for a file or code snippet",
	rpc.MethodGetReadme:             "Return the current README.md",
	rpc.MethodUpdateReadme:          "Replace README.md with new content",
	rpc.MethodUpdateReadmeSection:   "Replace or append a named section of README.md",
	rpc.MethodAddReadmeBadge:        "Insert a badge line into README.md",
	rpc.MethodUpdateChangelog:       "Add a versioned entry to CHANGELOG.md",
	rpc.MethodUpdateProjectDocs:     "Write generated documentation under docs/ and link it from the index",
}

// New creates an MCP server with one tool per RPC method.
func New(d Dispatcher, logger *logging.Logger) *mcp.Server {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Component("mcp")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	addTool[rpc.AnalyzeCodeChangesParams](server, d, logger, rpc.MethodAnalyzeCodeChanges)
	addTool[rpc.GeneratePRDescriptionParams](server, d, logger, rpc.MethodGeneratePRDescription)
	addTool[rpc.SelectReviewersParams](server, d, logger, rpc.MethodSelectReviewers)
	addTool[rpc.AnalyzePRChangesParams](server, d, logger, rpc.MethodAnalyzePRChanges)
	addTool[rpc.GenerateDocumentationParams](server, d, logger, rpc.MethodGenerateDocumentation)
	addTool[rpc.GetReadmeParams](server, d, logger, rpc.MethodGetReadme)
	addTool[rpc.UpdateReadmeParams](server, d, logger, rpc.MethodUpdateReadme)
	addTool[rpc.UpdateReadmeSectionParams](server, d, logger, rpc.MethodUpdateReadmeSection)
	addTool[rpc.AddReadmeBadgeParams](server, d, logger, rpc.MethodAddReadmeBadge)
	addTool[rpc.UpdateChangelogParams](server, d, logger, rpc.MethodUpdateChangelog)
	addTool[rpc.UpdateProjectDocsParams](server, d, logger, rpc.MethodUpdateProjectDocs)

	return server
}

func addTool[In any](server *mcp.Server, d Dispatcher, logger *logging.Logger, method rpc.Method) {
	tool := &mcp.Tool{
		Name:        string(method),
		Description: descriptions[method],
	}
	mcp.AddTool(server, tool, toolHandler[In](d, logger, method))
	logger.Debug("Registered tool", "tool", method)
}

// toolHandler forwards tool input to the dispatcher so that MCP and HTTP
// callers share validation.
func toolHandler[In any](d Dispatcher, logger *logging.Logger, method rpc.Method) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s input: %w", method, err)
		}

		result, rpcErr := d.Dispatch(ctx, string(method), raw)
		if rpcErr != nil {
			logger.Warn("Tool call failed", "tool", method, "code", rpcErr.Code, "error", rpcErr.Message)
			return errorResult(rpcErr), nil, nil
		}

		text, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s result: %w", method, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		}, nil, nil
	}
}

func errorResult(e *rpc.Error) *mcp.CallToolResult {
	text := fmt.Sprintf("Error: %s", e.Message)
	if e.Data != nil {
		text = fmt.Sprintf("Error: %s: %v", e.Message, e.Data)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
