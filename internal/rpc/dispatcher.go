package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cexll/kanban-mcp/internal/capability"
	"github.com/cexll/kanban-mcp/internal/docs"
	"github.com/cexll/kanban-mcp/internal/github"
	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/pragent"
	"github.com/cexll/kanban-mcp/internal/readme"
)

// Method names a supported RPC method.
type Method string

const (
	MethodAnalyzeCodeChanges    Method = "analyze_code_changes"
	MethodGeneratePRDescription Method = "generate_pr_description"
	MethodSelectReviewers       Method = "select_reviewers"
	MethodAnalyzePRChanges      Method = "analyze_pr_changes"
	MethodGenerateDocumentation Method = "generate_documentation"
	MethodGetReadme             Method = "get_readme"
	MethodUpdateReadme          Method = "update_readme"
	MethodUpdateReadmeSection   Method = "update_readme_section"
	MethodAddReadmeBadge        Method = "add_readme_badge"
	MethodUpdateChangelog       Method = "update_changelog"
	MethodUpdateProjectDocs     Method = "update_project_docs"
)

// Methods lists every supported method.
var Methods = []Method{
	MethodAnalyzeCodeChanges,
	MethodGeneratePRDescription,
	MethodSelectReviewers,
	MethodAnalyzePRChanges,
	MethodGenerateDocumentation,
	MethodGetReadme,
	MethodUpdateReadme,
	MethodUpdateReadmeSection,
	MethodAddReadmeBadge,
	MethodUpdateChangelog,
	MethodUpdateProjectDocs,
}

// PRAgent is the pull request service.
type PRAgent interface {
	AnalyzeChanges(ctx context.Context, changes pragent.Changes) (*pragent.Analysis, error)
	GenerateDescription(ctx context.Context, dc pragent.DescriptionContext) (string, error)
	SelectReviewers(ctx context.Context, repositoryURL string, changes pragent.Changes) []string
	AnalyzePRChanges(ctx context.Context, repositoryURL, branch, baseBranch string) (*github.Comparison, error)
}

// DocGenerator is the documentation service.
type DocGenerator interface {
	Generate(ctx context.Context, req docs.Request) (*docs.Result, error)
	UpdateProjectDocs(ctx context.Context, documentation, prID string) (*docs.UpdateResult, error)
}

// ReadmeUpdater is the README and CHANGELOG service.
type ReadmeUpdater interface {
	GetReadme(ctx context.Context) (string, error)
	Update(ctx context.Context, content string) (*readme.Result, error)
	UpdateSection(ctx context.Context, sectionName, content string) (*readme.Result, error)
	AddBadge(ctx context.Context, badgeType, badgeContent string) (*readme.Result, error)
	UpdateChangelog(ctx context.Context, version string, changes []string) (*readme.Result, error)
}

// ReadmeContent is the get_readme result.
type ReadmeContent struct {
	Content string `json:"content"`
}

// Dispatcher routes methods to services registered in a capability registry.
type Dispatcher struct {
	registry *capability.Registry
	logger   *logging.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(registry *capability.Registry, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{registry: registry, logger: logger.Component("rpc")}
}

// Dispatch decodes params for method, validates them and invokes the service.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, raw json.RawMessage) (any, *Error) {
	start := time.Now()
	result, rpcErr := d.dispatch(ctx, Method(method), raw)
	if rpcErr != nil {
		d.logger.Error("RPC error", "method", method, "code", rpcErr.Code, "error", rpcErr.Message)
		return nil, rpcErr
	}
	d.logger.Debug("RPC call", "method", method, "duration", time.Since(start))
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, method Method, raw json.RawMessage) (any, *Error) {
	switch method {
	case MethodAnalyzeCodeChanges:
		p, perr := decodeParams[AnalyzeCodeChangesParams](raw)
		if perr != nil {
			return nil, perr
		}
		agent, err := capability.Get[PRAgent](d.registry, capability.PRAgent)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(agent.AnalyzeChanges(ctx, p.Changes))

	case MethodGeneratePRDescription:
		p, perr := decodeParams[GeneratePRDescriptionParams](raw)
		if perr != nil {
			return nil, perr
		}
		agent, err := capability.Get[PRAgent](d.registry, capability.PRAgent)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(agent.GenerateDescription(ctx, p.Context))

	case MethodSelectReviewers:
		p, perr := decodeParams[SelectReviewersParams](raw)
		if perr != nil {
			return nil, perr
		}
		agent, err := capability.Get[PRAgent](d.registry, capability.PRAgent)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return agent.SelectReviewers(ctx, p.RepositoryURL, p.Changes), nil

	case MethodAnalyzePRChanges:
		p, perr := decodeParams[AnalyzePRChangesParams](raw)
		if perr != nil {
			return nil, perr
		}
		agent, err := capability.Get[PRAgent](d.registry, capability.PRAgent)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(agent.AnalyzePRChanges(ctx, p.RepositoryURL, p.Branch, p.BaseBranch))

	case MethodGenerateDocumentation:
		p, perr := decodeParams[GenerateDocumentationParams](raw)
		if perr != nil {
			return nil, perr
		}
		gen, err := capability.Get[DocGenerator](d.registry, capability.DocGenerator)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(gen.Generate(ctx, docs.Request{
			Code:            p.Code,
			Type:            p.Type,
			Path:            p.Path,
			IncludeExamples: p.includeExamples(),
		}))

	case MethodUpdateProjectDocs:
		p, perr := decodeParams[UpdateProjectDocsParams](raw)
		if perr != nil {
			return nil, perr
		}
		gen, err := capability.Get[DocGenerator](d.registry, capability.DocGenerator)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(gen.UpdateProjectDocs(ctx, p.Documentation, string(p.PRID)))

	case MethodGetReadme:
		if _, perr := decodeParams[GetReadmeParams](raw); perr != nil {
			return nil, perr
		}
		updater, err := capability.Get[ReadmeUpdater](d.registry, capability.ReadmeUpdater)
		if err != nil {
			return nil, fromServiceError(err)
		}
		content, err := updater.GetReadme(ctx)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return ReadmeContent{Content: content}, nil

	case MethodUpdateReadme:
		p, perr := decodeParams[UpdateReadmeParams](raw)
		if perr != nil {
			return nil, perr
		}
		updater, err := capability.Get[ReadmeUpdater](d.registry, capability.ReadmeUpdater)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(updater.Update(ctx, p.Content))

	case MethodUpdateReadmeSection:
		p, perr := decodeParams[UpdateReadmeSectionParams](raw)
		if perr != nil {
			return nil, perr
		}
		updater, err := capability.Get[ReadmeUpdater](d.registry, capability.ReadmeUpdater)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(updater.UpdateSection(ctx, p.SectionName, p.Content))

	case MethodAddReadmeBadge:
		p, perr := decodeParams[AddReadmeBadgeParams](raw)
		if perr != nil {
			return nil, perr
		}
		updater, err := capability.Get[ReadmeUpdater](d.registry, capability.ReadmeUpdater)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(updater.AddBadge(ctx, p.BadgeType, p.BadgeContent))

	case MethodUpdateChangelog:
		p, perr := decodeParams[UpdateChangelogParams](raw)
		if perr != nil {
			return nil, perr
		}
		updater, err := capability.Get[ReadmeUpdater](d.registry, capability.ReadmeUpdater)
		if err != nil {
			return nil, fromServiceError(err)
		}
		return wrap(updater.UpdateChangelog(ctx, p.Version, p.Changes))

	default:
		return nil, newError(CodeMethodNotFound, "Method not found")
	}
}

func wrap[T any](v T, err error) (any, *Error) {
	if err != nil {
		return nil, fromServiceError(err)
	}
	return v, nil
}
