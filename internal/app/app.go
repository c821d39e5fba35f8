// Package app assembles the services from configuration.
package app

import (
	"fmt"
	"io"

	"github.com/cexll/kanban-mcp/internal/capability"
	"github.com/cexll/kanban-mcp/internal/config"
	"github.com/cexll/kanban-mcp/internal/docs"
	"github.com/cexll/kanban-mcp/internal/github"
	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/pragent"
	"github.com/cexll/kanban-mcp/internal/provider"
	"github.com/cexll/kanban-mcp/internal/readme"
	"github.com/cexll/kanban-mcp/internal/rpc"
	"github.com/cexll/kanban-mcp/internal/store"
	"github.com/cexll/kanban-mcp/internal/vcs"
)

var (
	newProvider     = provider.NewProvider
	newGitHubClient = github.NewClient
)

// App holds the wired services.
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Registry   *capability.Registry
	Dispatcher *rpc.Dispatcher
	Agent      *pragent.Agent
}

// New builds the logger from cfg, writing to w (stderr when nil), and wires
// every service.
func New(cfg *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(w, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return Build(cfg, logger)
}

// Build wires every service with an existing logger. Missing optional
// integrations are recorded in the registry rather than failing startup.
func Build(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	registry := capability.NewRegistry()

	var ghClient pragent.GitHub
	if cfg.HasGitHubAuth() {
		client, err := newGitHubClient(tokenSource(cfg), cfg.GitHubAPIURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client: %w", err)
		}
		registry.Register(capability.GitHub, client)
		ghClient = client
	} else {
		registry.MarkAbsent(capability.GitHub, "GITHUB_TOKEN or GITHUB_APP_ID not set")
	}

	var llm provider.Provider
	if cfg.HasLLM() {
		p, err := newProvider(&provider.Config{
			Name:    cfg.LLMProvider,
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			SiteURL: cfg.LLMSiteURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
		}
		registry.Register(capability.LLM, p)
		llm = p
		logger.Info("LLM provider configured", "provider", p.Name(), "model", cfg.LLMModel)
	} else {
		registry.MarkAbsent(capability.LLM, "OPENROUTER_API_KEY or OPENAI_API_KEY not set")
	}

	docStore := store.NewDocumentStore(cfg.RepoPath)

	var committer readme.Committer
	switch c := vcs.NewCommitter(cfg.RepoPath, vcs.Author{Name: cfg.GitAuthorName, Email: cfg.GitAuthorMail}); {
	case !cfg.AutoCommit:
		registry.MarkAbsent(capability.Git, "GIT_AUTO_COMMIT disabled")
	case !c.IsRepo():
		registry.MarkAbsent(capability.Git, fmt.Sprintf("%s is not a git repository", cfg.RepoPath))
	default:
		registry.Register(capability.Git, c)
		committer = c
	}

	agent := pragent.NewAgent(ghClient, llm, logger)
	registry.Register(capability.PRAgent, agent)

	if llm != nil {
		registry.Register(capability.DocGenerator, docs.NewGenerator(llm, docStore, logger))
	} else {
		registry.MarkAbsent(capability.DocGenerator, "requires an LLM provider")
	}

	registry.Register(capability.ReadmeUpdater, readme.NewUpdater(docStore, committer, logger))

	logger.Info("Services initialized", "repo_path", cfg.RepoPath, "services", registry.Status())

	return &App{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Dispatcher: rpc.NewDispatcher(registry, logger),
		Agent:      agent,
	}, nil
}

// tokenSource prefers a personal token over App credentials.
func tokenSource(cfg *config.Config) github.TokenSource {
	if cfg.GitHubToken != "" {
		return github.StaticToken(cfg.GitHubToken)
	}
	return github.NewAppAuth(cfg.GitHubAppID, cfg.GitHubPrivateKey, cfg.GitHubAPIURL)
}
