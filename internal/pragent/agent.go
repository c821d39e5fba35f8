package pragent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cexll/kanban-mcp/internal/capability"
	"github.com/cexll/kanban-mcp/internal/github"
	"github.com/cexll/kanban-mcp/internal/logging"
	"github.com/cexll/kanban-mcp/internal/provider"
	"github.com/cexll/kanban-mcp/internal/provider/chat"
)

const (
	DefaultBaseBranch = "main"
	MaxReviewers      = 3

	// PR bodies shorter than this are replaced with a generated description.
	minBodyLength = 50

	descriptionSystem = "You are a helpful assistant that generates clear, comprehensive pull request descriptions."
)

// GitHub is the subset of the GitHub client the agent uses.
type GitHub interface {
	CompareBranches(ctx context.Context, owner, repo, base, head string) (*github.Comparison, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	UpdatePullRequestBody(ctx context.Context, owner, repo string, number int, body string) error
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error
	RecentContributors(ctx context.Context, owner, repo string, paths []string, limit int) ([]string, error)
	CodeOwners(ctx context.Context, owner, repo string) (*github.CodeOwners, error)
}

// Task is the optional work item a pull request belongs to.
type Task struct {
	Title string `json:"title"`
}

// DescriptionContext is the input for GenerateDescription.
type DescriptionContext struct {
	Title   string `json:"title,omitempty"`
	Branch  string `json:"branch,omitempty"`
	Task    *Task  `json:"task,omitempty"`
	Changes any    `json:"changes,omitempty"`
}

// PullRequestEvent carries the fields of a newly opened pull request.
type PullRequestEvent struct {
	Number       int
	Title        string
	RepoFullName string
	RepoHTMLURL  string
	HeadRef      string
	BaseRef      string
}

// Agent assists with pull requests. GitHub and the LLM are optional; methods
// that need a missing one return an error wrapping capability.ErrUnavailable.
type Agent struct {
	gh     GitHub
	llm    provider.Provider
	logger *logging.Logger
}

// NewAgent creates an agent. gh and llm may be nil.
func NewAgent(gh GitHub, llm provider.Provider, logger *logging.Logger) *Agent {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Agent{gh: gh, llm: llm, logger: logger.Component("pr_agent")}
}

// AnalyzeChanges runs the heuristic analysis on changes.
func (a *Agent) AnalyzeChanges(ctx context.Context, changes Changes) (*Analysis, error) {
	return AnalyzeChanges(changes), nil
}

// GenerateDescription asks the LLM for a markdown PR description.
func (a *Agent) GenerateDescription(ctx context.Context, dc DescriptionContext) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("%s: %w", capability.LLM, capability.ErrUnavailable)
	}

	prompt, err := descriptionPrompt(dc)
	if err != nil {
		return "", err
	}
	desc, err := a.llm.Complete(ctx, &chat.Request{
		Prompt:      prompt,
		System:      descriptionSystem,
		Temperature: chat.Temperature(0.7),
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("error generating PR description: %w", err)
	}
	return desc, nil
}

// SelectReviewers suggests up to MaxReviewers from CODEOWNERS rules and recent
// contributors of the changed files. Lookup failures yield an empty list.
func (a *Agent) SelectReviewers(ctx context.Context, repositoryURL string, changes Changes) []string {
	reviewers := []string{}
	if a.gh == nil || repositoryURL == "" || len(changes.Files) == 0 {
		return reviewers
	}

	owner, repo, err := github.ParseRepoURL(repositoryURL)
	if err != nil {
		a.logger.Error("Error selecting reviewers", "error", err)
		return reviewers
	}

	paths := make([]string, 0, len(changes.Files))
	for _, f := range changes.Files {
		paths = append(paths, f.Filename)
	}

	seen := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			if len(reviewers) == MaxReviewers {
				return
			}
			if n != "" && !seen[n] {
				seen[n] = true
				reviewers = append(reviewers, n)
			}
		}
	}

	owners, err := a.gh.CodeOwners(ctx, owner, repo)
	if err != nil {
		a.logger.Error("Error selecting reviewers", "error", err)
		return []string{}
	}
	for _, p := range paths {
		add(owners.OwnersFor(p)...)
	}

	if len(reviewers) < MaxReviewers {
		contributors, err := a.gh.RecentContributors(ctx, owner, repo, paths, MaxReviewers*2)
		if err != nil {
			a.logger.Error("Error selecting reviewers", "error", err)
			return []string{}
		}
		add(contributors...)
	}
	return reviewers
}

// AnalyzePRChanges compares branch against baseBranch (default "main").
func (a *Agent) AnalyzePRChanges(ctx context.Context, repositoryURL, branch, baseBranch string) (*github.Comparison, error) {
	if a.gh == nil {
		return nil, fmt.Errorf("%s: %w", capability.GitHub, capability.ErrUnavailable)
	}
	owner, repo, err := github.ParseRepoURL(repositoryURL)
	if err != nil {
		return nil, err
	}
	if baseBranch == "" {
		baseBranch = DefaultBaseBranch
	}

	cmp, err := a.gh.CompareBranches(ctx, owner, repo, baseBranch, branch)
	if err != nil {
		return nil, fmt.Errorf("error analyzing PR changes: %w", err)
	}
	return cmp, nil
}

// ProcessNewPR fills in a missing or short description and applies suggested labels.
func (a *Agent) ProcessNewPR(ctx context.Context, ev PullRequestEvent) error {
	if a.gh == nil {
		return fmt.Errorf("%s: %w", capability.GitHub, capability.ErrUnavailable)
	}
	owner, repo, err := github.ParseRepoURL("github.com/" + ev.RepoFullName)
	if err != nil {
		return err
	}
	log := a.logger.With("repo", ev.RepoFullName, "pr", ev.Number)

	pr, err := a.gh.GetPullRequest(ctx, owner, repo, ev.Number)
	if err != nil {
		return err
	}

	if len(pr.Body) < minBodyLength && a.llm != nil {
		changes, err := a.AnalyzePRChanges(ctx, ev.RepoHTMLURL, ev.HeadRef, ev.BaseRef)
		if err != nil {
			return err
		}
		desc, err := a.GenerateDescription(ctx, DescriptionContext{
			Title:   pr.Title,
			Branch:  ev.HeadRef,
			Changes: changes,
		})
		if err != nil {
			return err
		}
		if err := a.gh.UpdatePullRequestBody(ctx, owner, repo, ev.Number, desc); err != nil {
			return err
		}
		log.Info("Generated PR description")
	}

	if labels := SuggestLabels(ev.Title); len(labels) > 0 {
		if err := a.gh.AddLabels(ctx, owner, repo, ev.Number, labels); err != nil {
			return err
		}
		log.Info("Labeled PR", "labels", labels)
	}
	return nil
}

func descriptionPrompt(dc DescriptionContext) (string, error) {
	changes := dc.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	summary, err := json.MarshalIndent(changes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode changes: %w", err)
	}

	task := "N/A"
	if dc.Task != nil && dc.Task.Title != "" {
		task = dc.Task.Title
	}

	return fmt.Sprintf(`Generate a comprehensive pull request description for the following:

Title: %s
Branch: %s
Task: %s

Changes Summary:
%s

Please include:
1. ## Summary - Brief overview of changes
2. ## Changes - Detailed list of modifications
3. ## Testing - How the changes were tested
4. ## Impact - Potential impact on existing functionality
5. ## Checklist - Standard PR checklist items

Format as proper markdown.`, orNA(dc.Title), orNA(dc.Branch), task, summary), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
