package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
)

var repoURLPattern = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/.]+)`)

// ParseRepoURL extracts owner and repository name from an https or ssh GitHub URL.
func ParseRepoURL(raw string) (string, string, error) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", fmt.Errorf("invalid GitHub URL: %s", raw)
	}
	return m[1], m[2], nil
}

// FileChange is one file in a branch comparison.
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// CommitSummary is one commit in a branch comparison.
type CommitSummary struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Author  string `json:"author"`
}

// Comparison summarizes the difference between two branches.
type Comparison struct {
	FilesChanged int             `json:"filesChanged"`
	Additions    int             `json:"additions"`
	Deletions    int             `json:"deletions"`
	Files        []FileChange    `json:"files"`
	Commits      []CommitSummary `json:"commits"`
}

// PullRequest is the subset of PR fields the agent reads.
type PullRequest struct {
	Number int
	Title  string
	Body   string
}

// Client wraps go-github REST calls, authenticating each call through a TokenSource.
type Client struct {
	tokens     TokenSource
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a client. apiURL is optional and points at a GitHub
// Enterprise or test server API root.
func NewClient(tokens TokenSource, apiURL string) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	c := &Client{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if apiURL != "" {
		u, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
		c.baseURL = u
	}
	return c, nil
}

func (c *Client) rest(ctx context.Context, owner, repo string) (*gh.Client, error) {
	token, err := c.tokens.Token(ctx, owner+"/"+repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get github token: %w", err)
	}
	client := gh.NewClient(c.httpClient).WithAuthToken(token)
	if c.baseURL != nil {
		client.BaseURL = c.baseURL
	}
	return client, nil
}

// CompareBranches compares head against base.
func (c *Client) CompareBranches(ctx context.Context, owner, repo, base, head string) (*Comparison, error) {
	client, err := c.rest(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	cmp, _, err := client.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s: %w", base, head, err)
	}

	out := &Comparison{
		FilesChanged: len(cmp.Files),
		Files:        make([]FileChange, 0, len(cmp.Files)),
		Commits:      make([]CommitSummary, 0, len(cmp.Commits)),
	}
	for _, f := range cmp.Files {
		out.Additions += f.GetAdditions()
		out.Deletions += f.GetDeletions()
		out.Files = append(out.Files, FileChange{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Changes:   f.GetChanges(),
			Patch:     f.GetPatch(),
		})
	}
	for _, commit := range cmp.Commits {
		out.Commits = append(out.Commits, CommitSummary{
			SHA:     commit.GetSHA(),
			Message: commit.GetCommit().GetMessage(),
			Author:  commit.GetCommit().GetAuthor().GetName(),
		})
	}
	return out, nil
}

// GetPullRequest fetches a pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	client, err := c.rest(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	pr, _, err := client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get PR #%d: %w", number, err)
	}
	return &PullRequest{Number: pr.GetNumber(), Title: pr.GetTitle(), Body: pr.GetBody()}, nil
}

// UpdatePullRequestBody replaces a pull request description.
func (c *Client) UpdatePullRequestBody(ctx context.Context, owner, repo string, number int, body string) error {
	client, err := c.rest(ctx, owner, repo)
	if err != nil {
		return err
	}

	if _, _, err := client.PullRequests.Edit(ctx, owner, repo, number, &gh.PullRequest{Body: gh.String(body)}); err != nil {
		return fmt.Errorf("failed to update PR #%d: %w", number, err)
	}
	return nil
}

// AddLabels adds labels to an issue or pull request.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	client, err := c.rest(ctx, owner, repo)
	if err != nil {
		return err
	}

	if _, _, err := client.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels); err != nil {
		return fmt.Errorf("failed to add labels to #%d: %w", number, err)
	}
	return nil
}

// RecentContributors returns distinct commit author logins for the given paths,
// newest first, at most limit entries.
func (c *Client) RecentContributors(ctx context.Context, owner, repo string, paths []string, limit int) ([]string, error) {
	client, err := c.rest(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var logins []string
	for _, p := range paths {
		commits, _, err := client.Repositories.ListCommits(ctx, owner, repo, &gh.CommitsListOptions{
			Path:        p,
			ListOptions: gh.ListOptions{PerPage: 10},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list commits for %s: %w", p, err)
		}
		for _, commit := range commits {
			login := commit.GetAuthor().GetLogin()
			if login == "" || seen[login] {
				continue
			}
			seen[login] = true
			logins = append(logins, login)
			if limit > 0 && len(logins) >= limit {
				return logins, nil
			}
		}
	}
	return logins, nil
}

// CodeOwnersPaths are the locations GitHub reads a CODEOWNERS file from, in order.
var CodeOwnersPaths = []string{".github/CODEOWNERS", "CODEOWNERS", "docs/CODEOWNERS"}

// CodeOwners fetches and parses the repository CODEOWNERS file. A repository
// without one yields an empty rule set.
func (c *Client) CodeOwners(ctx context.Context, owner, repo string) (*CodeOwners, error) {
	client, err := c.rest(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	for _, p := range CodeOwnersPaths {
		file, _, _, err := client.Repositories.GetContents(ctx, owner, repo, p, nil)
		if err != nil {
			var apiErr *gh.ErrorResponse
			if errors.As(err, &apiErr) && apiErr.Response != nil && apiErr.Response.StatusCode == http.StatusNotFound {
				continue
			}
			return nil, fmt.Errorf("failed to fetch %s: %w", p, err)
		}
		if file == nil {
			continue
		}
		content, err := file.GetContent()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", p, err)
		}
		return ParseCodeOwners(content), nil
	}
	return &CodeOwners{}, nil
}
