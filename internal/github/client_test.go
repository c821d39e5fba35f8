package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(StaticToken("ghp_test"), srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url       string
		owner     string
		repo      string
		shouldErr bool
	}{
		{url: "https://github.com/acme/widgets", owner: "acme", repo: "widgets"},
		{url: "https://github.com/acme/widgets.git", owner: "acme", repo: "widgets"},
		{url: "git@github.com:acme/widgets.git", owner: "acme", repo: "widgets"},
		{url: "https://gitlab.com/acme/widgets", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.url)
			if tt.shouldErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if owner != tt.owner || repo != tt.repo {
				t.Errorf("got %s/%s, want %s/%s", owner, repo, tt.owner, tt.repo)
			}
		})
	}
}

func TestCompareBranches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/compare/main...feature", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]any{
				{"filename": "api/server.go", "status": "modified", "additions": 10, "deletions": 2, "changes": 12, "patch": "@@"},
				{"filename": "README.md", "status": "added", "additions": 5, "deletions": 0, "changes": 5},
			},
			"commits": []map[string]any{
				{"sha": "abc123", "commit": map[string]any{"message": "feat: add api", "author": map[string]any{"name": "Dev"}}},
			},
		})
	})
	c := newTestClient(t, mux)

	cmp, err := c.CompareBranches(context.Background(), "o", "r", "main", "feature")
	if err != nil {
		t.Fatalf("CompareBranches: %v", err)
	}
	if cmp.FilesChanged != 2 || cmp.Additions != 15 || cmp.Deletions != 2 {
		t.Errorf("totals = %d files, +%d -%d", cmp.FilesChanged, cmp.Additions, cmp.Deletions)
	}
	if cmp.Files[0].Patch != "@@" || cmp.Files[1].Status != "added" {
		t.Errorf("files = %+v", cmp.Files)
	}
	want := []CommitSummary{{SHA: "abc123", Message: "feat: add api", Author: "Dev"}}
	if !reflect.DeepEqual(cmp.Commits, want) {
		t.Errorf("commits = %+v, want %+v", cmp.Commits, want)
	}
}

func TestPullRequestOperations(t *testing.T) {
	var editedBody string
	var labels []string

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			editedBody, _ = body["body"].(string)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 7, "title": "fix: crash", "body": "short"})
	})
	mux.HandleFunc("/repos/o/r/issues/7/labels", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &labels)
		_, _ = w.Write([]byte(`[]`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	pr, err := c.GetPullRequest(ctx, "o", "r", 7)
	if err != nil {
		t.Fatalf("GetPullRequest: %v", err)
	}
	if pr.Title != "fix: crash" || pr.Body != "short" {
		t.Errorf("pr = %+v", pr)
	}

	if err := c.UpdatePullRequestBody(ctx, "o", "r", 7, "## Summary"); err != nil {
		t.Fatalf("UpdatePullRequestBody: %v", err)
	}
	if editedBody != "## Summary" {
		t.Errorf("edited body = %q", editedBody)
	}

	if err := c.AddLabels(ctx, "o", "r", 7, []string{"bug"}); err != nil {
		t.Fatalf("AddLabels: %v", err)
	}
	if !reflect.DeepEqual(labels, []string{"bug"}) {
		t.Errorf("labels = %v", labels)
	}
}

func TestAddLabels_EmptyIsNoop(t *testing.T) {
	c, err := NewClient(StaticToken("x"), "http://127.0.0.1:1")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddLabels(context.Background(), "o", "r", 1, nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestRecentContributors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/commits", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("path") {
		case "a.go":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"sha": "1", "author": map[string]any{"login": "alice"}},
				{"sha": "2", "author": map[string]any{"login": "bob"}},
				{"sha": "3"},
			})
		case "b.go":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"sha": "4", "author": map[string]any{"login": "alice"}},
				{"sha": "5", "author": map[string]any{"login": "carol"}},
			})
		default:
			t.Errorf("unexpected path query %q", r.URL.RawQuery)
		}
	})
	c := newTestClient(t, mux)

	got, err := c.RecentContributors(context.Background(), "o", "r", []string{"a.go", "b.go"}, 0)
	if err != nil {
		t.Fatalf("RecentContributors: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"alice", "bob", "carol"}) {
		t.Errorf("contributors = %v", got)
	}

	got, err = c.RecentContributors(context.Background(), "o", "r", []string{"a.go", "b.go"}, 1)
	if err != nil || !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("limited contributors = %v, %v", got, err)
	}
}

func TestCodeOwners_FallsThroughLocations(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("* @org/core\ndocs/ @writer\n"))

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/contents/.github/CODEOWNERS", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/repos/o/r/contents/CODEOWNERS", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type": "file", "encoding": "base64", "path": "CODEOWNERS", "content": content,
		})
	})
	c := newTestClient(t, mux)

	co, err := c.CodeOwners(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("CodeOwners: %v", err)
	}
	if co.Len() != 2 {
		t.Fatalf("rules = %d, want 2", co.Len())
	}
	if got := co.OwnersFor("docs/guide.md"); !reflect.DeepEqual(got, []string{"writer"}) {
		t.Errorf("docs owners = %v", got)
	}
}

func TestCodeOwners_Missing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	c := newTestClient(t, mux)

	co, err := c.CodeOwners(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("CodeOwners: %v", err)
	}
	if co.Len() != 0 {
		t.Errorf("expected empty rule set, got %d", co.Len())
	}
}

func TestCodeOwners_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	if _, err := c.CodeOwners(context.Background(), "o", "r"); err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected 500 error, got %v", err)
	}
}
