package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cexll/kanban-mcp/internal/web"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MCP_CONFIG_FILE", "")
	t.Setenv("REPO_PATH", t.TempDir())
	t.Setenv("USE_KEYRING", "false")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_APP_ID", "")
	t.Setenv("GITHUB_PRIVATE_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MCP_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "")
}

func serveCapture(t *testing.T) (http.Handler, string) {
	t.Helper()
	var servedAddr string
	var servedHandler http.Handler

	err := run(context.Background(), func(addr string, handler http.Handler) error {
		servedAddr = addr
		servedHandler = handler
		return nil
	})
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	if servedHandler == nil {
		t.Fatal("serve handler is nil")
	}
	return servedHandler, servedAddr
}

func TestRun_StartsServerWithValidConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "4321")

	handler, addr := serveCapture(t)
	if addr != ":4321" {
		t.Fatalf("serve addr = %q, want :4321", addr)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"readme_updater":"available"`) {
		t.Fatalf("/health body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/ status = %d, want 200", rec.Code)
	}
}

func TestRun_RPCRoute(t *testing.T) {
	setRequiredEnv(t)
	handler, _ := serveCapture(t)

	body := `{"method":"get_readme","params":{},"id":1}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("/rpc status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No README file found") {
		t.Fatalf("/rpc body = %s", rec.Body.String())
	}
}

func TestRun_RPCRequiresAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MCP_API_KEY", "k3y")
	handler, _ := serveCapture(t)

	body := `{"method":"get_readme","id":1}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("/rpc without key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set(web.APIKeyHeader, "k3y")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/rpc with key status = %d, want 200", rec.Code)
	}
}

func TestRun_WebhookRoute(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GITHUB_WEBHOOK_SECRET", "")
	handler, _ := serveCapture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader(`{"zen":"hi"}`))
	req.Header.Set("X-GitHub-Event", "ping")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/webhook/github status = %d, want 200", rec.Code)
	}
}

func TestRun_ReturnsErrorWhenServeFails(t *testing.T) {
	setRequiredEnv(t)

	expected := errors.New("listen failed")
	err := run(context.Background(), func(string, http.Handler) error {
		return expected
	})
	if !errors.Is(err, expected) {
		t.Fatalf("run() error = %v, want to wrap %v", err, expected)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_PROVIDER", "unknown")

	err := run(context.Background(), func(string, http.Handler) error {
		t.Fatal("serve should not be called when configuration fails")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "failed to load configuration") {
		t.Fatalf("run() error = %v, want configuration failure", err)
	}
}

func TestRun_WebHandlerError(t *testing.T) {
	setRequiredEnv(t)

	prevWebHandler := newWebHandler
	defer func() { newWebHandler = prevWebHandler }()
	newWebHandler = func(web.StatusSource, []string) (*web.Handler, error) {
		return nil, errors.New("inject failure")
	}

	err := run(context.Background(), func(string, http.Handler) error {
		t.Fatal("serve should not be called on web handler failure")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "failed to initialize web handler") {
		t.Fatalf("error = %v, want web handler failure", err)
	}
}
