package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/cexll/kanban-mcp/internal/app"
	"github.com/cexll/kanban-mcp/internal/config"
	"github.com/cexll/kanban-mcp/internal/rpc"
	"github.com/cexll/kanban-mcp/internal/web"
	"github.com/cexll/kanban-mcp/internal/webhook"
)

var (
	loadDotEnv         = godotenv.Load
	loadConfig         = config.Load
	newApp             = app.New
	newWebHandler      = web.NewHandler
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(context.Background(), defaultListenServe); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := newApp(cfg, nil)
	if err != nil {
		return err
	}
	logger := a.Logger

	methods := make([]string, len(rpc.Methods))
	for i, m := range rpc.Methods {
		methods[i] = string(m)
	}
	webHandler, err := newWebHandler(a.Registry, methods)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}

	hook := webhook.NewHandler(cfg.GitHubWebhookSecret, a.Agent, logger)

	r := mux.NewRouter()
	r.Handle("/rpc", web.RequireAPIKey(cfg.APIKey)(rpc.NewHandler(a.Dispatcher))).Methods(http.MethodPost)
	r.HandleFunc("/webhook/github", hook.Handle).Methods(http.MethodPost)
	webHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting MCP server", "addr", addr, "repo_path", cfg.RepoPath, "config", cfg.Source)
	logger.Info("Endpoints",
		"rpc", "http://localhost"+addr+"/rpc",
		"webhook", "http://localhost"+addr+"/webhook/github",
		"health", "http://localhost"+addr+"/health")
	if cfg.APIKey == "" {
		logger.Warn("MCP_API_KEY not set, /rpc is unauthenticated")
	}

	if err := serve(addr, web.CORS(r)); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
