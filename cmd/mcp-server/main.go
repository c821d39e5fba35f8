package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/kanban-mcp/internal/app"
	"github.com/cexll/kanban-mcp/internal/config"
	"github.com/cexll/kanban-mcp/internal/mcpserver"
)

var (
	loadConfig = config.Load
	newApp     = app.New
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP Server] %v", err)
	}
}

// run serves MCP over transport until ctx is done or the client disconnects.
// Logs go to stderr because stdout carries the protocol.
func run(ctx context.Context, transport mcp.Transport) error {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := newApp(cfg, os.Stderr)
	if err != nil {
		return err
	}

	server := mcpserver.New(a.Dispatcher, a.Logger)
	a.Logger.Info("Starting MCP server on stdio", "name", mcpserver.ServerName, "version", mcpserver.ServerVersion)

	if err := server.Run(ctx, transport); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	a.Logger.Info("MCP server stopped")
	return nil
}
