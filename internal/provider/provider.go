package provider

import (
	"context"

	"github.com/cexll/kanban-mcp/internal/provider/chat"
)

// Provider is the interface that all LLM backends must implement
type Provider interface {
	// Complete returns the model's reply to a single prompt
	Complete(ctx context.Context, req *chat.Request) (string, error)

	// Name returns the provider name
	Name() string
}

type chatProvider struct {
	name   string
	client *chat.Client
}

func (p *chatProvider) Complete(ctx context.Context, req *chat.Request) (string, error) {
	return p.client.Complete(ctx, req)
}

func (p *chatProvider) Name() string {
	return p.name
}
