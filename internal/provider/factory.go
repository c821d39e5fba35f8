package provider

import (
	"fmt"

	"github.com/cexll/kanban-mcp/internal/provider/chat"
)

const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultModel      = "gpt-4"
)

// Config contains provider configuration
type Config struct {
	// Provider name: "openrouter" or "openai"
	Name string

	APIKey  string
	BaseURL string // Optional: overrides the provider default endpoint
	Model   string
	SiteURL string // Optional: sent as HTTP-Referer
}

// NewProvider creates a provider based on configuration
func NewProvider(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config is required")
	}

	var base string
	switch cfg.Name {
	case "openrouter", "":
		base = OpenRouterBaseURL
	case "openai":
		base = OpenAIBaseURL
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openrouter, openai)", cfg.Name)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: OPENROUTER_API_KEY or OPENAI_API_KEY is required", nameOrDefault(cfg.Name))
	}
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &chatProvider{
		name:   nameOrDefault(cfg.Name),
		client: chat.NewClient(cfg.APIKey, base, model, cfg.SiteURL),
	}, nil
}

func nameOrDefault(name string) string {
	if name == "" {
		return "openrouter"
	}
	return name
}
