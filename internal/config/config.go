package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the config directory and the keyring service.
const AppName = "kanban-mcp"

// Config holds all configuration for the MCP server. It is built once at
// process start and handed to every collaborator.
type Config struct {
	// Server settings
	Port   int
	APIKey string // X-API-Key expected on /rpc; empty disables the check

	// Repository whose README/CHANGELOG/docs are maintained
	RepoPath      string
	AutoCommit    bool
	GitAuthorName string
	GitAuthorMail string

	// GitHub settings: a token, or App credentials
	GitHubToken         string
	GitHubAppID         string
	GitHubPrivateKey    string
	GitHubWebhookSecret string
	GitHubAPIURL        string // Optional: GitHub Enterprise API endpoint

	// LLM settings (OpenAI-compatible endpoint, OpenRouter by default)
	LLMProvider string // "openrouter" or "openai"
	LLMAPIKey   string
	LLMBaseURL  string // Optional: overrides the provider default endpoint
	LLMModel    string
	LLMSiteURL  string

	// Logging
	LogLevel  string
	LogFormat string

	// UseKeyring enables the OS credential store fallback for GitHubToken
	UseKeyring bool

	// Source is the YAML file that was applied, if any
	Source string
}

// fileConfig mirrors the optional YAML config file.
type fileConfig struct {
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	RepoPath   string `yaml:"repo_path"`
	AutoCommit *bool  `yaml:"auto_commit"`
	Git        struct {
		AuthorName  string `yaml:"author_name"`
		AuthorEmail string `yaml:"author_email"`
	} `yaml:"git"`
	GitHub struct {
		Token         string `yaml:"token"`
		AppID         string `yaml:"app_id"`
		PrivateKey    string `yaml:"private_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		APIURL        string `yaml:"api_url"`
	} `yaml:"github"`
	LLM struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
		SiteURL  string `yaml:"site_url"`
	} `yaml:"llm"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	UseKeyring *bool `yaml:"use_keyring"`
}

// credentials backs the keyring fallback; replaced in tests.
var credentials TokenStore = NewCredentialStore()

// Default returns the configuration used before any source is applied.
func Default() *Config {
	return &Config{
		Port:          8000,
		RepoPath:      "/app/repos",
		AutoCommit:    true,
		GitAuthorName: "MCP Server",
		GitAuthorMail: "mcp-server@localhost",
		LLMProvider:   "openrouter",
		LLMModel:      "gpt-4",
		LogLevel:      "info",
		LogFormat:     "text",
		UseKeyring:    true,
	}
}

// FilePath returns the config file location: MCP_CONFIG_FILE, or
// $XDG_CONFIG_HOME/kanban-mcp/config.yaml.
func FilePath() string {
	if path := os.Getenv("MCP_CONFIG_FILE"); path != "" {
		return path
	}
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load loads configuration from the config file (when present) and then from
// environment variables, which take precedence.
func Load() (*Config, error) {
	return LoadFrom(FilePath())
}

// LoadFrom is Load with an explicit config file path. A missing file is not an
// error unless it was requested through MCP_CONFIG_FILE.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) || os.Getenv("MCP_CONFIG_FILE") != "" {
				return nil, err
			}
		}
	}

	cfg.applyEnv()

	if cfg.GitHubToken == "" && cfg.GitHubAppID == "" && cfg.UseKeyring {
		cfg.GitHubToken = lookupKeyringToken()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setInt(&c.Port, fc.Port)
	setString(&c.APIKey, fc.APIKey)
	setString(&c.RepoPath, fc.RepoPath)
	if fc.AutoCommit != nil {
		c.AutoCommit = *fc.AutoCommit
	}
	setString(&c.GitAuthorName, fc.Git.AuthorName)
	setString(&c.GitAuthorMail, fc.Git.AuthorEmail)
	setString(&c.GitHubToken, fc.GitHub.Token)
	setString(&c.GitHubAppID, fc.GitHub.AppID)
	setString(&c.GitHubPrivateKey, normalizePrivateKey(fc.GitHub.PrivateKey))
	setString(&c.GitHubWebhookSecret, fc.GitHub.WebhookSecret)
	setString(&c.GitHubAPIURL, fc.GitHub.APIURL)
	setString(&c.LLMProvider, fc.LLM.Provider)
	setString(&c.LLMAPIKey, fc.LLM.APIKey)
	setString(&c.LLMBaseURL, fc.LLM.BaseURL)
	setString(&c.LLMModel, fc.LLM.Model)
	setString(&c.LLMSiteURL, fc.LLM.SiteURL)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	if fc.UseKeyring != nil {
		c.UseKeyring = *fc.UseKeyring
	}

	c.Source = path
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvInt("PORT", c.Port)
	c.APIKey = getEnv("MCP_API_KEY", c.APIKey)
	c.RepoPath = getEnv("REPO_PATH", c.RepoPath)
	c.AutoCommit = getEnvBool("GIT_AUTO_COMMIT", c.AutoCommit)
	c.GitAuthorName = getEnv("GIT_AUTHOR_NAME", c.GitAuthorName)
	c.GitAuthorMail = getEnv("GIT_AUTHOR_EMAIL", c.GitAuthorMail)
	c.GitHubToken = getEnv("GITHUB_TOKEN", c.GitHubToken)
	c.GitHubAppID = getEnv("GITHUB_APP_ID", c.GitHubAppID)
	if key := os.Getenv("GITHUB_PRIVATE_KEY"); key != "" {
		c.GitHubPrivateKey = normalizePrivateKey(key)
	}
	c.GitHubWebhookSecret = getEnv("GITHUB_WEBHOOK_SECRET", c.GitHubWebhookSecret)
	c.GitHubAPIURL = getEnv("GITHUB_API_URL", c.GitHubAPIURL)
	c.LLMProvider = getEnv("LLM_PROVIDER", c.LLMProvider)
	c.LLMAPIKey = getEnv("OPENROUTER_API_KEY", getEnv("OPENAI_API_KEY", c.LLMAPIKey))
	c.LLMBaseURL = getEnv("OPENROUTER_BASE_URL", c.LLMBaseURL)
	c.LLMModel = getEnv("OPENAI_MODEL", c.LLMModel)
	c.LLMSiteURL = getEnv("OPENROUTER_SITE_URL", c.LLMSiteURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.UseKeyring = getEnvBool("USE_KEYRING", c.UseKeyring)
}

func lookupKeyringToken() string {
	token, err := credentials.GetGitHubToken()
	if err != nil {
		return ""
	}
	return token
}

func normalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	if strings.Contains(trimmed, "\\n") {
		trimmed = strings.ReplaceAll(trimmed, "\\n", "\n")
	}

	return trimmed
}

// validate checks that the configuration is internally consistent
func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.RepoPath) == "" {
		return fmt.Errorf("REPO_PATH must not be empty")
	}
	if (c.GitHubAppID == "") != (c.GitHubPrivateKey == "") {
		return fmt.Errorf("GITHUB_APP_ID and GITHUB_PRIVATE_KEY must be set together")
	}
	switch c.LLMProvider {
	case "openrouter", "openai":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER: %s (must be 'openrouter' or 'openai')", c.LLMProvider)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be 'text' or 'json')", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s", c.LogLevel)
	}
	return nil
}

// HasGitHubAuth reports whether any GitHub credential is configured.
func (c *Config) HasGitHubAuth() bool {
	return c.GitHubToken != "" || c.GitHubAppID != ""
}

// HasLLM reports whether an LLM API key is configured.
func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
