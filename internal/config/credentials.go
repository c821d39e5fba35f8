package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const githubTokenKey = "github_token"

// ErrNoToken is returned when the credential store holds no GitHub token.
var ErrNoToken = errors.New("no GitHub token stored")

// TokenStore persists the GitHub token outside of environment files.
type TokenStore interface {
	GetGitHubToken() (string, error)
	StoreGitHubToken(token string) error
	DeleteGitHubToken() error
}

// CredentialStore keeps the GitHub token in the OS credential store.
type CredentialStore struct {
	service string
}

// NewCredentialStore creates a store bound to the application's keyring service.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{service: AppName}
}

// StoreGitHubToken saves token in the OS credential store.
func (s *CredentialStore) StoreGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := keyring.Set(s.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// GetGitHubToken reads the stored token. ErrNoToken means nothing is stored.
func (s *CredentialStore) GetGitHubToken() (string, error) {
	token, err := keyring.Get(s.service, githubTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// DeleteGitHubToken removes the stored token; deleting a missing token is not an error.
func (s *CredentialStore) DeleteGitHubToken() error {
	if err := keyring.Delete(s.service, githubTokenKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}
