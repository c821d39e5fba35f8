package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionsEndpoint(t *testing.T) {
	tests := map[string]string{
		"":                                   "https://api.openai.com/v1/chat/completions",
		"https://openrouter.ai/api/v1":       "https://openrouter.ai/api/v1/chat/completions",
		"https://openrouter.ai/api/v1/":      "https://openrouter.ai/api/v1/chat/completions",
		"http://localhost:8080":              "http://localhost:8080/v1/chat/completions",
		"https://x.test/v1/chat/completions": "https://x.test/v1/chat/completions",
	}
	for in, want := range tests {
		assert.Equal(t, want, completionsEndpoint(in), in)
	}
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + "```markdown\\n# Doc\\n```" + `"}}]}`))
	}))
	defer server.Close()

	c := NewClient("secret", server.URL, "gpt-4", "https://example.com")
	out, err := c.Complete(context.Background(), &Request{
		Prompt:      "write docs",
		System:      "You are a writer.",
		Temperature: Temperature(0.3),
		MaxTokens:   500,
	})
	require.NoError(t, err)

	assert.Equal(t, "# Doc", out)
	assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
	assert.Equal(t, "https://example.com", headers.Get("HTTP-Referer"))
	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are a writer.", got.Messages[0].Content)
	assert.Equal(t, "write docs", got.Messages[1].Content)
}

func TestClient_CompleteDefaults(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"plain"}}]}`))
	}))
	defer server.Close()

	c := NewClient("k", server.URL, "m", "")
	_, err := c.Complete(context.Background(), &Request{Prompt: "p", Model: "override"})
	require.NoError(t, err)

	assert.Equal(t, "override", got.Model)
	assert.Equal(t, DefaultTemperature, got.Temperature)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, defaultSystem, got.Messages[0].Content)
}

func TestClient_CompleteZeroTemperature(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"plain"}}]}`))
	}))
	defer server.Close()

	c := NewClient("k", server.URL, "m", "")
	_, err := c.Complete(context.Background(), &Request{Prompt: "p", Temperature: Temperature(0)})
	require.NoError(t, err)

	temp, ok := raw["temperature"]
	require.True(t, ok, "temperature must be sent")
	assert.Equal(t, 0.0, temp)
}

func TestClient_CompleteErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewClient("", "", "m", "").Complete(context.Background(), &Request{Prompt: "p"})
		assert.ErrorContains(t, err, "api key is required")
	})

	t.Run("empty prompt", func(t *testing.T) {
		_, err := NewClient("k", "", "m", "").Complete(context.Background(), &Request{Prompt: "  "})
		assert.ErrorContains(t, err, "prompt is required")
	})

	t.Run("http status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := NewClient("k", server.URL, "m", "").Complete(context.Background(), &Request{Prompt: "p"})
		assert.ErrorContains(t, err, "429")
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		_, err := NewClient("k", server.URL, "m", "").Complete(context.Background(), &Request{Prompt: "p"})
		assert.ErrorContains(t, err, "no choices")
	})

	t.Run("api error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
		}))
		defer server.Close()

		_, err := NewClient("k", server.URL, "m", "").Complete(context.Background(), &Request{Prompt: "p"})
		assert.ErrorContains(t, err, "bad model")
	})
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "body", CleanMarkdown("```markdown\nbody\n```"))
	assert.Equal(t, "body", CleanMarkdown("```\nbody\n```"))
	assert.Equal(t, "text with ```code``` inside and ```more```", CleanMarkdown("text with ```code``` inside and ```more```"))
	assert.Equal(t, "plain", CleanMarkdown("  plain \n"))
}
