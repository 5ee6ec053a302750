package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/provider"
)

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"你好"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key-123", BaseURL: srv.URL + "/", Model: "Qwen2.5-72b", MaxTokens: 4096, Temperature: 0.1})
	resp, err := c.Complete(context.Background(), &provider.CompletionRequest{Messages: []provider.Message{
		{Role: "system", Content: "identity"},
		{Role: "", Content: "untagged"},
		{Role: "user", Content: "hi"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "你好", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 3, resp.Usage.InputTokens)

	assert.Equal(t, "Qwen2.5-72b", got.Model)
	assert.Equal(t, 4096, got.MaxTokens)
	assert.Equal(t, "user", got.Messages[1].Role)
	require.NotNil(t, got.Temperature)
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Complete(context.Background(), &provider.CompletionRequest{})
	assert.ErrorContains(t, err, "no choices")
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), &provider.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, provider.Retryable(err))
	assert.Error(t, c.Ping(context.Background()))
}

func TestClient_KeyRequiredOnlyForDefaultEndpoint(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient(Config{}).Complete(context.Background(), &provider.CompletionRequest{})
	assert.Equal(t, brerrors.CodeAPIKeyMissing, brerrors.AsCode(err))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()
	assert.NoError(t, NewClient(Config{BaseURL: srv.URL}).Ping(context.Background()))
}
