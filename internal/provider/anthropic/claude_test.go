package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/provider"
)

func TestClient_Complete(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"content": [{"type":"text","text":"第一段"},{"type":"text","text":"第二段"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 7}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Temperature: 0.1})
	resp, err := c.Complete(context.Background(), &provider.CompletionRequest{Messages: []provider.Message{
		{Role: provider.RoleSystem, Content: "identity"},
		{Role: provider.RoleSystem, Content: "memory"},
		{Role: provider.RoleAssistant, Content: "earlier answer"},
		{Role: provider.RoleUser, Content: "q1"},
		{Role: provider.RoleUser, Content: "q2"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "第一段\n第二段", resp.Content)
	assert.Equal(t, 7, resp.Usage.OutputTokens)

	assert.Equal(t, defaultModel, got.Model)
	assert.Equal(t, 4096, got.MaxTokens)
	assert.Equal(t, "identity\n\nmemory", got.System)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.1, *got.Temperature, 1e-9)
	assert.Equal(t, []apiMessage{
		{Role: "user", Content: "(earlier conversation)"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: "q1\n\nq2"},
	}, got.Messages)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), &provider.CompletionRequest{Messages: []provider.Message{{Role: "user", Content: "x"}}})

	var apiErr *provider.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Status)
	assert.True(t, provider.Retryable(err))
}

func TestClient_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	c := NewClient(Config{})
	_, err := c.Complete(context.Background(), &provider.CompletionRequest{})
	assert.Equal(t, brerrors.CodeAPIKeyMissing, brerrors.AsCode(err))
	assert.Equal(t, brerrors.CodeAPIKeyMissing, brerrors.AsCode(c.Ping(context.Background())))
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(Config{APIKey: "k", BaseURL: srv.URL}).Ping(context.Background()))
}
