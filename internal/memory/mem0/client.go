// Package mem0 is a memory.Store backed by a mem0 REST server.
package mem0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cadre-oss/brains/internal/memory"
)

const defaultBaseURL = "http://localhost:8888"

// Config configures the client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client implements memory.Store and memory.Prober.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client. Nothing is contacted until the first call.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: base, apiKey: cfg.APIKey, httpClient: hc}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type addRequest struct {
	Messages []message      `json:"messages"`
	UserID   string         `json:"user_id,omitempty"`
	AgentID  string         `json:"agent_id,omitempty"`
	RunID    string         `json:"run_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type searchRequest struct {
	Query   string            `json:"query"`
	UserID  string            `json:"user_id,omitempty"`
	AgentID string            `json:"agent_id,omitempty"`
	RunID   string            `json:"run_id,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
	Limit   int               `json:"limit,omitempty"`
}

// Add stores each entry as its own user message.
func (c *Client) Add(ctx context.Context, entries []memory.Entry, opts memory.AddOptions) error {
	for _, e := range entries {
		req := addRequest{
			Messages: []message{{Role: "user", Content: e.Text}},
			UserID:   opts.UserID,
			AgentID:  opts.RoleID,
			RunID:    opts.SessionID,
			Metadata: e.Metadata,
		}
		if _, err := c.do(ctx, http.MethodPost, "/memories", req); err != nil {
			return err
		}
	}
	return nil
}

// Search posts to /search.
func (c *Client) Search(ctx context.Context, query string, opts memory.QueryOptions) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/search", searchRequest{
		Query:   query,
		UserID:  opts.UserID,
		AgentID: opts.RoleID,
		RunID:   opts.SessionID,
		Filters: opts.Filters,
		Limit:   opts.Limit,
	})
}

// GetAll lists memories with query parameters. Filters are not part of the
// listing API and are left to the caller.
func (c *Client) GetAll(ctx context.Context, opts memory.QueryOptions) (json.RawMessage, error) {
	q := url.Values{}
	if opts.UserID != "" {
		q.Set("user_id", opts.UserID)
	}
	if opts.RoleID != "" {
		q.Set("agent_id", opts.RoleID)
	}
	if opts.SessionID != "" {
		q.Set("run_id", opts.SessionID)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/memories"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

// Ping fetches the OpenAPI document.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/openapi.json", nil)
	return err
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type openAPI struct {
	Paths map[string]map[string]struct {
		Parameters []struct {
			Name string `json:"name"`
		} `json:"parameters"`
	} `json:"paths"`
	Components struct {
		Schemas map[string]struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"schemas"`
	} `json:"components"`
}

// Capabilities reads the server's OpenAPI document and reports which
// optional fields its search, create and list operations declare.
func (c *Client) Capabilities(ctx context.Context) (memory.Capabilities, error) {
	raw, err := c.do(ctx, http.MethodGet, "/openapi.json", nil)
	if err != nil {
		return memory.Capabilities{}, err
	}
	var doc openAPI
	if err := json.Unmarshal(raw, &doc); err != nil {
		return memory.Capabilities{}, fmt.Errorf("parse openapi document: %w", err)
	}

	search := doc.Components.Schemas["SearchRequest"].Properties
	create := doc.Components.Schemas["MemoryCreate"].Properties
	list := make(map[string]bool)
	if op, ok := doc.Paths["/memories"]["get"]; ok {
		for _, p := range op.Parameters {
			list[p.Name] = true
		}
	}
	has := func(props map[string]json.RawMessage, key string) bool {
		_, ok := props[key]
		return ok
	}

	return memory.Capabilities{
		SearchRole:    has(search, "agent_id"),
		SearchSession: has(search, "run_id"),
		SearchFilters: has(search, "filters"),
		AddRole:       has(create, "agent_id"),
		AddSession:    has(create, "run_id"),
		ListRole:      list["agent_id"],
		ListSession:   list["run_id"],
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mem0 request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mem0 response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mem0 %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
