// Package brains provides a public API for the multi-agent project
// assistant.
//
// Example usage:
//
//	import "github.com/cadre-oss/brains/pkg/brains"
//
//	client, err := brains.Open(ctx, "brains.yaml")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	// Run the project brain and its specialists
//	answer, err := client.Ask(ctx, "我需要优化推荐算法的准确率", brains.WithUser("alice"))
//
//	// Talk to one agent
//	answer, err = client.Chat(ctx, "product_lead", "下个版本先做什么？")
package brains

import (
	"context"
	"fmt"

	"github.com/cadre-oss/brains/internal/config"
	"github.com/cadre-oss/brains/internal/crew"
	"github.com/cadre-oss/brains/internal/service"
)

// Client is an open brains instance. It is safe for concurrent use.
type Client struct {
	svc *service.Service
}

// Open loads the configuration at path (built-in defaults when path is
// empty or missing), validates it, and connects the model provider and
// memory store.
func Open(ctx context.Context, path string) (*Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	svc, err := service.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc}, nil
}

// Close flushes metrics and releases the memory store.
func (c *Client) Close() error {
	return c.svc.Close()
}

// Specialist is one specialist's contribution to an answer.
type Specialist struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Answer is the result of Ask or Chat.
type Answer struct {
	Content     string       `json:"content"`
	AgentID     string       `json:"agent_id"`
	Mode        string       `json:"mode"`
	RunID       string       `json:"run_id,omitempty"`
	Summary     string       `json:"project_summary,omitempty"`
	Specialists []Specialist `json:"specialists,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Option adjusts a single request.
type Option func(*request)

type request struct {
	user    string
	session string
	target  string
}

// WithUser sets the user whose memories and history apply.
func WithUser(id string) Option { return func(r *request) { r.user = id } }

// WithSession sets the session id.
func WithSession(id string) Option { return func(r *request) { r.session = id } }

// WithTarget sends an Ask straight to one specialist.
func WithTarget(agentID string) Option { return func(r *request) { r.target = agentID } }

func collect(opts []Option) request {
	var r request
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Ask runs message through the project brain and its specialists. When the
// invocation fails the answer still carries the fallback content and the
// error is returned alongside it.
func (c *Client) Ask(ctx context.Context, message string, opts ...Option) (*Answer, error) {
	r := collect(opts)
	if r.target != "" && !c.svc.Registry().Has(r.target) {
		return nil, fmt.Errorf("brains: unknown agent %q", r.target)
	}

	res := c.svc.Orchestrate(ctx, service.OrchestrateInput{
		UserID:     r.user,
		SessionID:  r.session,
		Message:    message,
		TargetRole: r.target,
	})

	reg := c.svc.Registry()
	a := &Answer{
		Content: res.FinalResponse.Content,
		AgentID: res.FinalResponse.RoleID,
		Mode:    res.Mode,
		RunID:   res.RunID,
		Summary: res.ProjectSummary,
		Error:   res.FinalResponse.Error,
	}
	if res.Mode == crew.ModeFull {
		for _, o := range res.SpecialistOutputs {
			a.Specialists = append(a.Specialists, Specialist{
				AgentID: o.RoleID,
				Name:    reg.Name(o.RoleID),
				Content: o.Content,
				Error:   o.Error,
			})
		}
	}
	return a, a.err()
}

// Chat sends message to a single agent, or to the default agent when
// agentID is empty.
func (c *Client) Chat(ctx context.Context, agentID, message string, opts ...Option) (*Answer, error) {
	if agentID != "" && !c.svc.Registry().Has(agentID) {
		return nil, fmt.Errorf("brains: unknown agent %q", agentID)
	}
	r := collect(opts)
	resp := c.svc.Chat(ctx, service.ChatInput{
		UserID:    r.user,
		SessionID: r.session,
		RoleID:    agentID,
		Message:   message,
	})
	a := &Answer{
		Content: resp.Content,
		AgentID: resp.RoleID,
		Mode:    "single",
		Error:   resp.Error,
	}
	return a, a.err()
}

func (a *Answer) err() error {
	if a.Error == "" {
		return nil
	}
	return fmt.Errorf("brains: %s", a.Error)
}
