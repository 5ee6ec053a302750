// Package prompt assembles the layered message list sent to a model for one
// role invocation.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/cadre-oss/brains/internal/conversation"
	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/provider"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// Section caps for the memory layer.
const (
	userMemoryLines  = 3
	scopeMemoryLines = 5
)

// Memory is the part of the memory gateway the builder reads from.
type Memory interface {
	Search(ctx context.Context, userID, query string, opts memory.Options) ([]memory.Record, error)
	Collaborative(ctx context.Context, req memory.CollabRequest) memory.Collaboration
}

// Request describes one invocation to build a payload for.
type Request struct {
	UserID    string
	RoleID    string
	SessionID string
	// Query keys the memory lookups. It defaults to Message.
	Query   string
	Message string
	History []conversation.Turn
	// External is passed through verbatim as its own system fragment.
	External string
	// Scope selects which role memory is read. Empty derives it from the
	// role.
	Scope         profile.Scope
	ScopeMetadata map[string]string
}

// Payload is the ordered message list plus what went into it.
type Payload struct {
	Messages      []provider.Message `json:"messages"`
	MemoryUsed    bool               `json:"memory_used"`
	MemoryCount   int                `json:"memory_count"`
	RoleID        string             `json:"role_id"`
	SessionID     string             `json:"session_id"`
	Collaborators []string           `json:"collaborators,omitempty"`
	Degraded      bool               `json:"degraded,omitempty"`
	// Warnings names the memory layers whose lookups failed.
	Warnings []string `json:"warnings,omitempty"`
}

// Options tunes the builder.
type Options struct {
	HistoryWindow    int // turns of history kept; <= 0 keeps all
	SearchLimit      int
	MaxCollaborators int // <= 0 means every collaborator
}

// Builder composes payloads. It is stateless apart from its dependencies
// and safe for concurrent use.
type Builder struct {
	registry *profile.Registry
	memory   Memory
	opts     Options
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
}

// NewBuilder creates a builder. A nil memory disables the memory layers.
func NewBuilder(registry *profile.Registry, mem Memory, opts Options, logger *telemetry.Logger, metrics *telemetry.Metrics) *Builder {
	if logger == nil {
		logger = telemetry.Nop()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 5
	}
	return &Builder{registry: registry, memory: mem, opts: opts, logger: logger, metrics: metrics}
}

// Build never fails. If assembly panics, a two-fragment payload carrying a
// notice and the user message is returned instead.
func (b *Builder) Build(ctx context.Context, req Request) (p Payload) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithTrace(ctx).Error("context assembly failed", "role", req.RoleID, "panic", r)
			p = b.degraded(req)
		}
	}()
	return b.build(ctx, req)
}

// Degraded returns the fallback payload for req.
func Degraded(roleID, sessionID, message string) Payload {
	return Payload{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: fmt.Sprintf("智能体 %s 的上下文构建失败，但仍需响应。", roleID)},
			{Role: provider.RoleUser, Content: message},
		},
		RoleID:    roleID,
		SessionID: sessionID,
		Degraded:  true,
	}
}

func (b *Builder) degraded(req Request) Payload {
	b.metrics.IncDegradedPayloads()
	return Degraded(req.RoleID, req.SessionID, req.Message)
}

func (b *Builder) build(ctx context.Context, req Request) Payload {
	if req.Query == "" {
		req.Query = req.Message
	}
	p := Payload{RoleID: req.RoleID, SessionID: req.SessionID}

	scope, domain := b.registry.ScopeFor(req.RoleID)
	if req.Scope.Valid() {
		scope = req.Scope
	}
	if d := req.ScopeMetadata[memory.MetaDomain]; d != "" {
		domain = d
	}

	var msgs []provider.Message
	add := func(role, content string) {
		msgs = append(msgs, provider.Coerce(provider.Message{Role: role, Content: content}, provider.RoleUser))
	}

	add(provider.RoleSystem, b.systemPrompt(req.RoleID, scope, domain))

	text, n, warnings := b.memoryLayer(ctx, req, scope, domain)
	p.Warnings = warnings
	if n > 0 {
		add(provider.RoleSystem, "<记忆上下文>\n"+text+"\n</记忆上下文>")
		p.MemoryCount += n
	}

	if b.registry.IsCoordinator(req.RoleID) && b.memory != nil {
		p.Collaborators = b.registry.Collaborators(b.opts.MaxCollaborators)
		c := b.memory.Collaborative(ctx, memory.CollabRequest{
			UserID:        req.UserID,
			RoleID:        req.RoleID,
			SessionID:     req.SessionID,
			Query:         req.Query,
			Collaborators: p.Collaborators,
			Limit:         b.opts.SearchLimit,
		})
		add(provider.RoleSystem, "<协作上下文>\n"+c.Text+"\n</协作上下文>")
		p.MemoryCount += c.Hits
		if c.Failed > 0 {
			p.Warnings = append(p.Warnings, fmt.Sprintf("collaborative memory: %d lookups failed", c.Failed))
		}
	}

	if strings.TrimSpace(req.External) != "" {
		add(provider.RoleSystem, req.External)
	}

	for _, t := range trim(req.History, b.opts.HistoryWindow) {
		role := provider.RoleUser
		if t.Role == provider.RoleAssistant {
			role = provider.RoleAssistant
		}
		add(role, t.Content)
	}

	add(provider.RoleUser, req.Message)

	p.Messages = msgs
	p.MemoryUsed = p.MemoryCount > 0
	return p
}

// memoryLayer renders the user section and, for expert and project scope,
// the role's own section. It returns the text, the records rendered, and a
// warning per lookup that failed.
func (b *Builder) memoryLayer(ctx context.Context, req Request, scope profile.Scope, domain string) (string, int, []string) {
	if b.memory == nil {
		return "", 0, nil
	}
	limit := b.opts.SearchLimit

	var (
		parts    []string
		count    int
		warnings []string
	)
	search := func(layer string, opts memory.Options) []memory.Record {
		recs, err := b.memory.Search(ctx, req.UserID, req.Query, opts)
		if err != nil {
			b.logger.WithTrace(ctx).Warn("memory layer unavailable", "layer", layer, "role", req.RoleID, "error", err)
			warnings = append(warnings, layer+" memory: "+err.Error())
		}
		return recs
	}
	section := func(label string, recs []memory.Record, max int) {
		if len(recs) == 0 {
			return
		}
		if len(recs) > max {
			recs = recs[:max]
		}
		parts = append(parts, label+"\n"+memory.Numbered(recs, max))
		count += len(recs)
	}

	user := search("user", memory.Options{Scope: profile.ScopeUser, Limit: limit})
	section("用户记忆信息：", user, userMemoryLines)

	switch scope {
	case profile.ScopeExpert:
		recs := search("expert", memory.Options{
			RoleID: req.RoleID,
			Scope:  profile.ScopeExpert,
			Domain: domain,
			Limit:  limit,
		})
		section("专家领域相关记忆：", recs, scopeMemoryLines)
	case profile.ScopeProject:
		recs := search("project", memory.Options{
			RoleID:    b.registry.Coordinator(),
			SessionID: req.SessionID,
			Scope:     profile.ScopeProject,
			Limit:     limit,
		})
		section("项目相关记忆：", recs, scopeMemoryLines)
	}

	return strings.Join(parts, "\n\n"), count, warnings
}

func trim(history []conversation.Turn, window int) []conversation.Turn {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
