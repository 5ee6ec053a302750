// Package agent runs single-role invocations: it selects specialists for a
// message and turns one request into a prompt, a model call, and the
// bookkeeping that follows.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cadre-oss/brains/internal/conversation"
	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/event"
	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/prompt"
	"github.com/cadre-oss/brains/internal/provider"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// FailureMessage is the content of a response whose model call failed.
const FailureMessage = "抱歉，我现在无法处理您的请求，请稍后再试。"

// MemoryWriter persists an exchange to long-term memory.
type MemoryWriter interface {
	Write(ctx context.Context, content, userID string, opts memory.WriteOptions) bool
}

// Config holds the model parameters applied to every call.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// DefaultRole answers requests that name no role. Empty means the
	// coordinator.
	DefaultRole string
}

// Deps are the collaborators an Engine needs. Memory, Bus, Logger and
// Metrics may be nil.
type Deps struct {
	Registry *profile.Registry
	Builder  *prompt.Builder
	Provider provider.Provider
	Cache    *conversation.Cache
	Memory   MemoryWriter
	Bus      *event.Bus
	Logger   *telemetry.Logger
	Metrics  *telemetry.Metrics
}

// Engine executes role invocations. It is safe for concurrent use.
type Engine struct {
	deps Deps
	cfg  Config
}

// NewEngine creates an engine.
func NewEngine(deps Deps, cfg Config) *Engine {
	if deps.Logger == nil {
		deps.Logger = telemetry.Nop()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Engine{deps: deps, cfg: cfg}
}

// Registry returns the role table the engine serves.
func (e *Engine) Registry() *profile.Registry { return e.deps.Registry }

// Cache returns the conversation cache.
func (e *Engine) Cache() *conversation.Cache { return e.deps.Cache }

// Generate runs one invocation. It never returns nil and never panics on a
// model failure: the error is reported in the response. A call that fails
// carries FailureMessage as content; a call that returns no text carries an
// empty content and an error, and the caller picks the substitute.
func (e *Engine) Generate(ctx context.Context, req ChatRequest) *ChatResponse {
	if req.RoleID == "" {
		req.RoleID = e.cfg.DefaultRole
		if req.RoleID == "" {
			req.RoleID = e.deps.Registry.Coordinator()
		}
	}
	text := req.Prompt
	if text == "" {
		text = req.Message
	}

	start := time.Now()
	log := e.deps.Logger.WithTrace(ctx).With("role", req.RoleID, "user_id", req.UserID)
	runID := runIDFrom(ctx)
	e.deps.Metrics.IncInvocations()

	var history []conversation.Turn
	if e.deps.Cache != nil {
		history = e.deps.Cache.Recent(req.UserID, 0)
	}

	payload := e.deps.Builder.Build(ctx, prompt.Request{
		UserID:    req.UserID,
		RoleID:    req.RoleID,
		SessionID: req.SessionID,
		Query:     req.Message,
		Message:   text,
		History:   history,
		External:  req.External,
		Scope:     req.Scope,
	})
	if payload.Degraded {
		e.deps.Bus.Publish(event.ContextDegraded, runID, map[string]any{"role": req.RoleID})
	}

	resp := &ChatResponse{
		UserID:        req.UserID,
		RoleID:        req.RoleID,
		SessionID:     req.SessionID,
		MemoryUsed:    payload.MemoryUsed,
		MemoryCount:   payload.MemoryCount,
		Collaborators: payload.Collaborators,
		Degraded:      payload.Degraded,
	}

	log.Debug("invoking model", "fragments", len(payload.Messages), "memory_count", payload.MemoryCount)
	out, err := e.deps.Provider.Complete(ctx, &provider.CompletionRequest{
		Model:       e.cfg.Model,
		Messages:    payload.Messages,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	resp.Duration = time.Since(start)
	e.deps.Metrics.RecordLatency(req.RoleID, resp.Duration)

	if err == nil && (out == nil || strings.TrimSpace(out.Content) == "") {
		err = brerrors.New(brerrors.CodeInvocationFailed, "model returned empty content")
	} else if err != nil {
		resp.Content = FailureMessage
	}
	if err != nil {
		e.deps.Metrics.IncInvocationFailures()
		log.Error("model invocation failed", "error", err)
		resp.Error = err.Error()
		e.deps.Bus.Publish(event.ChatFailed, runID, map[string]any{
			"role":  req.RoleID,
			"error": resp.Error,
		})
		return resp
	}

	resp.Content = out.Content
	resp.Usage = out.Usage
	e.finalize(ctx, req, resp.Content, runID)

	log.Debug("model invocation completed", "duration", resp.Duration, "output_tokens", out.Usage.OutputTokens)
	e.deps.Bus.Publish(event.ChatCompleted, runID, map[string]any{
		"role":        req.RoleID,
		"duration_ms": resp.Duration.Milliseconds(),
		"memory_used": resp.MemoryUsed,
	})
	return resp
}

// finalize records a successful exchange: the cache when persisting, and
// long-term memory when asked.
func (e *Engine) finalize(ctx context.Context, req ChatRequest, answer, runID string) {
	if req.Persist && e.deps.Cache != nil {
		e.deps.Cache.AppendExchange(req.UserID, req.Message, answer)
	}
	if !req.StoreMemory || e.deps.Memory == nil {
		return
	}

	label := "系统回复"
	if scope, _ := e.deps.Registry.ScopeFor(req.RoleID); scope == profile.ScopeExpert {
		label = "专家回复"
	}
	content := fmt.Sprintf("用户提问: %s\n%s: %s", req.Message, label, answer)
	if !e.deps.Memory.Write(ctx, content, req.UserID, memory.WriteOptions{RoleID: req.RoleID, SessionID: req.SessionID}) {
		e.deps.Bus.Publish(event.MemoryWriteFailed, runID, map[string]any{
			"role":    req.RoleID,
			"user_id": req.UserID,
		})
	}
}

func runIDFrom(ctx context.Context) string {
	if tc := telemetry.TraceFromContext(ctx); tc != nil {
		return tc.RunID
	}
	return ""
}
