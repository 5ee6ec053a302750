// Package crew drives the coordinator and specialist roles through one
// orchestration run.
package crew

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cadre-oss/brains/internal/agent"
	"github.com/cadre-oss/brains/internal/event"
	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/prompt"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// Invoker runs a single role invocation.
type Invoker interface {
	Generate(ctx context.Context, req agent.ChatRequest) *agent.ChatResponse
}

// Request is one user message entering the pipeline.
type Request struct {
	UserID    string
	SessionID string
	Message   string
	// TargetRole routes the message straight to one specialist. Empty,
	// unknown or coordinator ids run the full pipeline.
	TargetRole string
	// RunID correlates events and logs. Generated when empty.
	RunID string
}

// SpecialistResult is one specialist's contribution.
type SpecialistResult struct {
	RoleID  string `json:"agent_id"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// MultiAgentResult is the outcome of Process.
type MultiAgentResult struct {
	RunID             string              `json:"run_id"`
	Mode              string              `json:"mode"`
	ProjectSummary    string              `json:"project_summary"`
	SelectedAgents    []string            `json:"selected_agents"`
	SpecialistOutputs []SpecialistResult  `json:"specialist_outputs"`
	FinalResponse     *agent.ChatResponse `json:"final_response"`
	Duration          time.Duration       `json:"duration"`
}

const (
	ModeDirect = "direct"
	ModeFull   = "full"
)

// Options tune the pipeline.
type Options struct {
	// Parallel runs the selected specialists concurrently.
	Parallel bool
	// Concurrency caps parallel specialists (<= 0 means one per specialist).
	Concurrency int
}

// Controller orchestrates the coordinator and its specialists.
type Controller struct {
	invoker  Invoker
	selector *agent.Selector
	registry *profile.Registry
	opts     Options
	bus      *event.Bus
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
}

// NewController creates a controller. bus, logger and metrics may be nil.
func NewController(invoker Invoker, selector *agent.Selector, registry *profile.Registry, opts Options, bus *event.Bus, logger *telemetry.Logger, metrics *telemetry.Metrics) *Controller {
	if logger == nil {
		logger = telemetry.Nop()
	}
	return &Controller{
		invoker:  invoker,
		selector: selector,
		registry: registry,
		opts:     opts,
		bus:      bus,
		logger:   logger,
		metrics:  metrics,
	}
}

// Process runs one message through the pipeline. It never returns nil and
// reports role failures inside the result.
func (c *Controller) Process(ctx context.Context, req Request) *MultiAgentResult {
	start := time.Now()
	tc := telemetry.NewTraceContext(req.RunID).WithUser(req.UserID)
	ctx = telemetry.ContextWithTrace(ctx, tc)
	log := c.logger.WithTrace(ctx)
	c.metrics.IncOrchestrations()

	mode := ModeFull
	if req.TargetRole != "" {
		if c.registry.Has(req.TargetRole) && !c.registry.IsCoordinator(req.TargetRole) {
			mode = ModeDirect
		} else {
			log.Warn("target role not routable, running full pipeline", "target", req.TargetRole)
		}
	}

	c.bus.Publish(event.OrchestrationStarted, tc.RunID, map[string]any{
		"mode":    mode,
		"user_id": req.UserID,
	})

	var res *MultiAgentResult
	if mode == ModeDirect {
		res = c.direct(ctx, tc, req)
	} else {
		res = c.full(ctx, tc, req)
	}
	res.RunID = tc.RunID
	res.Mode = mode
	res.Duration = time.Since(start)

	log.Info("orchestration completed",
		"mode", mode,
		"specialists", len(res.SelectedAgents),
		"duration", res.Duration,
	)
	c.bus.Publish(event.OrchestrationCompleted, tc.RunID, map[string]any{
		"mode":        mode,
		"specialists": res.SelectedAgents,
		"duration_ms": res.Duration.Milliseconds(),
		"failed":      res.FinalResponse.Failed(),
	})
	return res
}

func (c *Controller) direct(ctx context.Context, tc *telemetry.TraceContext, req Request) *MultiAgentResult {
	role := req.TargetRole
	resp := c.call(ctx, tc.ChildSpan(role, ModeDirect), agent.ChatRequest{
		UserID:    req.UserID,
		RoleID:    role,
		SessionID: req.SessionID,
		Message:   req.Message,
		Prompt:    prompt.SpecialistTask(c.registry, role, req.Message, ""),
		Scope:     profile.ScopeExpert,
		Persist:   true,
	})
	return &MultiAgentResult{
		SelectedAgents:    []string{role},
		SpecialistOutputs: []SpecialistResult{resultOf(role, resp)},
		FinalResponse:     resp,
	}
}

func (c *Controller) full(ctx context.Context, tc *telemetry.TraceContext, req Request) *MultiAgentResult {
	coord := c.registry.Coordinator()

	brief := c.call(ctx, tc.ChildSpan(coord, "summary"), agent.ChatRequest{
		UserID:    req.UserID,
		RoleID:    coord,
		SessionID: req.SessionID,
		Message:   req.Message,
		Prompt:    prompt.CoordinatorBrief(c.registry, req.Message),
		Scope:     profile.ScopeProject,
	})
	summary := brief.Content
	c.bus.Publish(event.CoordinatorCompleted, tc.RunID, map[string]any{
		"role":   coord,
		"failed": brief.Failed(),
	})

	selected := c.selector.Select(req.Message)
	outputs := c.specialists(ctx, tc, req, selected, summary)

	feedback := make([]prompt.Feedback, len(outputs))
	for i, o := range outputs {
		feedback[i] = prompt.Feedback{RoleID: o.RoleID, Content: o.Content}
	}
	final := c.call(ctx, tc.ChildSpan(coord, "synthesis"), agent.ChatRequest{
		UserID:    req.UserID,
		RoleID:    coord,
		SessionID: req.SessionID,
		Message:   req.Message,
		Prompt:    prompt.Synthesis(c.registry, req.Message, summary, feedback),
		External:  summary,
		Scope:     profile.ScopeProject,
		Persist:   true,
	})
	c.bus.Publish(event.SynthesisCompleted, tc.RunID, map[string]any{
		"role":   coord,
		"failed": final.Failed(),
	})

	return &MultiAgentResult{
		ProjectSummary:    summary,
		SelectedAgents:    selected,
		SpecialistOutputs: outputs,
		FinalResponse:     final,
	}
}

// specialists runs every selected role and returns results in selection
// order, whether run sequentially or in parallel.
func (c *Controller) specialists(ctx context.Context, tc *telemetry.TraceContext, req Request, selected []string, summary string) []SpecialistResult {
	outputs := make([]SpecialistResult, len(selected))
	run := func(i int) {
		role := selected[i]
		c.bus.Publish(event.SpecialistStarted, tc.RunID, map[string]any{"role": role})
		resp := c.call(ctx, tc.ChildSpan(role, "specialist"), agent.ChatRequest{
			UserID:    req.UserID,
			RoleID:    role,
			SessionID: req.SessionID,
			Message:   req.Message,
			Prompt:    prompt.SpecialistTask(c.registry, role, req.Message, summary),
			External:  summary,
			Scope:     profile.ScopeExpert,
		})
		outputs[i] = resultOf(role, resp)
		c.bus.Publish(event.SpecialistCompleted, tc.RunID, map[string]any{
			"role":   role,
			"failed": resp.Failed(),
		})
	}

	if !c.opts.Parallel || len(selected) < 2 {
		for i := range selected {
			run(i)
		}
		return outputs
	}

	var g errgroup.Group
	if c.opts.Concurrency > 0 {
		g.SetLimit(c.opts.Concurrency)
	}
	for i := range selected {
		g.Go(func() error {
			run(i)
			return nil
		})
	}
	_ = g.Wait()
	return outputs
}

// call invokes one role. Every invocation in a run writes back to memory.
func (c *Controller) call(ctx context.Context, span *telemetry.TraceContext, req agent.ChatRequest) *agent.ChatResponse {
	req.StoreMemory = true
	ctx = telemetry.ContextWithTrace(ctx, span)
	resp := c.invoker.Generate(ctx, req)
	if resp.Failed() {
		c.logger.WithTrace(ctx).Warn("role invocation failed", "error", resp.Error)
		if resp.Content == "" {
			resp.Content = placeholder(req.RoleID, resp.Error)
		}
	}
	return resp
}

func resultOf(role string, resp *agent.ChatResponse) SpecialistResult {
	return SpecialistResult{RoleID: role, Content: resp.Content, Error: resp.Error}
}

func placeholder(role, errText string) string {
	return fmt.Sprintf("[代理 %s 执行异常: %s]", role, errText)
}
