package telemetry

import (
	"context"

	"github.com/google/uuid"
)

type traceKey struct{}

// TraceContext correlates the log lines of one orchestration run.
type TraceContext struct {
	RunID    string `json:"run_id"`
	SpanID   string `json:"span_id"`
	ParentID string `json:"parent_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Role     string `json:"role,omitempty"`
	Phase    string `json:"phase,omitempty"` // summary, specialist, synthesis, direct
}

// NewTraceContext creates a root trace. An empty runID gets a fresh uuid.
func NewTraceContext(runID string) *TraceContext {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &TraceContext{RunID: runID, SpanID: shortID()}
}

// ChildSpan derives a span for one role invocation.
func (tc *TraceContext) ChildSpan(role, phase string) *TraceContext {
	return &TraceContext{
		RunID:    tc.RunID,
		SpanID:   shortID(),
		ParentID: tc.SpanID,
		UserID:   tc.UserID,
		Role:     role,
		Phase:    phase,
	}
}

// WithUser returns a copy with the user id set.
func (tc *TraceContext) WithUser(userID string) *TraceContext {
	c := *tc
	c.UserID = userID
	return &c
}

// KeyVals returns the trace as alternating key/value pairs for logging.
func (tc *TraceContext) KeyVals() []any {
	kv := []any{"run_id", tc.RunID, "span_id", tc.SpanID}
	if tc.ParentID != "" {
		kv = append(kv, "parent_id", tc.ParentID)
	}
	if tc.UserID != "" {
		kv = append(kv, "user", tc.UserID)
	}
	if tc.Role != "" {
		kv = append(kv, "role", tc.Role)
	}
	if tc.Phase != "" {
		kv = append(kv, "phase", tc.Phase)
	}
	return kv
}

// ContextWithTrace stores a TraceContext in the context.
func ContextWithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// TraceFromContext extracts a TraceContext from the context, or nil.
func TraceFromContext(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceKey{}).(*TraceContext)
	return tc
}

// WithTrace returns a logger enriched with the trace carried by ctx.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	tc := TraceFromContext(ctx)
	if tc == nil {
		return l
	}
	return l.With(tc.KeyVals()...)
}

func shortID() string {
	return uuid.NewString()[:8]
}
