package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestTraceContext_NewAndChild(t *testing.T) {
	root := NewTraceContext("run-123").WithUser("alice")

	if root.RunID != "run-123" {
		t.Errorf("expected RunID 'run-123', got %q", root.RunID)
	}
	if root.SpanID == "" {
		t.Error("expected non-empty SpanID")
	}

	child := root.ChildSpan("algo_scientist", "specialist")
	if child.RunID != root.RunID {
		t.Error("child should inherit RunID")
	}
	if child.ParentID != root.SpanID {
		t.Error("child ParentID should be parent's SpanID")
	}
	if child.SpanID == root.SpanID {
		t.Error("child should have a different SpanID")
	}
	if child.UserID != "alice" || child.Role != "algo_scientist" || child.Phase != "specialist" {
		t.Errorf("unexpected child: %+v", child)
	}
}

func TestTraceContext_GeneratesRunID(t *testing.T) {
	tc := NewTraceContext("")
	if len(tc.RunID) != 36 {
		t.Errorf("expected uuid run id, got %q", tc.RunID)
	}
}

func TestLogger_WithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Output: &buf})

	ctx := ContextWithTrace(context.Background(), NewTraceContext("run-9").ChildSpan("project_brain", "summary"))
	logger.WithTrace(ctx).Info("invoking role")

	out := buf.String()
	for _, want := range []string{"run_id=run-9", "role=project_brain", "phase=summary"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}

	if TraceFromContext(context.Background()) != nil {
		t.Error("expected nil trace for bare context")
	}
	if logger.WithTrace(context.Background()) != logger {
		t.Error("logger without trace should be returned unchanged")
	}
}

func TestLogger_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Format: "json", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected json output, got %s", out)
	}
}
