package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/memory/inmem"
	"github.com/cadre-oss/brains/internal/provider"
	"github.com/cadre-oss/brains/internal/service"
	"github.com/cadre-oss/brains/internal/telemetry"
	"github.com/cadre-oss/brains/internal/testutil"
)

func newTestService(t *testing.T, mock *testutil.MockProvider) *service.Service {
	t.Helper()
	svc, err := service.New(context.Background(), testutil.TestConfig(),
		service.WithProvider(mock),
		service.WithStore(inmem.New()),
		service.WithLogger(telemetry.Nop()),
	)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func call(t *testing.T, tool Tool, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestTools_Definitions(t *testing.T) {
	svc := newTestService(t, &testutil.MockProvider{})

	var names []string
	for _, tool := range Tools(svc) {
		names = append(names, tool.Definition().Name)
	}
	want := []string{"brains_orchestrate", "brains_chat", "brains_agents", "brains_memory_search", "brains_stats"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("tool names mismatch (-want +got):\n%s", diff)
	}

	def := (&OrchestrateTool{}).Definition()
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "message" {
		t.Errorf("orchestrate required = %v, want [message]", def.InputSchema.Required)
	}
}

func TestNew_RegistersTools(t *testing.T) {
	svc := newTestService(t, &testutil.MockProvider{})
	if s := New(svc, "test"); s == nil {
		t.Fatal("New returned nil")
	}
}

func TestOrchestrateTool(t *testing.T) {
	svc := newTestService(t, &testutil.MockProvider{})
	tool := &OrchestrateTool{svc: svc}

	text, isErr := call(t, tool, map[string]any{
		"message": "我需要优化推荐算法的准确率",
		"user_id": "u1",
	})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	for _, want := range []string{"项目摘要", "专家意见", "[算法专家]", "mode full"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestOrchestrateTool_Direct(t *testing.T) {
	mock := &testutil.MockProvider{Responses: []*provider.Response{{Content: "直接回答"}}}
	svc := newTestService(t, mock)

	text, isErr := call(t, &OrchestrateTool{svc: svc}, map[string]any{
		"message":      "召回率怎么提升",
		"target_agent": "algo_scientist",
	})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	if !strings.HasPrefix(text, "直接回答") {
		t.Errorf("text = %q, want the specialist answer first", text)
	}
	if strings.Contains(text, "专家意见") {
		t.Error("direct mode should not list specialist opinions")
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestOrchestrateTool_Errors(t *testing.T) {
	svc := newTestService(t, &testutil.MockProvider{ShouldFail: true})
	tool := &OrchestrateTool{svc: svc}

	if _, isErr := call(t, tool, map[string]any{"message": "  "}); !isErr {
		t.Error("expected error for blank message")
	}
	text, isErr := call(t, tool, map[string]any{"message": "hi"})
	if !isErr {
		t.Fatal("expected error when the provider fails")
	}
	if !strings.Contains(text, "orchestration failed") {
		t.Errorf("text = %q", text)
	}
}

func TestChatTool(t *testing.T) {
	mock := &testutil.MockProvider{Responses: []*provider.Response{{Content: "产品建议"}}}
	svc := newTestService(t, mock)
	tool := &ChatTool{svc: svc}

	text, isErr := call(t, tool, map[string]any{"message": "新功能", "agent_id": "product_lead"})
	if isErr || text != "产品建议" {
		t.Errorf("got (%q, %v), want (产品建议, false)", text, isErr)
	}

	if _, isErr := call(t, tool, map[string]any{"message": "hi", "agent_id": "nobody"}); !isErr {
		t.Error("expected error for unknown agent")
	}
	if _, isErr := call(t, tool, map[string]any{}); !isErr {
		t.Error("expected error for missing message")
	}
}

func TestAgentsTool(t *testing.T) {
	svc := newTestService(t, &testutil.MockProvider{})

	text, isErr := call(t, &AgentsTool{svc: svc}, nil)
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	if !strings.Contains(text, "project_brain") || !strings.Contains(text, "(coordinator)") {
		t.Errorf("coordinator not listed:\n%s", text)
	}
	if !strings.Contains(text, "algo_scientist") {
		t.Errorf("specialist not listed:\n%s", text)
	}
}

func TestMemorySearchAndStats(t *testing.T) {
	mock := &testutil.MockProvider{Responses: []*provider.Response{{Content: "记住了"}}}
	svc := newTestService(t, mock)

	_, isErr := call(t, &ChatTool{svc: svc}, map[string]any{"message": "我喜欢简洁的界面", "user_id": "u9"})
	if isErr {
		t.Fatal("chat failed")
	}

	search := &MemorySearchTool{svc: svc}
	text, isErr := call(t, search, map[string]any{"user_id": "u9", "query": "简洁", "limit": float64(3)})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	if !strings.Contains(text, "Found 1 memories") || !strings.Contains(text, "简洁") {
		t.Errorf("search result:\n%s", text)
	}

	text, _ = call(t, search, map[string]any{"user_id": "nobody-here", "query": "简洁"})
	if text != memory.NoMemories {
		t.Errorf("empty search = %q", text)
	}

	if _, isErr := call(t, search, map[string]any{"user_id": "u9", "agent_id": "nobody"}); !isErr {
		t.Error("expected error for unknown agent scope")
	}

	text, isErr = call(t, &StatsTool{svc: svc}, map[string]any{"user_id": "u9"})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	if !strings.Contains(text, "cached turns: 2/") || !strings.Contains(text, "long-term memories: 1") {
		t.Errorf("stats:\n%s", text)
	}
}

func TestIntArg(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"limit": float64(7), "bad": "x"}

	if got := intArg(req, "limit", 10); got != 7 {
		t.Errorf("limit = %d, want 7", got)
	}
	if got := intArg(req, "bad", 10); got != 10 {
		t.Errorf("bad = %d, want default", got)
	}
	if got := intArg(req, "missing", 10); got != 10 {
		t.Errorf("missing = %d, want default", got)
	}
}
