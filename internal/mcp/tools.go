package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cadre-oss/brains/internal/crew"
	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/service"
)

// Tool is one MCP tool: its schema and its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Tools returns every brains tool bound to svc.
func Tools(svc *service.Service) []Tool {
	return []Tool{
		&OrchestrateTool{svc: svc},
		&ChatTool{svc: svc},
		&AgentsTool{svc: svc},
		&MemorySearchTool{svc: svc},
		&StatsTool{svc: svc},
	}
}

// OrchestrateTool handles brains_orchestrate.
type OrchestrateTool struct {
	svc *service.Service
}

func (t *OrchestrateTool) Definition() mcp.Tool {
	return mcp.NewTool("brains_orchestrate",
		mcp.WithDescription(
			"Run a request through the project brain: it summarises the request, consults the relevant "+
				"specialists, and returns a synthesised plan. Set target_agent to ask one specialist directly.",
		),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's request")),
		mcp.WithString("user_id", mcp.Description("User whose memories and history apply")),
		mcp.WithString("session_id", mcp.Description("Session identifier")),
		mcp.WithString("target_agent", mcp.Description("Specialist id to answer directly, skipping the pipeline")),
	)
}

func (t *OrchestrateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := strings.TrimSpace(req.GetString("message", ""))
	if message == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}

	res := t.svc.Orchestrate(ctx, service.OrchestrateInput{
		UserID:     req.GetString("user_id", ""),
		SessionID:  req.GetString("session_id", ""),
		Message:    message,
		TargetRole: req.GetString("target_agent", ""),
	})
	if res.FinalResponse.Failed() {
		return mcp.NewToolResultError(fmt.Sprintf("orchestration failed: %s", res.FinalResponse.Error)), nil
	}

	reg := t.svc.Registry()
	var b strings.Builder
	b.WriteString(res.FinalResponse.Content)
	if res.ProjectSummary != "" {
		fmt.Fprintf(&b, "\n\n---\n项目摘要:\n%s", res.ProjectSummary)
	}
	if len(res.SpecialistOutputs) > 0 && res.Mode == crew.ModeFull {
		b.WriteString("\n\n专家意见:")
		for _, o := range res.SpecialistOutputs {
			fmt.Fprintf(&b, "\n\n[%s]\n%s", reg.Name(o.RoleID), o.Content)
		}
	}
	fmt.Fprintf(&b, "\n\n(run %s, mode %s)", res.RunID, res.Mode)
	return mcp.NewToolResultText(b.String()), nil
}

// ChatTool handles brains_chat.
type ChatTool struct {
	svc *service.Service
}

func (t *ChatTool) Definition() mcp.Tool {
	return mcp.NewTool("brains_chat",
		mcp.WithDescription("Talk to a single agent with its memory and conversation history."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("agent_id", mcp.Description("Agent to answer (default: the configured default agent)")),
		mcp.WithString("user_id", mcp.Description("User whose memories and history apply")),
		mcp.WithString("session_id", mcp.Description("Session identifier")),
	)
}

func (t *ChatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := strings.TrimSpace(req.GetString("message", ""))
	if message == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}
	agentID := req.GetString("agent_id", "")
	if agentID != "" && !t.svc.Registry().Has(agentID) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown agent %q", agentID)), nil
	}

	resp := t.svc.Chat(ctx, service.ChatInput{
		UserID:    req.GetString("user_id", ""),
		SessionID: req.GetString("session_id", ""),
		RoleID:    agentID,
		Message:   message,
	})
	if resp.Failed() {
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %s", resp.Error)), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}

// AgentsTool handles brains_agents.
type AgentsTool struct {
	svc *service.Service
}

func (t *AgentsTool) Definition() mcp.Tool {
	return mcp.NewTool("brains_agents",
		mcp.WithDescription("List the configured agents with their domains and keywords."),
	)
}

func (t *AgentsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := t.svc.Registry()
	var b strings.Builder
	for _, p := range t.svc.Profiles() {
		marker := ""
		if reg.IsCoordinator(p.ID) {
			marker = " (coordinator)"
		}
		fmt.Fprintf(&b, "- %s: %s%s\n", p.ID, p.DisplayName(), marker)
		if p.Description != "" {
			fmt.Fprintf(&b, "    %s\n", p.Description)
		}
		if p.Domain != "" {
			fmt.Fprintf(&b, "    domain: %s\n", p.Domain)
		}
		if len(p.Keywords) > 0 {
			fmt.Fprintf(&b, "    keywords: %s\n", strings.Join(p.Keywords, ", "))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// MemorySearchTool handles brains_memory_search.
type MemorySearchTool struct {
	svc *service.Service
}

func (t *MemorySearchTool) Definition() mcp.Tool {
	return mcp.NewTool("brains_memory_search",
		mcp.WithDescription("Search a user's long-term memories, optionally within one agent's scope."),
		mcp.WithString("query", mcp.Description("Search text; empty lists recent memories")),
		mcp.WithString("user_id", mcp.Description("User whose memories to search")),
		mcp.WithString("agent_id", mcp.Description("Restrict to memories written by this agent")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 10)")),
	)
}

func (t *MemorySearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := t.svc.Memories(ctx, service.MemoryQuery{
		UserID: req.GetString("user_id", ""),
		RoleID: req.GetString("agent_id", ""),
		Query:  req.GetString("query", ""),
		Limit:  intArg(req, "limit", 10),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("memory search failed: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(memory.NoMemories), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %d memories:\n\n%s", len(records), memory.Numbered(records, 0))), nil
}

// StatsTool handles brains_stats.
type StatsTool struct {
	svc *service.Service
}

func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("brains_stats",
		mcp.WithDescription("Show a user's cached conversation size and long-term memory count."),
		mcp.WithString("user_id", mcp.Description("User to report on")),
	)
}

func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := t.svc.Stats(ctx, req.GetString("user_id", ""))
	total := "unavailable"
	if st.TotalMemories != nil {
		total = fmt.Sprint(*st.TotalMemories)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"user: %s\ncached turns: %d/%d\nlong-term memories: %s",
		st.UserID, st.CachedConversations, st.CacheMaxSize, total,
	)), nil
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
