// Package mcp exposes the orchestration pipeline as MCP tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/cadre-oss/brains/internal/service"
)

const serverName = "brains"

// New creates an MCP server with every brains tool registered.
func New(svc *service.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	for _, t := range Tools(svc) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(svc *service.Service, version string) error {
	return server.ServeStdio(New(svc, version))
}

const instructions = `brains is a multi-agent project assistant. A coordinating "project brain" summarises the request, ` +
	`delegates to specialist brains (product, algorithm, architecture by default), and synthesises their feedback. ` +
	`Use brains_orchestrate for project questions, brains_chat to talk to one agent, brains_agents to list agents, ` +
	`brains_memory_search to look up what a user has told the agents before, and brains_stats for per-user state.`
