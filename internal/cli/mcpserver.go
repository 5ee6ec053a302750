package cli

import (
	"github.com/spf13/cobra"

	"github.com/cadre-oss/brains/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Serve the brains tools (orchestrate, chat, agents, memory search, stats)
over the Model Context Protocol on stdin/stdout, for use from MCP clients.`,
	RunE: runMCP,
}

func runMCP(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// stdout carries the protocol; logs stay on stderr.
	svc, err := openService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	return mcp.Serve(svc, Version)
}
