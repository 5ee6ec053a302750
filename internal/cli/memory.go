package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/service"
)

var (
	memAgent string
	memLimit int
	memJSON  bool
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect long-term memory",
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's memories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMemory(cmd, "")
	},
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a user's memories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMemory(cmd, strings.Join(args, " "))
	},
}

func init() {
	for _, c := range []*cobra.Command{memoryListCmd, memorySearchCmd} {
		c.Flags().StringVarP(&memAgent, "agent", "a", "", "restrict to one agent's scope")
		c.Flags().IntVarP(&memLimit, "limit", "n", 0, "max results")
		c.Flags().BoolVar(&memJSON, "json", false, "print records as JSON")
	}
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memorySearchCmd)
}

func runMemory(cmd *cobra.Command, query string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	records, err := svc.Memories(ctx, service.MemoryQuery{
		RoleID: memAgent,
		Query:  query,
		Limit:  memLimit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if memJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, memory.NoMemories)
		return nil
	}
	fmt.Fprintln(out, memory.Numbered(records, 0))
	return nil
}
