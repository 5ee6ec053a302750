package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/brains/internal/profile"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List configured agents",
	RunE:  runAgents,
}

func runAgents(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	printAgents(cmd.OutOrStdout(), reg, newRenderer(cmd.OutOrStdout(), true))
	return nil
}

func printAgents(w io.Writer, reg *profile.Registry, r *renderer) {
	for _, p := range reg.All() {
		label := fmt.Sprintf("%s (%s)", p.DisplayName(), p.ID)
		if reg.IsCoordinator(p.ID) {
			label += " [coordinator]"
		}
		fmt.Fprintln(w, r.style(agentStyle, label))
		if p.Description != "" {
			fmt.Fprintf(w, "  %s\n", p.Description)
		}
		scope, domain := reg.ScopeFor(p.ID)
		meta := "scope: " + string(scope)
		if domain != "" {
			meta += ", domain: " + domain
		}
		fmt.Fprintln(w, r.style(metaStyle, "  "+meta))
		if len(p.Keywords) > 0 {
			fmt.Fprintln(w, r.style(metaStyle, "  keywords: "+strings.Join(p.Keywords, ", ")))
		}
	}
}
