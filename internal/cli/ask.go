package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/brains/internal/service"
)

var (
	askAgent  string
	askTarget string
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask once and print the answer",
	Long: `Run one message through the pipeline and print the result.

  --target <id>  ask one specialist directly (direct mode)
  --agent <id>   talk to a single agent without the pipeline`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askAgent, "agent", "a", "", "single agent to answer, skipping the pipeline")
	askCmd.Flags().StringVarP(&askTarget, "target", "t", "", "specialist to answer directly within the pipeline")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	askCmd.MarkFlagsMutuallyExclusive("agent", "target")
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("message must not be empty")
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	reg := svc.Registry()
	for _, id := range []string{askAgent, askTarget} {
		if id != "" && !reg.Has(id) {
			return fmt.Errorf("unknown agent %q (run 'brains agents')", id)
		}
	}

	out := cmd.OutOrStdout()
	r := newRenderer(out, plain)
	var result any
	var failure string

	if askAgent != "" || !svc.MultiAgentDefault() {
		resp := svc.Chat(ctx, service.ChatInput{RoleID: askAgent, Message: message})
		result, failure = resp, resp.Error
		if !askJSON {
			r.answer(reg.Name(resp.RoleID), resp.Content, resp.Error)
		}
	} else {
		res := svc.Orchestrate(ctx, service.OrchestrateInput{Message: message, TargetRole: askTarget})
		result, failure = res, res.FinalResponse.Error
		if !askJSON {
			r.result(reg, res)
		}
	}

	if askJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	if failure != "" {
		return fmt.Errorf("request failed: %s", failure)
	}
	return nil
}
