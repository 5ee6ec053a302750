package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/brains/internal/service"
)

var (
	chatAgent  string
	chatSingle bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive console with the project brain",
	Long: `Start an interactive console. Each message runs through the project
brain and its specialists unless --single is set or /mode single is used.

Type /help inside the console for commands.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatAgent, "agent", "a", "", "agent to talk to (direct mode with the pipeline, sole agent with --single)")
	chatCmd.Flags().BoolVar(&chatSingle, "single", false, "talk to one agent without the multi-agent pipeline")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	if chatAgent != "" && !svc.Registry().Has(chatAgent) {
		return fmt.Errorf("unknown agent %q (run 'brains agents')", chatAgent)
	}

	cfg := svc.Config()
	r := &repl{
		svc:       svc,
		out:       cmd.OutOrStdout(),
		render:    newRenderer(cmd.OutOrStdout(), plain),
		userID:    cfg.Defaults.UserID,
		sessionID: cfg.Defaults.SessionID,
		agentID:   chatAgent,
		multi:     svc.MultiAgentDefault() && !chatSingle,
	}
	return r.run(ctx, os.Stdin)
}

// repl is the line-oriented console behind 'brains chat'.
type repl struct {
	svc    *service.Service
	out    io.Writer
	render *renderer

	userID    string
	sessionID string
	agentID   string
	multi     bool
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.banner()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprintf(r.out, "\n%s> ", r.userID)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if r.command(ctx, line) {
				return nil
			}
			continue
		}
		r.ask(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) banner() {
	fmt.Fprintln(r.out, r.render.style(titleStyle, "brains console"))
	fmt.Fprintf(r.out, "user %s · session %s · %s\n", r.userID, r.sessionID, r.modeLabel())
	fmt.Fprintln(r.out, "Type /help for commands, /exit to quit.")
}

func (r *repl) modeLabel() string {
	switch {
	case r.multi && r.agentID != "":
		return "direct: " + r.agentID
	case r.multi:
		return "multi-agent"
	case r.agentID != "":
		return "single: " + r.agentID
	default:
		return "single: " + r.svc.Config().Pipeline.DefaultAgent
	}
}

func (r *repl) ask(ctx context.Context, message string) {
	if r.multi {
		res := r.svc.Orchestrate(ctx, service.OrchestrateInput{
			UserID:     r.userID,
			SessionID:  r.sessionID,
			Message:    message,
			TargetRole: r.agentID,
		})
		r.render.result(r.svc.Registry(), res)
		return
	}
	resp := r.svc.Chat(ctx, service.ChatInput{
		UserID:    r.userID,
		SessionID: r.sessionID,
		RoleID:    r.agentID,
		Message:   message,
	})
	r.render.answer(r.svc.Registry().Name(resp.RoleID), resp.Content, resp.Error)
}

// command handles a slash command and reports whether the console should
// exit.
func (r *repl) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/exit", "/quit":
		fmt.Fprintln(r.out, "再见!")
		return true
	case "/help":
		r.help()
	case "/stats":
		st := r.svc.Stats(ctx, r.userID)
		total := "unavailable"
		if st.TotalMemories != nil {
			total = fmt.Sprint(*st.TotalMemories)
		}
		fmt.Fprintf(r.out, "user: %s\ncached turns: %d/%d\nlong-term memories: %s\n",
			st.UserID, st.CachedConversations, st.CacheMaxSize, total)
	case "/clear":
		r.svc.ClearHistory(r.userID)
		fmt.Fprintf(r.out, "Cleared conversation history for %s\n", r.userID)
	case "/agents":
		printAgents(r.out, r.svc.Registry(), r.render)
	case "/user":
		if arg == "" {
			fmt.Fprintf(r.out, "user: %s\n", r.userID)
			break
		}
		r.userID = arg
		fmt.Fprintf(r.out, "Switched to user %s\n", arg)
	case "/session":
		if arg == "" {
			fmt.Fprintf(r.out, "session: %s\n", r.sessionID)
			break
		}
		r.sessionID = arg
		fmt.Fprintf(r.out, "Switched to session %s\n", arg)
	case "/agent":
		if arg == "" || arg == "none" {
			r.agentID = ""
			fmt.Fprintf(r.out, "Mode: %s\n", r.modeLabel())
			break
		}
		if !r.svc.Registry().Has(arg) {
			fmt.Fprintf(r.out, "Unknown agent %q. Use /agents to list them.\n", arg)
			break
		}
		r.agentID = arg
		fmt.Fprintf(r.out, "Mode: %s\n", r.modeLabel())
	case "/mode":
		switch arg {
		case "multi":
			r.multi = true
		case "single":
			r.multi = false
		default:
			fmt.Fprintln(r.out, "Usage: /mode multi|single")
			return false
		}
		fmt.Fprintf(r.out, "Mode: %s\n", r.modeLabel())
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help for commands.\n", fields[0])
	}
	return false
}

func (r *repl) help() {
	fmt.Fprint(r.out, `Commands:
  /stats            show cache and memory counts for the current user
  /clear            clear the current user's conversation history
  /agents           list agents
  /user <id>        switch user
  /session <id>     switch session
  /agent <id>       talk to one agent (/agent none to reset)
  /mode multi|single  toggle the multi-agent pipeline
  /help             show this help
  /exit             quit
`)
}
