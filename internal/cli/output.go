package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/cadre-oss/brains/internal/crew"
	"github.com/cadre-oss/brains/internal/profile"
)

var (
	okStyle   = color.New(color.FgGreen)
	warnStyle = color.New(color.FgYellow)
	failStyle = color.New(color.FgRed, color.Bold)
	stepStyle = color.New(color.FgCyan)
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	agentStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// renderer prints model answers, through glamour unless plain output was
// requested or rendering fails.
type renderer struct {
	out   io.Writer
	plain bool
	term  *glamour.TermRenderer
}

func newRenderer(out io.Writer, plain bool) *renderer {
	r := &renderer{out: out, plain: plain}
	if !plain {
		term, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			r.term = term
		} else {
			r.plain = true
		}
	}
	return r
}

func (r *renderer) markdown(text string) {
	if !r.plain && r.term != nil {
		if out, err := r.term.Render(text); err == nil {
			fmt.Fprint(r.out, out)
			return
		}
	}
	fmt.Fprintln(r.out, strings.TrimSpace(text))
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}

// result prints a pipeline result: summary, selected roles, specialist
// outputs, then the final answer.
func (r *renderer) result(reg *profile.Registry, res *crew.MultiAgentResult) {
	if res.Mode == crew.ModeFull {
		if res.ProjectSummary != "" {
			fmt.Fprintln(r.out, r.style(titleStyle, "项目摘要"))
			fmt.Fprintln(r.out, r.style(summaryStyle, strings.TrimSpace(res.ProjectSummary)))
		}
		names := make([]string, 0, len(res.SelectedAgents))
		for _, id := range res.SelectedAgents {
			names = append(names, reg.Name(id))
		}
		fmt.Fprintln(r.out, r.style(metaStyle, "参与专家: "+strings.Join(names, ", ")))
		for _, o := range res.SpecialistOutputs {
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, r.style(agentStyle, "["+reg.Name(o.RoleID)+"]"))
			r.markdown(o.Content)
		}
		fmt.Fprintln(r.out)
	}
	r.answer(reg.Name(res.FinalResponse.RoleID), res.FinalResponse.Content, res.FinalResponse.Error)
	fmt.Fprintln(r.out, r.style(metaStyle, fmt.Sprintf("run %s · %s · %s", res.RunID, res.Mode, res.Duration.Round(time.Millisecond))))
}

func (r *renderer) answer(name, content, errMsg string) {
	fmt.Fprintln(r.out, r.style(agentStyle, name+":"))
	r.markdown(content)
	if errMsg != "" {
		fmt.Fprintln(r.out, r.style(errorStyle, "error: "+errMsg))
	}
}

func success(format string, a ...any) {
	okStyle.Printf("✓ "+format+"\n", a...)
}

func warning(format string, a ...any) {
	warnStyle.Fprintf(os.Stderr, "! "+format+"\n", a...)
}
