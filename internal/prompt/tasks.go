package prompt

import (
	"fmt"
	"strings"

	"github.com/cadre-oss/brains/internal/profile"
)

// Feedback is one specialist's contribution to the synthesis prompt.
type Feedback struct {
	RoleID  string
	Content string
}

// CoordinatorBrief asks the coordinating role for a project summary.
func CoordinatorBrief(reg *profile.Registry, message string) string {
	p, _ := reg.Get(reg.Coordinator())
	t := reg.Template(reg.Coordinator())

	var b strings.Builder
	fmt.Fprintf(&b, "你是 %s，%s\n", nameOr(p, t.Title), p.Description)
	b.WriteString("作为项目大脑，你需要整合所有专家意见，协调各方面资源。\n")
	b.WriteString("请输出：\n")
	numbered(&b, t.Focus)
	b.WriteString("请使用分点形式，语言简练。\n\n")
	fmt.Fprintf(&b, "[%s]\n%s\n\n", t.GuideLabel, p.Instructions)
	fmt.Fprintf(&b, "[用户输入]\n%s", message)
	return b.String()
}

// SpecialistTask builds the delegation prompt for one specialist from its
// template strategy.
func SpecialistTask(reg *profile.Registry, roleID, message, summary string) string {
	p, ok := reg.Get(roleID)
	if !ok {
		p = profile.Profile{ID: roleID}
	}
	t := reg.Template(roleID)
	style := p.Style
	if style == "" {
		style = "专业、清晰"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "你是 %s，%s。\n", p.DisplayName(), t.Title)
	fmt.Fprintf(&b, "请基于用户需求和项目摘要，%s。\n", t.Angle)
	if len(t.Focus) > 0 {
		b.WriteString("请重点关注：\n")
		numbered(&b, t.Focus)
	}
	fmt.Fprintf(&b, "表达风格：%s\n\n", style)
	fmt.Fprintf(&b, "[%s]\n%s\n\n", t.GuideLabel, p.Instructions)
	fmt.Fprintf(&b, "[项目概述]\n%s\n\n", summary)
	fmt.Fprintf(&b, "[用户需求]\n%s", message)
	if t.Closing != "" {
		b.WriteString("\n\n" + t.Closing)
	}
	return b.String()
}

// Synthesis asks the coordinating role to merge every specialist's output
// into the final answer.
func Synthesis(reg *profile.Registry, message, summary string, feedback []Feedback) string {
	lines := make([]string, 0, len(feedback))
	for _, f := range feedback {
		lines = append(lines, fmt.Sprintf("- %s 专家反馈：%s", reg.Name(f.RoleID), f.Content))
	}
	section := strings.Join(lines, "\n\n")
	if section == "" {
		section = "暂无专家反馈。"
	}

	p, _ := reg.Get(reg.Coordinator())
	t := reg.Template(reg.Coordinator())

	var b strings.Builder
	fmt.Fprintf(&b, "你是 %s，需要整合所有专家意见，对用户给出结构化的项目方案。\n", nameOr(p, t.Title))
	b.WriteString("请输出：\n")
	b.WriteString("1. 总体策略/路线\n")
	b.WriteString("2. 按角色分配的行动项与里程碑\n")
	b.WriteString("3. 风险与待澄清问题\n")
	b.WriteString("必须引用具体专家结论或记忆来源。\n\n")
	fmt.Fprintf(&b, "[项目大脑摘要]\n%s\n\n", summary)
	fmt.Fprintf(&b, "[专家反馈汇总]\n%s\n\n", section)
	fmt.Fprintf(&b, "[用户输入]\n%s", message)
	return b.String()
}

func numbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

func nameOr(p profile.Profile, fallback string) string {
	if p.Name != "" {
		return p.Name
	}
	return fallback
}
