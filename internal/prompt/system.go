package prompt

import (
	"fmt"
	"strings"

	"github.com/cadre-oss/brains/internal/profile"
)

// systemPrompt is layer one: identity, instructions, domain guidance, memory
// access notice and the formatting directive.
func (b *Builder) systemPrompt(roleID string, scope profile.Scope, domain string) string {
	p, ok := b.registry.Get(roleID)
	if !ok {
		return fmt.Sprintf("你是%s，一个智能助手。请根据用户的问题提供专业、有用的回答。", roleID)
	}

	var lines []string
	desc := p.Description
	if desc == "" {
		desc = "智能助手"
	}
	lines = append(lines, fmt.Sprintf("你是%s，%s", p.DisplayName(), desc))
	if p.Instructions != "" {
		lines = append(lines, p.Instructions)
	}
	if p.Style != "" {
		lines = append(lines, "表达风格："+p.Style)
	}

	if domain != "" {
		lines = append(lines, "\n## 专业领域", fmt.Sprintf("你专注于%s领域的专业知识。", domain))
		if t := b.registry.Template(roleID); len(t.Guidance) > 0 {
			lines = append(lines, "\n## 回复准则")
			for _, g := range t.Guidance {
				lines = append(lines, "- "+g)
			}
		}
	}

	switch scope {
	case profile.ScopeExpert:
		lines = append(lines, "\n## 记忆访问", "你可以访问特定领域的专家记忆，这些记忆可以帮助你提供更专业的回答。")
	case profile.ScopeProject:
		lines = append(lines, "\n## 记忆访问", "你可以访问项目相关记忆，了解项目历史和上下文。")
	}

	lines = append(lines, "\n## 回复格式", "请提供结构化、条理清晰的回复，使用适当的标题和列表。")
	return strings.Join(lines, "\n")
}
