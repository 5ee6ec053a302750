package profile

import "strings"

// Template is the prompt-building strategy for a role. It is resolved once
// per profile when the registry is built.
type Template struct {
	Kind       string // coordinator, product, algorithm, architecture, general
	Title      string // how the role is introduced in task prompts
	GroupLabel string // subsection label in collaborative memory
	GuideLabel string
	Angle      string   // the perspective a specialist task asks for
	Guidance   []string // reply guidelines in the system prompt
	Focus      []string // numbered focus list in specialist task prompts
	Closing    string
}

var productTemplate = Template{
	Kind:       "product",
	Title:      "一位资深产品专家",
	GroupLabel: "产品专家",
	GuideLabel: "产品专家工作指南",
	Angle:      "从产品角度进行深入分析并提供专业建议",
	Guidance: []string{
		"注重用户体验和产品价值",
		"提供具体、可落地的产品建议",
		"考虑市场和商业价值",
	},
	Focus: []string{
		"用户需求的核心价值点和潜在痛点",
		"功能范围界定和优先级排序",
		"用户体验设计和交互流程建议",
		"产品路线图和迭代计划",
		"成功指标和验收标准",
	},
	Closing: "请给出详细、可操作的产品建议，帮助团队明确产品方向和实现路径。",
}

var algorithmTemplate = Template{
	Kind:       "algorithm",
	Title:      "一位资深算法专家",
	GroupLabel: "算法专家",
	GuideLabel: "算法专家工作指南",
	Angle:      "从算法和技术角度进行深入分析并提供专业建议",
	Guidance: []string{
		"注重算法的可行性和效率",
		"提供技术细节和实现思路",
		"考虑计算资源和性能优化",
	},
	Focus: []string{
		"问题的算法本质和技术路径",
		"候选算法方案的比较和选型建议",
		"数据需求和质量要求",
		"模型复杂度和算力评估",
		"性能瓶颈预测和优化方向",
		"实验设计和评估指标",
	},
	Closing: "请给出严谨的算法方案，说明选型依据和实施建议。",
}

var architectureTemplate = Template{
	Kind:       "architecture",
	Title:      "一位资深解决方案架构师",
	GroupLabel: "架构师",
	GuideLabel: "架构师工作指南",
	Angle:      "从系统架构和技术实现角度进行深入分析并提供专业建议",
	Guidance: []string{
		"注重系统的可扩展性和稳定性",
		"提供整体架构设计和组件划分",
		"考虑技术栈选型和集成方案",
	},
	Focus: []string{
		"端到端系统架构设计",
		"技术栈选型和组件划分",
		"接口规范和集成策略",
		"部署架构和资源规划",
		"数据流转和存储方案",
		"性能、安全和扩展性评估",
	},
	Closing: "请给出可落地的架构方案，确保系统的可行性、可扩展性和可维护性。",
}

var coordinatorTemplate = Template{
	Kind:       "coordinator",
	Title:      "项目大脑",
	GroupLabel: "项目",
	GuideLabel: "内部执行手册",
	Focus: []string{
		"项目目标摘要",
		"关键风险与依赖",
		"需要协调的专家领域",
	},
}

var genericTemplate = Template{
	Kind:       "general",
	Title:      "负责给出专业建议的专家",
	GroupLabel: "其他专家",
	GuideLabel: "专家工作守则",
	Angle:      "输出你的专业分析和建议",
	Closing:    "请结合项目摘要与用户需求，给出你的专业分析和建议。",
}

// strategies is consulted in order; the first entry whose hints match the
// role's domain wins.
var strategies = []struct {
	hints []string
	tmpl  Template
}{
	{[]string{"product", "产品"}, productTemplate},
	{[]string{"algorithm", "algo", "算法"}, algorithmTemplate},
	{[]string{"architecture", "architect", "架构"}, architectureTemplate},
}

// ResolveTemplate picks the strategy for a profile by keyword match on its
// domain. The coordinator always gets the coordinator strategy.
func ResolveTemplate(p Profile) Template {
	if p.Kind == KindOrchestrator {
		return coordinatorTemplate
	}
	domain := strings.ToLower(p.Domain)
	for _, s := range strategies {
		for _, h := range s.hints {
			if strings.Contains(domain, h) {
				return s.tmpl
			}
		}
	}
	return genericTemplate
}

// Generic reports whether t is the fallback strategy.
func (t Template) Generic() bool { return t.Kind == genericTemplate.Kind }
