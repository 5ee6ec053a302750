package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinatorBrief(t *testing.T) {
	got := CoordinatorBrief(testRegistry(t), "做一个推荐系统")
	assert.True(t, strings.HasPrefix(got, "你是 项目大脑，"))
	assert.Contains(t, got, "1. 项目目标摘要\n2. 关键风险与依赖\n3. 需要协调的专家领域\n")
	assert.Contains(t, got, "[内部执行手册]\n1. 分析项目需求")
	assert.True(t, strings.HasSuffix(got, "[用户输入]\n做一个推荐系统"))
}

func TestSpecialistTask(t *testing.T) {
	reg := testRegistry(t)

	got := SpecialistTask(reg, "algo_scientist", "做推荐", "摘要内容")
	assert.True(t, strings.HasPrefix(got, "你是 算法专家，一位资深算法专家。\n请基于用户需求和项目摘要，从算法和技术角度"))
	assert.Contains(t, got, "6. 实验设计和评估指标\n")
	assert.Contains(t, got, "[算法专家工作指南]\n")
	assert.Contains(t, got, "[项目概述]\n摘要内容\n\n[用户需求]\n做推荐")
	assert.True(t, strings.HasSuffix(got, "请给出严谨的算法方案，说明选型依据和实施建议。"))

	generic := SpecialistTask(reg, "unknown_role", "q", "s")
	assert.True(t, strings.HasPrefix(generic, "你是 unknown_role，负责给出专业建议的专家。"))
	assert.Contains(t, generic, "表达风格：专业、清晰")
	assert.NotContains(t, generic, "请重点关注")
}

func TestSynthesis(t *testing.T) {
	reg := testRegistry(t)

	got := Synthesis(reg, "原始问题", "摘要", []Feedback{
		{RoleID: "product_lead", Content: "产品意见"},
		{RoleID: "solution_architect", Content: "架构意见"},
	})
	assert.Contains(t, got, "[专家反馈汇总]\n- 产品负责人 专家反馈：产品意见\n\n- ")
	assert.Contains(t, got, "[项目大脑摘要]\n摘要\n\n")
	assert.True(t, strings.HasSuffix(got, "[用户输入]\n原始问题"))

	empty := Synthesis(reg, "q", "s", nil)
	assert.Contains(t, empty, "[专家反馈汇总]\n暂无专家反馈。\n\n")
}
