package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumbered(t *testing.T) {
	score := 0.5
	recs := []Record{
		{Content: "a", CreatedAt: time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)},
		{Content: "b", Score: &score},
		{Content: "c"},
	}
	assert.Equal(t, "1. a (时间: 2025-05-06 07:08:09)\n2. b [相关度: 0.50]", Numbered(recs, 2))
	assert.Equal(t, "1. a (时间: 2025-05-06 07:08:09)\n2. b [相关度: 0.50]\n3. c", Numbered(recs, 0))
	assert.Empty(t, Numbered(nil, 3))
}

func TestTagged(t *testing.T) {
	lo, hi := 0.2, 0.9
	recs := []Record{
		{Content: "low", Scope: "expert", Score: &lo},
		{Content: "plain", Scope: "general"},
		{Content: "high", Scope: "project", Score: &hi},
	}
	want := "### 架构师 的记忆片段：\n" +
		"- [project] [相关度: 0.90] high\n" +
		"- [expert] [相关度: 0.20] low\n" +
		"- plain"
	assert.Equal(t, want, Tagged("架构师", recs))
}
