package memory

import (
	"fmt"
	"sort"
	"strings"
)

// TimeLayout is how record timestamps are rendered in prompts.
const TimeLayout = "2006-01-02 15:04:05"

// NoMemories is rendered when an aggregation finds nothing.
const NoMemories = "暂无相关记忆"

// Numbered renders at most max records as "i. content" lines, with the
// creation time and relevance appended when known. max <= 0 means all.
func Numbered(records []Record, max int) string {
	if max > 0 && len(records) > max {
		records = records[:max]
	}
	lines := make([]string, 0, len(records))
	for i, rec := range records {
		line := fmt.Sprintf("%d. %s", i+1, rec.Content)
		if !rec.CreatedAt.IsZero() {
			line += fmt.Sprintf(" (时间: %s)", rec.CreatedAt.Format(TimeLayout))
		}
		if rec.Score != nil && *rec.Score > 0 {
			line += fmt.Sprintf(" [相关度: %.2f]", *rec.Score)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Tagged renders a "### label 的记忆片段：" block, most relevant first, each
// line tagged with its scope and relevance.
func Tagged(label string, records []Record) string {
	sorted := append([]Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scoreOf(sorted[i]) > scoreOf(sorted[j])
	})

	var b strings.Builder
	fmt.Fprintf(&b, "### %s 的记忆片段：", label)
	for _, rec := range sorted {
		var tags []string
		if rec.Scope != "" && rec.Scope != "general" {
			tags = append(tags, "["+string(rec.Scope)+"]")
		}
		if rec.Score != nil && *rec.Score > 0 {
			tags = append(tags, fmt.Sprintf("[相关度: %.2f]", *rec.Score))
		}
		b.WriteString("\n- ")
		if len(tags) > 0 {
			b.WriteString(strings.Join(tags, " "))
			b.WriteByte(' ')
		}
		b.WriteString(rec.Content)
	}
	return b.String()
}

func scoreOf(r Record) float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}
