package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cadre-oss/brains/internal/profile"
)

// Normalize converts a store result document into records. It accepts a
// {"results": [...]} object or a bare list; any other shape, including
// invalid JSON, yields an empty slice.
func Normalize(raw json.RawMessage) []Record {
	var doc any
	if len(raw) == 0 || json.Unmarshal(raw, &doc) != nil {
		return []Record{}
	}

	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		results, ok := v["results"].([]any)
		if !ok {
			return []Record{}
		}
		list = results
	default:
		return []Record{}
	}

	records := make([]Record, 0, len(list))
	for _, entry := range list {
		if rec, ok := recordFrom(entry); ok {
			records = append(records, rec)
		}
	}
	return records
}

func recordFrom(entry any) (Record, bool) {
	switch v := entry.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return Record{}, false
		}
		return Record{Content: v}, true
	case map[string]any:
		rec := Record{
			Content: firstString(v, "memory", "content", "text"),
			ID:      stringField(v, "id"),
			UserID:  stringField(v, "user_id"),
			RoleID:  stringField(v, "agent_id"),
		}
		if rec.Content == "" {
			return Record{}, false
		}
		rec.SessionID = firstString(v, "run_id", "session_id")
		if meta, ok := v["metadata"].(map[string]any); ok {
			rec.Metadata = meta
			rec.Scope = profile.Scope(stringField(meta, MetaScope))
			rec.Domain = stringField(meta, MetaDomain)
			if rec.RoleID == "" {
				rec.RoleID = stringField(meta, MetaRole)
			}
			if rec.SessionID == "" {
				rec.SessionID = stringField(meta, MetaSession)
			}
		}
		if s, ok := v["score"].(float64); ok {
			rec.Score = &s
		}
		rec.CreatedAt = parseTime(stringField(v, "created_at"))
		return rec, true
	}
	return Record{}, false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64, bool:
		return fmt.Sprint(v)
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
