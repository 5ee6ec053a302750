package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Item is the stored form used by the bundled backends. Its JSON shape is
// the keyed-collection document Normalize expects.
type Item struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory"`
	UserID    string         `json:"user_id"`
	AgentID   string         `json:"agent_id,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewItems turns entries into items with fresh ids.
func NewItems(entries []Entry, opts AddOptions, now time.Time) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{
			ID:        uuid.NewString(),
			Memory:    e.Text,
			UserID:    opts.UserID,
			AgentID:   opts.RoleID,
			RunID:     opts.SessionID,
			Metadata:  e.Metadata,
			CreatedAt: now,
		})
	}
	return items
}

// Matches reports whether the item satisfies the ownership and metadata
// constraints in opts. Limit is ignored.
func (it Item) Matches(opts QueryOptions) bool {
	if opts.UserID != "" && it.UserID != opts.UserID {
		return false
	}
	if opts.RoleID != "" && it.AgentID != opts.RoleID {
		return false
	}
	if opts.SessionID != "" && it.RunID != opts.SessionID {
		return false
	}
	return MatchFilters(it.Metadata, opts.Filters)
}

// MatchFilters reports whether every filter equals the metadata value.
func MatchFilters(meta map[string]any, filters map[string]string) bool {
	for k, want := range filters {
		v, ok := meta[k]
		if !ok || v == nil || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

// Rank scores items against query and returns the best limit of them,
// highest score first, newer first on ties. Items with no overlap are
// dropped. A query with no terms ranks by recency alone.
func Rank(items []Item, query string, limit int) []Item {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return Recent(items, limit)
	}

	ranked := make([]Item, 0, len(items))
	for _, it := range items {
		s := Overlap(terms, it.Memory)
		if s <= 0 {
			continue
		}
		it.Score = &s
		ranked = append(ranked, it)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].Score != *ranked[j].Score {
			return *ranked[i].Score > *ranked[j].Score
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return truncate(ranked, limit)
}

// Recent returns the newest limit items, newest first.
func Recent(items []Item, limit int) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return truncate(out, limit)
}

func truncate(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// EncodeResults wraps items in the {"results": [...]} document.
func EncodeResults(items []Item) (json.RawMessage, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(struct {
		Results []Item `json:"results"`
	}{items})
}
