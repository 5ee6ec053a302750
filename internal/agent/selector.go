package agent

import (
	"sort"
	"strings"

	"github.com/cadre-oss/brains/internal/profile"
)

// Selector picks the specialists relevant to a message by keyword counts.
type Selector struct {
	registry *profile.Registry
	max      int
	fallback []string
}

// NewSelector returns a selector capped at max roles (<= 0 means no cap).
// Fallback ids unknown to the registry, or naming the coordinator, are
// dropped.
func NewSelector(registry *profile.Registry, max int, fallback []string) *Selector {
	var fb []string
	for _, id := range fallback {
		if registry.Has(id) && !registry.IsCoordinator(id) {
			fb = append(fb, id)
		}
	}
	return &Selector{registry: registry, max: max, fallback: fb}
}

// Select scores every specialist by how often its keywords occur in the
// message, case-insensitively, and returns the ids with a positive score,
// highest first. Ties keep registry order. With no match it returns the
// fallback list.
func (s *Selector) Select(message string) []string {
	text := strings.ToLower(message)

	type scored struct {
		id    string
		score int
	}
	var hits []scored
	for _, p := range s.registry.Specialists() {
		score := 0
		for _, kw := range p.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			score += strings.Count(text, kw)
		}
		if score > 0 {
			hits = append(hits, scored{p.ID, score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	if len(ids) == 0 {
		ids = append(ids, s.fallback...)
	}
	if s.max > 0 && len(ids) > s.max {
		ids = ids[:s.max]
	}
	return ids
}
