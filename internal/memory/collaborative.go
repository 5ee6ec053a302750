package memory

import (
	"context"
	"strings"

	"github.com/cadre-oss/brains/internal/profile"
)

// CollabRequest describes one collaborative aggregation.
type CollabRequest struct {
	UserID        string
	RoleID        string
	SessionID     string
	Query         string
	Collaborators []string
	Limit         int
	// IncludeOwn adds the caller's own user-scope and role-scope sections.
	IncludeOwn bool
}

// Section is one rendered group of records.
type Section struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Records []Record `json:"records"`
}

// Collaboration is the aggregate returned by Collaborative.
type Collaboration struct {
	Text      string    `json:"text"`
	Used      bool      `json:"used"`
	Hits      int       `json:"hits"`
	Own       []Section `json:"own,omitempty"`
	Groups    []Section `json:"groups,omitempty"`
	Synthesis []string  `json:"synthesis,omitempty"`
	// Failed counts the lookups the store rejected.
	Failed int `json:"failed,omitempty"`
}

// Collaborative gathers memory across peer roles. Collaborator records are
// grouped by the kind of expertise their profile resolves to, one section per
// group in first-seen order, followed by a deduplicated synthesis drawn from
// an unscoped search of twice the limit. Search failures contribute nothing
// beyond the Failed count.
func (g *Gateway) Collaborative(ctx context.Context, req CollabRequest) Collaboration {
	var out Collaboration
	search := func(opts Options) []Record {
		recs, err := g.Search(ctx, req.UserID, req.Query, opts)
		if err != nil {
			out.Failed++
		}
		return recs
	}

	if req.IncludeOwn {
		if recs := search(Options{Scope: profile.ScopeUser, Limit: req.Limit}); len(recs) > 0 {
			out.Own = append(out.Own, Section{Key: string(profile.ScopeUser), Label: "用户", Records: recs})
		}
		if req.RoleID != "" {
			scope, domain := g.scopeFor(req.RoleID)
			opts := Options{RoleID: req.RoleID, Scope: scope, Domain: domain, Limit: req.Limit}
			if scope == profile.ScopeProject {
				opts.SessionID = req.SessionID
			}
			if recs := search(opts); len(recs) > 0 {
				out.Own = append(out.Own, Section{Key: req.RoleID, Label: g.name(req.RoleID), Records: recs})
			}
		}
	}

	index := make(map[string]int)
	for _, id := range req.Collaborators {
		_, domain := g.scopeFor(id)
		recs := search(Options{
			RoleID: id,
			Scope:  profile.ScopeExpert,
			Domain: domain,
			Limit:  req.Limit,
		})
		if len(recs) == 0 {
			continue
		}
		tmpl := g.template(id)
		i, ok := index[tmpl.Kind]
		if !ok {
			i = len(out.Groups)
			index[tmpl.Kind] = i
			out.Groups = append(out.Groups, Section{Key: tmpl.Kind, Label: tmpl.GroupLabel})
		}
		out.Groups[i].Records = append(out.Groups[i].Records, recs...)
	}

	wide := req.Limit * 2
	broad := search(Options{Limit: wide})
	seen := make(map[string]bool)
	for _, rec := range broad {
		if req.Limit > 0 && len(out.Synthesis) >= req.Limit {
			break
		}
		if rec.Content == "" || seen[rec.Content] {
			continue
		}
		seen[rec.Content] = true
		out.Synthesis = append(out.Synthesis, rec.Content)
	}

	var parts []string
	for _, s := range out.Own {
		parts = append(parts, Tagged(s.Label, s.Records))
		out.Hits += len(s.Records)
	}
	if len(out.Groups) > 0 {
		parts = append(parts, "### 专家见解汇总：")
		for _, s := range out.Groups {
			parts = append(parts, Tagged(s.Label, s.Records))
			out.Hits += len(s.Records)
		}
	}
	if len(out.Synthesis) > 0 {
		parts = append(parts, "### 综合建议：\n- "+strings.Join(out.Synthesis, "\n- "))
	}

	out.Used = out.Hits > 0
	out.Text = NoMemories
	if len(parts) > 0 {
		out.Text = strings.Join(parts, "\n\n")
	}
	return out
}

func (g *Gateway) scopeFor(roleID string) (profile.Scope, string) {
	if g.registry == nil {
		return profile.ScopeUser, ""
	}
	return g.registry.ScopeFor(roleID)
}

func (g *Gateway) name(roleID string) string {
	if g.registry == nil {
		return roleID
	}
	return g.registry.Name(roleID)
}

func (g *Gateway) template(roleID string) profile.Template {
	if g.registry == nil {
		return profile.ResolveTemplate(profile.Profile{ID: roleID})
	}
	return g.registry.Template(roleID)
}
