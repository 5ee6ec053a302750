// Package profile holds the immutable role table: who the agents are, how
// they are selected, and which memory scope each one writes to.
package profile

import (
	"fmt"
	"strings"

	brerrors "github.com/cadre-oss/brains/internal/errors"
)

// Kind distinguishes the coordinating role from specialists.
type Kind string

const (
	KindOrchestrator Kind = "orchestrator"
	KindSpecialist   Kind = "specialist"
)

// Scope partitions long-term memory by owner granularity.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeExpert  Scope = "expert"
	ScopeProject Scope = "project"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeUser, ScopeExpert, ScopeProject:
		return true
	}
	return false
}

// Profile describes one role.
type Profile struct {
	ID            string   `yaml:"id" json:"id" toml:"id"`
	Name          string   `yaml:"name" json:"name" toml:"name"`
	Description   string   `yaml:"description" json:"description" toml:"description"`
	Style         string   `yaml:"style" json:"style" toml:"style"`
	Kind          Kind     `yaml:"kind" json:"kind" toml:"kind"`
	Domain        string   `yaml:"domain,omitempty" json:"domain,omitempty" toml:"domain"`
	Keywords      []string `yaml:"keywords" json:"keywords" toml:"keywords"`
	Collaborators []string `yaml:"collaborators,omitempty" json:"collaborators,omitempty" toml:"collaborators"`
	Instructions  string   `yaml:"instructions" json:"instructions" toml:"instructions"`
}

// DisplayName returns the name, or the id when no name is configured.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Registry is the ordered, read-only profile table.
type Registry struct {
	coordinator string
	order       []string
	byID        map[string]Profile
	templates   map[string]Template
}

// NewRegistry validates profiles and indexes them in the given order.
// Specialists without a domain are assigned their own id as domain.
func NewRegistry(profiles []Profile, coordinator string) (*Registry, error) {
	r := &Registry{
		coordinator: coordinator,
		byID:        make(map[string]Profile, len(profiles)),
		templates:   make(map[string]Template, len(profiles)),
	}

	var problems []string
	for i, p := range profiles {
		p.ID = strings.TrimSpace(p.ID)
		switch {
		case p.ID == "":
			problems = append(problems, fmt.Sprintf("profile[%d]: id is required", i))
			continue
		case r.has(p.ID):
			problems = append(problems, fmt.Sprintf("profile %q: duplicate id", p.ID))
			continue
		}
		if p.Kind == "" {
			p.Kind = KindSpecialist
		}
		if p.Kind != KindOrchestrator && p.Kind != KindSpecialist {
			problems = append(problems, fmt.Sprintf("profile %q: unknown kind %q", p.ID, p.Kind))
			continue
		}
		if p.Kind == KindSpecialist && p.Domain == "" {
			p.Domain = p.ID
		}
		if p.Kind == KindOrchestrator {
			p.Domain = ""
		}
		p.Keywords = append([]string(nil), p.Keywords...)
		p.Collaborators = append([]string(nil), p.Collaborators...)

		r.order = append(r.order, p.ID)
		r.byID[p.ID] = p
		r.templates[p.ID] = ResolveTemplate(p)
	}

	if coordinator != "" {
		if p, ok := r.byID[coordinator]; !ok {
			problems = append(problems, fmt.Sprintf("coordinator %q: no such profile", coordinator))
		} else if p.Kind != KindOrchestrator {
			problems = append(problems, fmt.Sprintf("coordinator %q: kind must be %s", coordinator, KindOrchestrator))
		}
	}

	for _, id := range r.order {
		for _, c := range r.byID[id].Collaborators {
			if !r.has(c) {
				problems = append(problems, fmt.Sprintf("profile %q: unknown collaborator %q", id, c))
			}
		}
	}

	if len(problems) > 0 {
		return nil, brerrors.New(brerrors.CodeConfigInvalid, "invalid profile table:\n  - "+strings.Join(problems, "\n  - ")).
			WithSuggestion("Check the agents section of brains.yaml or the profiles_file it points to")
	}
	return r, nil
}

func (r *Registry) has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Has reports whether id names a profile.
func (r *Registry) Has(id string) bool { return r.has(id) }

// Get returns the profile for id.
func (r *Registry) Get(id string) (Profile, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Lookup is Get with a coded error for unknown ids.
func (r *Registry) Lookup(id string) (Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return Profile{}, brerrors.Newf(brerrors.CodeProfileNotFound, "no agent profile %q", id).
			WithSuggestion("Run 'brains agents' to list the configured roles")
	}
	return p, nil
}

// Coordinator returns the coordinating role id.
func (r *Registry) Coordinator() string { return r.coordinator }

// IsCoordinator reports whether id is the coordinating role.
func (r *Registry) IsCoordinator(id string) bool {
	return id != "" && id == r.coordinator
}

// All returns every profile in configuration order.
func (r *Registry) All() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Specialists returns the specialist profiles in configuration order.
func (r *Registry) Specialists() []Profile {
	var out []Profile
	for _, id := range r.order {
		if p := r.byID[id]; p.Kind == KindSpecialist {
			out = append(out, p)
		}
	}
	return out
}

// Collaborators returns the peer roles consulted by the coordinator: its
// declared collaborators, or every specialist when none are declared.
// max <= 0 means no cap.
func (r *Registry) Collaborators(max int) []string {
	var ids []string
	if p, ok := r.byID[r.coordinator]; ok && len(p.Collaborators) > 0 {
		for _, id := range p.Collaborators {
			if !r.IsCoordinator(id) {
				ids = append(ids, id)
			}
		}
	} else {
		for _, p := range r.Specialists() {
			ids = append(ids, p.ID)
		}
	}
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	return ids
}

// ScopeFor derives the memory scope and domain a role writes under:
// the coordinator writes project memory, specialists write expert memory in
// their domain, anything else writes user memory.
func (r *Registry) ScopeFor(roleID string) (Scope, string) {
	if r.IsCoordinator(roleID) {
		return ScopeProject, ""
	}
	if p, ok := r.byID[roleID]; ok && p.Kind == KindSpecialist {
		return ScopeExpert, p.Domain
	}
	return ScopeUser, ""
}

// Template returns the prompt strategy resolved for a role. Unknown roles
// get the generic strategy.
func (r *Registry) Template(roleID string) Template {
	if t, ok := r.templates[roleID]; ok {
		return t
	}
	return genericTemplate
}

// Name returns the display name for id, or id itself when unknown.
func (r *Registry) Name(id string) string {
	if p, ok := r.byID[id]; ok {
		return p.DisplayName()
	}
	return id
}
