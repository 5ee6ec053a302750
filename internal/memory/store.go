// Package memory is the gateway between the pipeline and a long-term
// memory store. It partitions records by scope, tags writes with scope
// metadata, and normalises whatever shape the store returns.
package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cadre-oss/brains/internal/profile"
)

// Metadata keys attached to every write.
const (
	MetaScope   = "memory_type"
	MetaDomain  = "expert_domain"
	MetaRole    = "agent_id"
	MetaSession = "session_id"
	MetaCopy    = "copy" // "user" or "role"
	MetaSource  = "source"
)

const (
	copyUser = "user"
	copyRole = "role"
)

// Record is a normalised memory as seen by the pipeline.
type Record struct {
	ID        string         `json:"id,omitempty"`
	Content   string         `json:"content"`
	UserID    string         `json:"user_id,omitempty"`
	RoleID    string         `json:"role_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Scope     profile.Scope  `json:"scope,omitempty"`
	Domain    string         `json:"domain,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Entry is one piece of text handed to Store.Add.
type Entry struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AddOptions scopes a write. Empty fields are omitted.
type AddOptions struct {
	UserID    string
	RoleID    string
	SessionID string
}

// QueryOptions scopes a search or listing. Filters match metadata values
// exactly.
type QueryOptions struct {
	UserID    string
	RoleID    string
	SessionID string
	Filters   map[string]string
	Limit     int
}

// Store is the external long-term memory engine. Search and GetAll return
// the store's own result document; the gateway normalises it.
type Store interface {
	Add(ctx context.Context, entries []Entry, opts AddOptions) error
	Search(ctx context.Context, query string, opts QueryOptions) (json.RawMessage, error)
	GetAll(ctx context.Context, opts QueryOptions) (json.RawMessage, error)
	Ping(ctx context.Context) error
	Close() error
}

// Capabilities records which optional parameters a store accepts.
type Capabilities struct {
	SearchRole    bool `json:"search_role"`
	SearchSession bool `json:"search_session"`
	SearchFilters bool `json:"search_filters"`
	AddRole       bool `json:"add_role"`
	AddSession    bool `json:"add_session"`
	ListRole      bool `json:"list_role"`
	ListSession   bool `json:"list_session"`
	ListFilters   bool `json:"list_filters"`
}

// FullCapabilities is reported by stores that honour every option.
func FullCapabilities() Capabilities {
	return Capabilities{
		SearchRole: true, SearchSession: true, SearchFilters: true,
		AddRole: true, AddSession: true,
		ListRole: true, ListSession: true, ListFilters: true,
	}
}

// Prober is implemented by stores that can report their capabilities.
type Prober interface {
	Capabilities(ctx context.Context) (Capabilities, error)
}
