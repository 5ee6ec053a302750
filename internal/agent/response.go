package agent

import (
	"time"

	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/provider"
)

// ChatRequest is one role invocation.
type ChatRequest struct {
	UserID    string
	RoleID    string
	SessionID string
	// Message is the user's own text. It keys memory lookups and is what
	// the conversation cache and memory write-back record.
	Message string
	// Prompt is the text sent as the final user fragment. It defaults to
	// Message; orchestration puts task templates here.
	Prompt   string
	External string
	Scope    profile.Scope
	// Persist appends the exchange to the conversation cache.
	Persist bool
	// StoreMemory writes the exchange back to long-term memory.
	StoreMemory bool
}

// ChatResponse is the outcome of one invocation. Failures are carried in
// Error rather than returned.
type ChatResponse struct {
	Content       string         `json:"content"`
	UserID        string         `json:"user_id"`
	RoleID        string         `json:"agent_id"`
	SessionID     string         `json:"session_id"`
	Error         string         `json:"error,omitempty"`
	MemoryUsed    bool           `json:"memory_used"`
	MemoryCount   int            `json:"memories_count"`
	Collaborators []string       `json:"collaborators,omitempty"`
	Degraded      bool           `json:"degraded,omitempty"`
	Usage         provider.Usage `json:"usage"`
	Duration      time.Duration  `json:"duration"`
}

// Failed reports whether the invocation errored.
func (r *ChatResponse) Failed() bool { return r != nil && r.Error != "" }
