package provider

import (
	"context"
	"fmt"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged fragment sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single stateless model call.
type CompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response represents a provider response.
type Response struct {
	Content    string `json:"content"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      Usage  `json:"usage"`
}

// Usage tracks token usage.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Provider is a language model backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (*Response, error)
}

// Pinger is implemented by providers that can check their endpoint cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// APIError is a non-2xx answer from a model endpoint.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// Coerce returns m with a valid role. Unknown or empty roles become fallback.
func Coerce(m Message, fallback string) Message {
	role := strings.ToLower(strings.TrimSpace(m.Role))
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		role = fallback
	}
	m.Role = role
	return m
}

// Normalize coerces every message, defaulting unknown roles to user.
func Normalize(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Coerce(m, RoleUser)
	}
	return out
}

// SplitSystem separates system fragments, joined with blank lines, from
// the dialogue. Empty dialogue messages are dropped since chat APIs reject
// them.
func SplitSystem(msgs []Message) (string, []Message) {
	var system []string
	dialogue := make([]Message, 0, len(msgs))
	for _, m := range Normalize(msgs) {
		if m.Role == RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		dialogue = append(dialogue, m)
	}
	return strings.Join(system, "\n\n"), dialogue
}
