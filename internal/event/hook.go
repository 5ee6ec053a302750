package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Hook processes lifecycle events.
type Hook interface {
	Name() string
	// Matches returns true if the hook should handle this event type.
	Matches(t EventType) bool
	// IsBlocking returns true if Emit should wait for this hook.
	IsBlocking() bool
	Handle(ev Event) error
}

type baseHook struct {
	name     string
	events   []EventType
	blocking bool
}

func (h *baseHook) Name() string     { return h.name }
func (h *baseHook) IsBlocking() bool { return h.blocking }
func (h *baseHook) Matches(t EventType) bool {
	if len(h.events) == 0 {
		return true
	}
	for _, ev := range h.events {
		if ev == t {
			return true
		}
	}
	return false
}

// FuncHook adapts a function to the Hook interface.
type FuncHook struct {
	baseHook
	fn func(Event) error
}

// NewFuncHook creates a hook that calls fn for matching events.
func NewFuncHook(name string, events []EventType, blocking bool, fn func(Event) error) *FuncHook {
	return &FuncHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		fn:       fn,
	}
}

func (h *FuncHook) Handle(ev Event) error { return h.fn(ev) }

// WebhookHook POSTs the event as JSON to a URL.
type WebhookHook struct {
	baseHook
	URL    string
	client *http.Client
}

func NewWebhookHook(name, url string, events []EventType, blocking bool) *WebhookHook {
	return &WebhookHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		URL:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *WebhookHook) Handle(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	resp, err := h.client.Post(h.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s failed: %w", h.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s returned status %d", h.name, resp.StatusCode)
	}
	return nil
}

// LevelLogger is the logger surface LogHook writes to.
type LevelLogger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

// LogHook logs events at the configured level. Always non-blocking.
type LogHook struct {
	baseHook
	logger LevelLogger
	level  string
}

func NewLogHook(name string, events []EventType, logger LevelLogger, level string) *LogHook {
	if level == "" {
		level = "info"
	}
	return &LogHook{
		baseHook: baseHook{name: name, events: events},
		logger:   logger,
		level:    level,
	}
}

func (h *LogHook) Handle(ev Event) error {
	keyvals := make([]any, 0, len(ev.Data)*2+4)
	keyvals = append(keyvals, "event_type", string(ev.Type))
	if ev.RunID != "" {
		keyvals = append(keyvals, "run_id", ev.RunID)
	}
	for k, v := range ev.Data {
		keyvals = append(keyvals, k, v)
	}

	msg := "event " + string(ev.Type)
	switch h.level {
	case "debug":
		h.logger.Debug(msg, keyvals...)
	case "warn":
		h.logger.Warn(msg, keyvals...)
	default:
		h.logger.Info(msg, keyvals...)
	}
	return nil
}
