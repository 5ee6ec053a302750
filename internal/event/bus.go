package event

import (
	"fmt"
	"sync"
)

// Bus dispatches events to registered hooks.
//
// Dispatch rules:
//  1. Blocking hooks execute sequentially in registration order before Emit returns.
//  2. Non-blocking hooks execute concurrently; Wait blocks until they finish.
//  3. A blocking hook failure is returned to the caller.
//  4. A non-blocking hook failure is logged as a warning.
//  5. A nil Bus is safe to use; all methods are no-ops.
type Bus struct {
	mu       sync.RWMutex
	hooks    []Hook
	enabled  bool
	logger   Logger
	inflight sync.WaitGroup
}

// Logger is the subset of telemetry.Logger the bus needs.
type Logger interface {
	Warn(msg string, keyvals ...any)
}

// NewBus creates an enabled event bus. Pass nil logger for silent operation.
func NewBus(logger Logger) *Bus {
	return &Bus{enabled: true, logger: logger}
}

// Register adds a hook to the bus.
func (b *Bus) Register(h Hook) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
}

// Unregister removes every hook with the given name.
func (b *Bus) Unregister(name string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.hooks[:0]
	for _, h := range b.hooks {
		if h.Name() != name {
			kept = append(kept, h)
		}
	}
	b.hooks = kept
}

// SetEnabled controls whether the bus dispatches events.
func (b *Bus) SetEnabled(enabled bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// Emit dispatches an event to all matching hooks and returns the first
// blocking-hook error.
func (b *Bus) Emit(ev Event) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	if !b.enabled {
		b.mu.RUnlock()
		return nil
	}
	hooks := make([]Hook, len(b.hooks))
	copy(hooks, b.hooks)
	b.mu.RUnlock()

	for _, h := range hooks {
		if !h.Matches(ev.Type) {
			continue
		}

		if h.IsBlocking() {
			if err := h.Handle(ev); err != nil {
				return fmt.Errorf("blocking hook %s failed: %w", h.Name(), err)
			}
			continue
		}

		b.inflight.Add(1)
		go func(hook Hook) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					b.warn("Non-blocking hook panicked", "hook", hook.Name(), "event", string(ev.Type), "panic", r)
				}
			}()
			if err := hook.Handle(ev); err != nil {
				b.warn("Non-blocking hook failed", "hook", hook.Name(), "event", string(ev.Type), "error", err)
			}
		}(h)
	}

	return nil
}

// Publish is Emit for callers that treat hook errors as non-fatal.
func (b *Bus) Publish(t EventType, runID string, data map[string]any) {
	if err := b.Emit(NewEvent(t, runID, data)); err != nil {
		b.warn("Event hook rejected event", "event", string(t), "error", err)
	}
}

// Wait blocks until all in-flight non-blocking hooks have returned.
func (b *Bus) Wait() {
	if b == nil {
		return
	}
	b.inflight.Wait()
}

func (b *Bus) warn(msg string, keyvals ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keyvals...)
	}
}
