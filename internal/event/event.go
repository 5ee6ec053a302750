package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Orchestration run
	OrchestrationStarted   EventType = "orchestration.started"
	OrchestrationCompleted EventType = "orchestration.completed"

	// Phases inside a run
	CoordinatorCompleted EventType = "coordinator.completed"
	SpecialistStarted    EventType = "specialist.started"
	SpecialistCompleted  EventType = "specialist.completed"
	SynthesisCompleted   EventType = "synthesis.completed"

	// Single-role invocations
	ChatCompleted   EventType = "chat.completed"
	ChatFailed      EventType = "chat.failed"
	ContextDegraded EventType = "context.degraded"

	// Memory
	MemoryWriteFailed EventType = "memory.write_failed"
)

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, runID string, data map[string]any) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      data,
	}
}

// AllTypes lists every event type the service emits.
func AllTypes() []EventType {
	return []EventType{
		OrchestrationStarted,
		OrchestrationCompleted,
		CoordinatorCompleted,
		SpecialistStarted,
		SpecialistCompleted,
		SynthesisCompleted,
		ChatCompleted,
		ChatFailed,
		ContextDegraded,
		MemoryWriteFailed,
	}
}
