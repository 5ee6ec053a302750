package event

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookHook_Execute(t *testing.T) {
	bodies := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := NewWebhookHook("notify", server.URL, []EventType{OrchestrationCompleted}, true)
	err := hook.Handle(NewEvent(OrchestrationCompleted, "run-7", map[string]any{"selected": 2}))
	require.NoError(t, err)

	var payload Event
	require.NoError(t, json.Unmarshal(<-bodies, &payload))
	assert.Equal(t, OrchestrationCompleted, payload.Type)
	assert.Equal(t, "run-7", payload.RunID)
	assert.EqualValues(t, 2, payload.Data["selected"])
}

func TestWebhookHook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook := NewWebhookHook("notify", server.URL, nil, true)
	assert.Error(t, hook.Handle(NewEvent(ChatFailed, "", nil)))
}

func TestLogHook_Levels(t *testing.T) {
	logger := &testLogger{}

	require.NoError(t, NewLogHook("d", nil, logger, "debug").Handle(NewEvent(ChatCompleted, "", nil)))
	require.NoError(t, NewLogHook("w", nil, logger, "warn").Handle(NewEvent(ChatFailed, "", nil)))
	require.NoError(t, NewLogHook("i", nil, logger, "").Handle(NewEvent(SpecialistStarted, "r", map[string]any{"role": "x"})))

	assert.Equal(t, []string{
		"debug:event chat.completed",
		"warn:event chat.failed",
		"info:event specialist.started",
	}, logger.snapshot())
}

func TestLogHook_AlwaysNonBlocking(t *testing.T) {
	assert.False(t, NewLogHook("test", nil, &testLogger{}, "debug").IsBlocking())
}

func TestBaseHook_Matches(t *testing.T) {
	all := &baseHook{name: "all"}
	assert.True(t, all.Matches(ChatCompleted))

	some := &baseHook{name: "some", events: []EventType{SpecialistStarted}}
	assert.True(t, some.Matches(SpecialistStarted))
	assert.False(t, some.Matches(SpecialistCompleted))
}
