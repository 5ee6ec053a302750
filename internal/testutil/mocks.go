package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cadre-oss/brains/internal/config"
	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/provider"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// MockProvider implements provider.Provider for testing.
type MockProvider struct {
	mu         sync.Mutex
	Responses  []*provider.Response // queued responses, consumed in order
	Calls      []*provider.CompletionRequest
	ShouldFail bool
	FailErr    error
	Delay      time.Duration
	// Respond, when set, answers every call and takes precedence over
	// Responses.
	Respond func(req *provider.CompletionRequest) (*provider.Response, error)
	idx     int
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.Response, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.ShouldFail {
		if m.FailErr != nil {
			return nil, m.FailErr
		}
		return nil, fmt.Errorf("mock provider error")
	}
	if m.Respond != nil {
		return m.Respond(req)
	}

	if m.idx >= len(m.Responses) {
		return &provider.Response{
			Content:    "default mock response",
			StopReason: "end_turn",
		}, nil
	}

	resp := m.Responses[m.idx]
	m.idx++
	return resp, nil
}

// Ping satisfies provider.Pinger.
func (m *MockProvider) Ping(context.Context) error {
	if m.ShouldFail {
		return errors.New("mock provider unreachable")
	}
	return nil
}

// CallCount returns the number of Complete calls made (thread-safe).
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastUserMessage returns the final user fragment of call i.
func (m *MockProvider) LastUserMessage(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.Calls[i].Messages
	return msgs[len(msgs)-1].Content
}

// FailingStore is a memory.Store whose every call fails.
type FailingStore struct {
	Err error
}

func (s FailingStore) err() error {
	if s.Err != nil {
		return s.Err
	}
	return errors.New("memory store unavailable")
}

func (s FailingStore) Add(context.Context, []memory.Entry, memory.AddOptions) error { return s.err() }

func (s FailingStore) Search(context.Context, string, memory.QueryOptions) (json.RawMessage, error) {
	return nil, s.err()
}

func (s FailingStore) GetAll(context.Context, memory.QueryOptions) (json.RawMessage, error) {
	return nil, s.err()
}

func (s FailingStore) Ping(context.Context) error { return s.err() }
func (s FailingStore) Close() error              { return nil }

// TestLogger returns a logger suitable for tests (verbose, no file output).
func TestLogger() *telemetry.Logger {
	return telemetry.NewLogger(true)
}

// TestRegistry returns the built-in role table.
func TestRegistry(t testing.TB) *profile.Registry {
	t.Helper()
	reg, err := profile.NewRegistry(profile.Defaults(), profile.DefaultCoordinator)
	require.NoError(t, err)
	return reg
}

// TestConfig returns the default configuration with an in-process memory
// store and no provider verification.
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Memory.Driver = "memory"
	verify := false
	cfg.Provider.Verify = &verify
	cfg.Provider.APIKey = "test-key"
	return cfg
}
