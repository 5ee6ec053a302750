// Package inmem is a process-local memory store. Nothing survives a restart;
// it backs tests and the "memory" driver.
package inmem

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cadre-oss/brains/internal/memory"
)

// Store keeps items in insertion order.
type Store struct {
	mu    sync.RWMutex
	items []memory.Item
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Add appends entries.
func (s *Store) Add(_ context.Context, entries []memory.Entry, opts memory.AddOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, memory.NewItems(entries, opts, s.now())...)
	return nil
}

// Search ranks matching items against query.
func (s *Store) Search(_ context.Context, query string, opts memory.QueryOptions) (json.RawMessage, error) {
	return memory.EncodeResults(memory.Rank(s.matching(opts), query, opts.Limit))
}

// GetAll lists matching items, newest first.
func (s *Store) GetAll(_ context.Context, opts memory.QueryOptions) (json.RawMessage, error) {
	return memory.EncodeResults(memory.Recent(s.matching(opts), opts.Limit))
}

func (s *Store) matching(opts memory.QueryOptions) []memory.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []memory.Item
	for _, it := range s.items {
		if it.Matches(opts) {
			out = append(out, it)
		}
	}
	return out
}

// Len reports how many items are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Capabilities reports full support.
func (s *Store) Capabilities(context.Context) (memory.Capabilities, error) {
	return memory.FullCapabilities(), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
