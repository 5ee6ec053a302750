// Package redisstore keeps long-term memory in Redis, one list per user.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cadre-oss/brains/internal/memory"
)

// DefaultPrefix namespaces keys when none is configured.
const DefaultPrefix = "brains"

// Store is a memory.Store over Redis. Items are JSON-encoded onto
// <prefix>:memories:<user>; the set <prefix>:users tracks owners.
type Store struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// New connects with opts. An empty prefix uses DefaultPrefix.
func New(opts *redis.Options, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: redis.NewClient(opts), prefix: prefix, now: time.Now}
}

// MemoriesKey is the list holding userID's items.
func MemoriesKey(prefix, userID string) string {
	return fmt.Sprintf("%s:memories:%s", prefix, userID)
}

// UsersKey is the set of users with stored memories.
func UsersKey(prefix string) string {
	return prefix + ":users"
}

// Add appends entries to the user's list in one transaction.
func (s *Store) Add(ctx context.Context, entries []memory.Entry, opts memory.AddOptions) error {
	items := memory.NewItems(entries, opts, s.now())
	values := make([]any, 0, len(items))
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("failed to serialize memory: %w", err)
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, MemoriesKey(s.prefix, opts.UserID), values...)
		pipe.SAdd(ctx, UsersKey(s.prefix), opts.UserID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write memory to Redis: %w", err)
	}
	return nil
}

// Search ranks the user's items against query.
func (s *Store) Search(ctx context.Context, query string, opts memory.QueryOptions) (json.RawMessage, error) {
	items, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return memory.EncodeResults(memory.Rank(items, query, opts.Limit))
}

// GetAll lists the user's items, newest first.
func (s *Store) GetAll(ctx context.Context, opts memory.QueryOptions) (json.RawMessage, error) {
	items, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return memory.EncodeResults(memory.Recent(items, opts.Limit))
}

func (s *Store) load(ctx context.Context, opts memory.QueryOptions) ([]memory.Item, error) {
	users := []string{opts.UserID}
	if opts.UserID == "" {
		all, err := s.rdb.SMembers(ctx, UsersKey(s.prefix)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list memory owners: %w", err)
		}
		users = all
	}

	var items []memory.Item
	for _, u := range users {
		raw, err := s.rdb.LRange(ctx, MemoriesKey(s.prefix, u), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read memories from Redis: %w", err)
		}
		for _, r := range raw {
			var it memory.Item
			if err := json.Unmarshal([]byte(r), &it); err != nil {
				continue
			}
			if it.Matches(opts) {
				items = append(items, it)
			}
		}
	}
	return items, nil
}

// Capabilities reports full support.
func (s *Store) Capabilities(context.Context) (memory.Capabilities, error) {
	return memory.FullCapabilities(), nil
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
