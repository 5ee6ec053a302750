// Package conversation keeps the short-term dialogue window per user.
package conversation

import (
	"sort"
	"sync"
	"time"
)

// DefaultCapacity is the number of turns kept per user when none is given.
const DefaultCapacity = 5

// Roles a cached turn may carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one cached message.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Stats describes one user's buffer.
type Stats struct {
	UserID   string `json:"user_id"`
	Count    int    `json:"count"`
	Capacity int    `json:"capacity"`
}

// buffer is a fixed-size ring of turns.
type buffer struct {
	mu    sync.Mutex
	turns []Turn
	head  int // index of the oldest turn
	n     int
}

func newBuffer(capacity int) *buffer {
	return &buffer{turns: make([]Turn, capacity)}
}

// push must be called with b.mu held.
func (b *buffer) push(t Turn) {
	capacity := len(b.turns)
	if b.n < capacity {
		b.turns[(b.head+b.n)%capacity] = t
		b.n++
		return
	}
	b.turns[b.head] = t
	b.head = (b.head + 1) % capacity
}

// reset must be called with b.mu held.
func (b *buffer) reset() {
	clear(b.turns)
	b.head, b.n = 0, 0
}

// last must be called with b.mu held.
func (b *buffer) last(limit int) []Turn {
	if limit <= 0 || limit > b.n {
		limit = b.n
	}
	out := make([]Turn, 0, limit)
	for i := b.n - limit; i < b.n; i++ {
		out = append(out, b.turns[(b.head+i)%len(b.turns)])
	}
	return out
}

// Cache holds one bounded buffer per user. It is safe for concurrent use;
// each user's buffer has its own lock so appends for one user never
// interleave.
type Cache struct {
	capacity int

	mu      sync.RWMutex
	buffers map[string]*buffer
}

// NewCache creates a cache holding at most capacity turns per user.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{capacity: capacity, buffers: make(map[string]*buffer)}
}

// Capacity returns the per-user capacity.
func (c *Cache) Capacity() int { return c.capacity }

func (c *Cache) get(userID string) *buffer {
	c.mu.RLock()
	b := c.buffers[userID]
	c.mu.RUnlock()
	return b
}

func (c *Cache) getOrCreate(userID string) *buffer {
	if b := c.get(userID); b != nil {
		return b
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.buffers[userID]; ok {
		return b
	}
	b := newBuffer(c.capacity)
	c.buffers[userID] = b
	return b
}

// Append adds a turn, evicting the oldest once the buffer is full.
func (c *Cache) Append(userID string, turn Turn) {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	b := c.getOrCreate(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(turn)
}

// AppendExchange records a user turn and the assistant turn that answered
// it under one lock, so concurrent runs cannot split the pair.
func (c *Cache) AppendExchange(userID, question, answer string) {
	now := time.Now()
	b := c.getOrCreate(userID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(Turn{Role: RoleUser, Content: question, At: now})
	b.push(Turn{Role: RoleAssistant, Content: answer, At: now})
}

// Recent returns up to limit of the newest turns, oldest first.
// limit <= 0 returns everything held.
func (c *Cache) Recent(userID string, limit int) []Turn {
	b := c.get(userID)
	if b == nil {
		return []Turn{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last(limit)
}

// Clear empties one user's buffer in place. The buffer stays registered so
// an append that already holds it is not lost.
func (c *Cache) Clear(userID string) {
	b := c.get(userID)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

// Stats reports the count and capacity for one user.
func (c *Cache) Stats(userID string) Stats {
	s := Stats{UserID: userID, Capacity: c.capacity}
	if b := c.get(userID); b != nil {
		b.mu.Lock()
		s.Count = b.n
		b.mu.Unlock()
	}
	return s
}

// Users lists the users with cached turns, sorted.
func (c *Cache) Users() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := make([]string, 0, len(c.buffers))
	for u, b := range c.buffers {
		b.mu.Lock()
		n := b.n
		b.mu.Unlock()
		if n > 0 {
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users
}
