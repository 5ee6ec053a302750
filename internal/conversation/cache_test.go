package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(turns []Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}

func TestCache_EvictsOldestInOrder(t *testing.T) {
	c := NewCache(3)
	for i := 1; i <= 7; i++ {
		c.Append("alice", Turn{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	got := contents(c.Recent("alice", 0))
	if diff := cmp.Diff([]string{"m5", "m6", "m7"}, got); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Stats{UserID: "alice", Count: 3, Capacity: 3}, c.Stats("alice"))
}

func TestCache_RecentLimit(t *testing.T) {
	c := NewCache(5)
	for i := 1; i <= 4; i++ {
		c.Append("bob", Turn{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	assert.Equal(t, []string{"m3", "m4"}, contents(c.Recent("bob", 2)))
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, contents(c.Recent("bob", 10)))
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, contents(c.Recent("bob", -1)))
	assert.Empty(t, c.Recent("nobody", 3))
}

func TestCache_ClearIsolatesUsers(t *testing.T) {
	c := NewCache(2)
	c.Append("alice", Turn{Role: RoleUser, Content: "a"})
	c.Append("bob", Turn{Role: RoleUser, Content: "b"})

	c.Clear("alice")

	assert.Empty(t, c.Recent("alice", 0))
	assert.Equal(t, []string{"b"}, contents(c.Recent("bob", 0)))
	assert.Equal(t, []string{"bob"}, c.Users())
	assert.Equal(t, 0, c.Stats("alice").Count)
}

func TestCache_AppendExchangeOrder(t *testing.T) {
	c := NewCache(4)
	c.AppendExchange("alice", "question", "answer")

	turns := c.Recent("alice", 0)
	want := []Turn{
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "answer"},
	}
	if diff := cmp.Diff(want, turns, cmpopts.IgnoreFields(Turn{}, "At")); diff != "" {
		t.Errorf("exchange mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, turns[0].At.IsZero())
}

func TestCache_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewCache(0).Capacity())
}

func TestCache_ConcurrentExchangesStayPaired(t *testing.T) {
	c := NewCache(64)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.AppendExchange("shared", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		}(i)
	}
	wg.Wait()

	turns := c.Recent("shared", 0)
	require.Len(t, turns, 64)
	for i := 0; i < len(turns); i += 2 {
		require.Equal(t, RoleUser, turns[i].Role)
		require.Equal(t, RoleAssistant, turns[i+1].Role)
		assert.Equal(t, "a"+turns[i].Content[1:], turns[i+1].Content)
	}
}

func TestCache_ClearKeepsBufferForInflightAppend(t *testing.T) {
	c := NewCache(4)
	c.AppendExchange("alice", "q1", "a1")

	// an append that fetched the buffer before Clear ran
	held := c.getOrCreate("alice")
	c.Clear("alice")
	held.mu.Lock()
	held.push(Turn{Role: RoleUser, Content: "late"})
	held.mu.Unlock()

	assert.Equal(t, []string{"late"}, contents(c.Recent("alice", 0)))

	c.Clear("alice")
	c.AppendExchange("alice", "q2", "a2")
	assert.Equal(t, []string{"q2", "a2"}, contents(c.Recent("alice", 0)))
	assert.Equal(t, []string{"alice"}, c.Users())
}

func TestCache_ClearDuringConcurrentAppends(t *testing.T) {
	c := NewCache(100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.AppendExchange("alice", "q", "a")
		}()
		go func() {
			defer wg.Done()
			c.Clear("alice")
		}()
	}
	wg.Wait()

	c.AppendExchange("alice", "last-q", "last-a")
	got := contents(c.Recent("alice", 0))
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, []string{"last-q", "last-a"}, got[len(got)-2:])
	assert.Zero(t, len(got)%2)
}
