package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadre-oss/brains/internal/memory"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	s := New(&redis.Options{Addr: mr.Addr()}, "test")
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStore_AddSearch(t *testing.T) {
	s, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Add(ctx, []memory.Entry{
		{Text: "接口限流方案", Metadata: map[string]any{memory.MetaScope: "expert"}},
		{Text: "用户增长目标"},
	}, memory.AddOptions{UserID: "u1", RoleID: "solution_architect"}))

	assert.True(t, mr.Exists(MemoriesKey("test", "u1")))
	assert.Equal(t, "list", mr.Type(MemoriesKey("test", "u1")))
	stored, err := mr.List(MemoriesKey("test", "u1"))
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	members, err := mr.Members(UsersKey("test"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, members)

	raw, err := s.Search(ctx, "限流", memory.QueryOptions{UserID: "u1", RoleID: "solution_architect", Filters: map[string]string{memory.MetaScope: "expert"}})
	require.NoError(t, err)
	recs := memory.Normalize(raw)
	require.Len(t, recs, 1)
	assert.Equal(t, "接口限流方案", recs[0].Content)

	raw, err = s.GetAll(ctx, memory.QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, memory.Normalize(raw), 2)
}

func TestStore_DefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(&redis.Options{Addr: mr.Addr()}, "")
	defer s.Close()

	require.NoError(t, s.Add(context.Background(), []memory.Entry{{Text: "x"}}, memory.AddOptions{UserID: "u"}))
	assert.True(t, mr.Exists("brains:memories:u"))
}

func TestStore_Unreachable(t *testing.T) {
	s, mr := setupTestStore(t)
	mr.Close()

	_, err := s.Search(context.Background(), "q", memory.QueryOptions{UserID: "u1"})
	assert.Error(t, err)
	assert.Error(t, s.Ping(context.Background()))
}
