package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadre-oss/brains/internal/memory"
)

func TestStore_AddSearch(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Add(ctx, []memory.Entry{{Text: "缓存策略讨论"}, {Text: "数据库选型"}}, memory.AddOptions{UserID: "u1", RoleID: "arch"}))
	require.NoError(t, s.Add(ctx, []memory.Entry{{Text: "缓存策略"}}, memory.AddOptions{UserID: "u2"}))
	assert.Equal(t, 3, s.Len())

	raw, err := s.Search(ctx, "缓存", memory.QueryOptions{UserID: "u1"})
	require.NoError(t, err)
	recs := memory.Normalize(raw)
	require.Len(t, recs, 1)
	assert.Equal(t, "缓存策略讨论", recs[0].Content)
	assert.Equal(t, "arch", recs[0].RoleID)

	raw, err = s.GetAll(ctx, memory.QueryOptions{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, memory.Normalize(raw), 1)
}
