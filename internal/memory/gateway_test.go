package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/memory/inmem"
	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/telemetry"
)

func registry(t *testing.T) *profile.Registry {
	t.Helper()
	r, err := profile.NewRegistry(profile.Defaults(), profile.DefaultCoordinator)
	require.NoError(t, err)
	return r
}

// limitedStore wraps inmem but advertises a reduced capability set and can
// be told to fail.
type limitedStore struct {
	*inmem.Store
	caps      memory.Capabilities
	probeErr  error
	failAdds  int // fail this many Add calls before succeeding
	failAll   bool
	searchErr error
	raw       json.RawMessage
	adds      []memory.AddOptions
	entries   []memory.Entry
	queries   []memory.QueryOptions
}

func (s *limitedStore) Capabilities(context.Context) (memory.Capabilities, error) {
	return s.caps, s.probeErr
}

func (s *limitedStore) Add(ctx context.Context, entries []memory.Entry, opts memory.AddOptions) error {
	s.adds = append(s.adds, opts)
	s.entries = append(s.entries, entries...)
	if s.failAll {
		return errors.New("store down")
	}
	if s.failAdds > 0 {
		s.failAdds--
		return errors.New("rejected metadata")
	}
	return s.Store.Add(ctx, entries, opts)
}

func (s *limitedStore) Search(ctx context.Context, query string, opts memory.QueryOptions) (json.RawMessage, error) {
	s.queries = append(s.queries, opts)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if s.raw != nil {
		return s.raw, nil
	}
	return s.Store.Search(ctx, query, opts)
}

func TestGateway_ProbesOnce(t *testing.T) {
	store := &limitedStore{Store: inmem.New(), caps: memory.Capabilities{SearchRole: true}}
	g := memory.NewGateway(context.Background(), store, registry(t))
	assert.Equal(t, memory.Capabilities{SearchRole: true}, g.Capabilities())

	store.caps = memory.FullCapabilities()
	assert.Equal(t, memory.Capabilities{SearchRole: true}, g.Capabilities())
}

func TestGateway_ProbeFailureDisablesOptions(t *testing.T) {
	store := &limitedStore{Store: inmem.New(), caps: memory.FullCapabilities(), probeErr: errors.New("no openapi")}
	g := memory.NewGateway(context.Background(), store, registry(t))
	assert.Equal(t, memory.Capabilities{}, g.Capabilities())
}

func TestGateway_DualWrite(t *testing.T) {
	ctx := context.Background()
	store := &limitedStore{Store: inmem.New(), caps: memory.FullCapabilities()}
	g := memory.NewGateway(ctx, store, registry(t))

	ok := g.Write(ctx, "用户：推荐算法怎么选\n算法科学家：先看数据规模", "u1", memory.WriteOptions{RoleID: "algo_scientist", SessionID: "s1"})
	require.True(t, ok)
	require.Len(t, store.adds, 2)

	assert.Equal(t, memory.AddOptions{UserID: "u1", SessionID: "s1"}, store.adds[0])
	assert.Equal(t, memory.AddOptions{UserID: "u1", RoleID: "algo_scientist", SessionID: "s1"}, store.adds[1])

	for _, e := range store.entries {
		assert.Equal(t, "expert", e.Metadata[memory.MetaScope])
		assert.Equal(t, "algorithm", e.Metadata[memory.MetaDomain])
		assert.Equal(t, "algo_scientist", e.Metadata[memory.MetaRole])
	}
	assert.Equal(t, "user", store.entries[0].Metadata[memory.MetaCopy])
	assert.Equal(t, "role", store.entries[1].Metadata[memory.MetaCopy])
}

func TestGateway_WriteScopeFromRole(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		role   string
		scope  profile.Scope
		want   string
		domain any
	}{
		{role: profile.DefaultCoordinator, want: "project"},
		{role: "product_lead", want: "expert", domain: "product"},
		{role: "", want: "user"},
		{role: "", scope: profile.ScopeProject, want: "project"},
		{role: "product_lead", scope: profile.ScopeUser, want: "expert", domain: "product"},
	}
	for _, tt := range tests {
		store := &limitedStore{Store: inmem.New(), caps: memory.Capabilities{}}
		g := memory.NewGateway(ctx, store, registry(t))
		require.True(t, g.Write(ctx, "内容", "u1", memory.WriteOptions{RoleID: tt.role, Scope: tt.scope}))
		require.Len(t, store.entries, 1, "role %q", tt.role)
		assert.Equal(t, tt.want, store.entries[0].Metadata[memory.MetaScope], "role %q", tt.role)
		assert.Equal(t, tt.domain, store.entries[0].Metadata[memory.MetaDomain], "role %q", tt.role)
	}
}

func TestGateway_WriteFallsBackToMinimalEntry(t *testing.T) {
	ctx := context.Background()
	store := &limitedStore{Store: inmem.New(), failAdds: 1}
	metrics := telemetry.NewMetrics()
	g := memory.NewGateway(ctx, store, registry(t), memory.WithMetrics(metrics))

	require.True(t, g.Write(ctx, "记住这个", "u1", memory.WriteOptions{RoleID: "product_lead"}))
	require.Len(t, store.entries, 2)
	assert.NotEmpty(t, store.entries[0].Metadata)
	assert.Equal(t, memory.Entry{Text: "记住这个"}, store.entries[1])
	assert.EqualValues(t, 1, metrics.MemoryWrites.Load())
	assert.EqualValues(t, 0, metrics.MemoryFailures.Load())
}

func TestGateway_WriteFailure(t *testing.T) {
	ctx := context.Background()
	store := &limitedStore{Store: inmem.New(), failAll: true}
	metrics := telemetry.NewMetrics()
	g := memory.NewGateway(ctx, store, registry(t), memory.WithMetrics(metrics))

	assert.False(t, g.Write(ctx, "记住这个", "u1", memory.WriteOptions{}))
	assert.Len(t, store.adds, 2)
	assert.EqualValues(t, 1, metrics.MemoryFailures.Load())

	assert.False(t, g.Write(ctx, "   ", "u1", memory.WriteOptions{}))
	assert.Len(t, store.adds, 2)
}

func TestGateway_SearchIsolation(t *testing.T) {
	ctx := context.Background()
	reg := registry(t)

	for name, caps := range map[string]memory.Capabilities{
		"store filters":  memory.FullCapabilities(),
		"client filters": {},
	} {
		t.Run(name, func(t *testing.T) {
			store := &limitedStore{Store: inmem.New(), caps: caps}
			g := memory.NewGateway(ctx, store, reg)

			require.True(t, g.Write(ctx, "推荐算法选型讨论", "u1", memory.WriteOptions{RoleID: "algo_scientist"}))
			require.True(t, g.Write(ctx, "推荐页面交互讨论", "u1", memory.WriteOptions{RoleID: "product_lead"}))
			require.True(t, g.Write(ctx, "推荐项目排期", "u1", memory.WriteOptions{RoleID: profile.DefaultCoordinator, SessionID: "s1"}))
			require.True(t, g.Write(ctx, "推荐算法另一个用户", "u2", memory.WriteOptions{RoleID: "algo_scientist"}))

			algo, err := g.Search(ctx, "u1", "推荐算法", memory.Options{RoleID: "algo_scientist", Scope: profile.ScopeExpert, Domain: "algorithm", Limit: 5})
			require.NoError(t, err)
			require.Len(t, algo, 1)
			assert.Equal(t, "推荐算法选型讨论", algo[0].Content)

			project, err := g.Search(ctx, "u1", "推荐", memory.Options{RoleID: profile.DefaultCoordinator, SessionID: "s1", Scope: profile.ScopeProject, Limit: 5})
			require.NoError(t, err)
			require.Len(t, project, 1)
			assert.Equal(t, "推荐项目排期", project[0].Content)

			// user lookups see each memory once
			all, err := g.Search(ctx, "u1", "推荐", memory.Options{Scope: profile.ScopeUser, Limit: 10})
			require.NoError(t, err)
			assert.Len(t, all, 3)
			for _, r := range all {
				assert.NotContains(t, r.Content, "另一个用户")
			}
		})
	}
}

func TestGateway_OmitsUnsupportedParameters(t *testing.T) {
	ctx := context.Background()
	store := &limitedStore{Store: inmem.New(), caps: memory.Capabilities{SearchRole: true}}
	g := memory.NewGateway(ctx, store, registry(t))

	_, err := g.Search(ctx, "u1", "q", memory.Options{RoleID: "product_lead", SessionID: "s1", Scope: profile.ScopeExpert, Domain: "product", Limit: 4})
	require.NoError(t, err)
	require.Len(t, store.queries, 1)
	q := store.queries[0]
	assert.Equal(t, "product_lead", q.RoleID)
	assert.Empty(t, q.SessionID)
	assert.Nil(t, q.Filters)
	assert.Equal(t, 12, q.Limit)
}

func TestGateway_SearchFailureIsData(t *testing.T) {
	ctx := context.Background()
	store := &limitedStore{Store: inmem.New(), caps: memory.FullCapabilities(), searchErr: errors.New("connection refused")}
	metrics := telemetry.NewMetrics()
	g := memory.NewGateway(ctx, store, registry(t), memory.WithMetrics(metrics))

	recs, err := g.Search(ctx, "u1", "q", memory.Options{Limit: 3})
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.True(t, brerrors.HasCode(err, brerrors.CodeMemoryAccess))
	assert.EqualValues(t, 1, metrics.MemorySearches.Load())
	assert.EqualValues(t, 1, metrics.MemoryFailures.Load())
}

func TestGateway_MalformedResultIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := &limitedStore{Store: inmem.New(), caps: memory.FullCapabilities(), raw: json.RawMessage(`{"unexpected":true}`)}
	g := memory.NewGateway(ctx, store, registry(t))

	recs, err := g.Search(ctx, "u1", "q", memory.Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGateway_ListAll(t *testing.T) {
	ctx := context.Background()
	g := memory.NewGateway(ctx, inmem.New(), registry(t))
	for _, c := range []string{"一", "二", "三"} {
		require.True(t, g.Write(ctx, "记录"+c, "u1", memory.WriteOptions{RoleID: "product_lead"}))
	}

	recs, err := g.ListAll(ctx, "u1", memory.Options{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.True(t, strings.HasPrefix(r.Content, "记录"))
	}

	own, err := g.ListAll(ctx, "u1", memory.Options{RoleID: "product_lead"})
	require.NoError(t, err)
	assert.Len(t, own, 3)
}

func TestGateway_UnscopedLookupsFillLimitAfterDualWrite(t *testing.T) {
	ctx := context.Background()
	store := &limitedStore{Store: inmem.New(), caps: memory.FullCapabilities()}
	g := memory.NewGateway(ctx, store, registry(t))
	for i := 0; i < 6; i++ {
		require.True(t, g.Write(ctx, "推荐算法实验记录", "u1", memory.WriteOptions{RoleID: "algo_scientist"}))
	}
	require.Equal(t, 12, store.Len())

	found, err := g.Search(ctx, "u1", "推荐算法", memory.Options{Scope: profile.ScopeUser, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, found, 5)
	assert.Equal(t, 15, store.queries[0].Limit)

	listed, err := g.ListAll(ctx, "u1", memory.Options{Limit: 4})
	require.NoError(t, err)
	assert.Len(t, listed, 4)
	for _, r := range listed {
		assert.NotEqual(t, "role", r.Metadata[memory.MetaCopy])
	}

	all, err := g.ListAll(ctx, "u1", memory.Options{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}
