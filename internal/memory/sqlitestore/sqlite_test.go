package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cadre-oss/brains/internal/memory"
)

func TestStore_AddSearch(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "nested", "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	entries := []memory.Entry{
		{Text: "用户：推荐算法怎么选\n算法科学家：先看数据规模", Metadata: map[string]any{memory.MetaScope: "expert", memory.MetaDomain: "algorithm"}},
		{Text: "部署方案确定为蓝绿发布", Metadata: map[string]any{memory.MetaScope: "expert", memory.MetaDomain: "architecture"}},
	}
	if err := s.Add(ctx, entries, memory.AddOptions{UserID: "u1", RoleID: "algo_scientist", SessionID: "s1"}); err != nil {
		t.Fatal(err)
	}

	raw, err := s.Search(ctx, "推荐算法", memory.QueryOptions{UserID: "u1", RoleID: "algo_scientist", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	recs := memory.Normalize(raw)
	if len(recs) != 1 {
		t.Fatalf("expected 1 result, got %d", len(recs))
	}
	if recs[0].Domain != "algorithm" || recs[0].SessionID != "s1" {
		t.Errorf("unexpected record: %+v", recs[0])
	}
	if recs[0].Score == nil || *recs[0].Score <= 0 {
		t.Error("expected a positive score")
	}

	raw, err = s.Search(ctx, "", memory.QueryOptions{UserID: "u1", Filters: map[string]string{memory.MetaDomain: "architecture"}})
	if err != nil {
		t.Fatal(err)
	}
	if recs := memory.Normalize(raw); len(recs) != 1 || recs[0].Content != "部署方案确定为蓝绿发布" {
		t.Errorf("filter mismatch: %+v", recs)
	}

	raw, err = s.Search(ctx, "推荐算法", memory.QueryOptions{UserID: "u2"})
	if err != nil {
		t.Fatal(err)
	}
	if recs := memory.Normalize(raw); len(recs) != 0 {
		t.Errorf("expected no results for another user, got %d", len(recs))
	}
}

func TestStore_GetAllNewestFirst(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return ts }
		if err := s.Add(ctx, []memory.Entry{{Text: text}}, memory.AddOptions{UserID: "u1"}); err != nil {
			t.Fatal(err)
		}
	}

	raw, err := s.GetAll(ctx, memory.QueryOptions{UserID: "u1", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	recs := memory.Normalize(raw)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Content != "third" || recs[1].Content != "second" {
		t.Errorf("unexpected order: %q, %q", recs[0].Content, recs[1].Content)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, []memory.Entry{{Text: "persisted"}}, memory.AddOptions{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	raw, err := s.GetAll(ctx, memory.QueryOptions{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if recs := memory.Normalize(raw); len(recs) != 1 {
		t.Errorf("expected 1 persisted record, got %d", len(recs))
	}
}
