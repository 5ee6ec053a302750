// Package sqlitestore persists long-term memory in a local SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cadre-oss/brains/internal/memory"
)

// Store is a memory.Store over SQLite. Ranking happens in process over the
// rows owned by the queried user.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate memory database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(user_id, agent_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add inserts entries in one transaction.
func (s *Store) Add(ctx context.Context, entries []memory.Entry, opts memory.AddOptions) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memories (id, user_id, agent_id, run_id, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range memory.NewItems(entries, opts, s.now()) {
		var meta *string
		if len(it.Metadata) > 0 {
			data, err := json.Marshal(it.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata: %w", err)
			}
			m := string(data)
			meta = &m
		}
		if _, err := stmt.ExecContext(ctx, it.ID, it.UserID, it.AgentID, it.RunID, it.Memory, meta, it.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Search ranks the user's rows against query.
func (s *Store) Search(ctx context.Context, query string, opts memory.QueryOptions) (json.RawMessage, error) {
	items, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return memory.EncodeResults(memory.Rank(items, query, opts.Limit))
}

// GetAll lists the user's rows, newest first.
func (s *Store) GetAll(ctx context.Context, opts memory.QueryOptions) (json.RawMessage, error) {
	items, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return memory.EncodeResults(memory.Recent(items, opts.Limit))
}

func (s *Store) load(ctx context.Context, opts memory.QueryOptions) ([]memory.Item, error) {
	var (
		where []string
		args  []any
	)
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.RoleID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, opts.RoleID)
	}
	if opts.SessionID != "" {
		where = append(where, "run_id = ?")
		args = append(args, opts.SessionID)
	}
	q := `SELECT id, user_id, agent_id, run_id, content, metadata, created_at FROM memories`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at ASC, rowid ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []memory.Item
	for rows.Next() {
		var (
			it   memory.Item
			meta sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.AgentID, &it.RunID, &it.Memory, &meta, &it.CreatedAt); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &it.Metadata); err != nil {
				it.Metadata = nil
			}
		}
		if memory.MatchFilters(it.Metadata, opts.Filters) {
			items = append(items, it)
		}
	}
	return items, rows.Err()
}

// Capabilities reports full support.
func (s *Store) Capabilities(context.Context) (memory.Capabilities, error) {
	return memory.FullCapabilities(), nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
