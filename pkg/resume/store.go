// Package resume persists playback positions per feed item so a relaunch
// continues where the viewer stopped.
package resume

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"autoplay/pkg/sharedTypes"
)

type Store interface {
	Load(ctx context.Context) (map[sharedTypes.ItemID]time.Duration, error)
	Put(ctx context.Context, id sharedTypes.ItemID, pos time.Duration) error
	Close() error
}

// NewStore opens a sqlite store at path, or a memory store when path is empty.
func NewStore(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewSqliteStore(path)
}

// MemoryStore implements Store using a map (thread-safe).
type MemoryStore struct {
	mu   sync.RWMutex
	data map[sharedTypes.ItemID]time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[sharedTypes.ItemID]time.Duration)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[sharedTypes.ItemID]time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[sharedTypes.ItemID]time.Duration, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, id sharedTypes.ItemID, pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = pos
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// SqliteStore implements Store using SQLite.
type SqliteStore struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS resume_positions (
	item_id     TEXT PRIMARY KEY,
	position_ms INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
)`

func NewSqliteStore(path string) (*SqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("resume: create dir: %w", err)
	}
	// modernc.org/sqlite applies _pragma to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("resume: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resume: ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resume: migrate: %w", err)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Load(ctx context.Context) (map[sharedTypes.ItemID]time.Duration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_id, position_ms FROM resume_positions`)
	if err != nil {
		return nil, fmt.Errorf("resume: load: %w", err)
	}
	defer rows.Close()

	out := make(map[sharedTypes.ItemID]time.Duration)
	for rows.Next() {
		var id string
		var ms int64
		if err := rows.Scan(&id, &ms); err != nil {
			return nil, fmt.Errorf("resume: scan: %w", err)
		}
		out[sharedTypes.ItemID(id)] = time.Duration(ms) * time.Millisecond
	}
	return out, rows.Err()
}

func (s *SqliteStore) Put(ctx context.Context, id sharedTypes.ItemID, pos time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resume_positions (item_id, position_ms, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			position_ms = excluded.position_ms,
			updated_at = excluded.updated_at`,
		string(id), pos.Milliseconds(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("resume: put %s: %w", id, err)
	}
	return nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
