// Package sqlitestore keeps todos in a SQLite database. Checkpoints are
// stored as a JSON array column so their order survives round trips.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	start_time  TEXT NOT NULL DEFAULT '',
	end_time    TEXT NOT NULL DEFAULT '',
	checkpoints TEXT NOT NULL DEFAULT '[]'
)`

type Store struct {
	db *sql.DB
}

// Open connects to the database at path, creating it and the schema if
// needed. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "todos.db"
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = home + path[1:]
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_time, end_time, checkpoints FROM todos ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		var t model.Todo
		var cps string
		if err := rows.Scan(&t.ID, &t.Title, &t.StartTime, &t.EndTime, &cps); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		if err := json.Unmarshal([]byte(cps), &t.Checkpoints); err != nil {
			return nil, fmt.Errorf("decode checkpoints of %s: %w", t.ID, err)
		}
		if t.Checkpoints == nil {
			t.Checkpoints = []model.Checkpoint{}
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *Store) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	t = store.Normalize(store.NewID(), t)
	cps, err := encodeCheckpoints(t.Checkpoints)
	if err != nil {
		return model.Todo{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, start_time, end_time, checkpoints) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.StartTime, t.EndTime, cps)
	if err != nil {
		return model.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

func (s *Store) Update(ctx context.Context, id string, t model.Todo) (model.Todo, error) {
	t = store.Normalize(id, t)
	cps, err := encodeCheckpoints(t.Checkpoints)
	if err != nil {
		return model.Todo{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, start_time = ?, end_time = ?, checkpoints = ? WHERE id = ?`,
		t.Title, t.StartTime, t.EndTime, cps, id)
	if err != nil {
		return model.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.Todo{}, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return model.Todo{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func encodeCheckpoints(cps []model.Checkpoint) (string, error) {
	if cps == nil {
		cps = []model.Checkpoint{}
	}
	b, err := json.Marshal(cps)
	if err != nil {
		return "", fmt.Errorf("encode checkpoints: %w", err)
	}
	return string(b), nil
}
