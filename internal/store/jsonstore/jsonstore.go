package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// The whole file is read and rewritten on every operation.

const dataFileName = "todos.json"

// Store keeps todos in one JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a store backed by path. An empty path selects todos.json
// in the working directory. The file is created on first write.
func Open(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, dataFileName)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	s := &Store{path: path}
	// fail early on an unreadable or corrupt file
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) List(ctx context.Context) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	var out model.Todo
	err := s.mutate(ctx, func(mem *store.Memory) (err error) {
		out, err = mem.Create(ctx, t)
		return err
	})
	return out, err
}

func (s *Store) Update(ctx context.Context, id string, t model.Todo) (model.Todo, error) {
	var out model.Todo
	err := s.mutate(ctx, func(mem *store.Memory) (err error) {
		out, err = mem.Update(ctx, id, t)
		return err
	})
	return out, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(mem *store.Memory) error {
		return mem.Delete(ctx, id)
	})
}

func (s *Store) Close() error { return nil }

func (s *Store) mutate(ctx context.Context, fn func(*store.Memory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	mem := store.NewMemoryFrom(items)
	if err := fn(mem); err != nil {
		return err
	}
	all, err := mem.List(ctx)
	if err != nil {
		return err
	}
	return s.save(all)
}

func (s *Store) load() ([]model.Todo, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Todo{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	items := []model.Todo{}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

func (s *Store) save(items []model.Todo) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
