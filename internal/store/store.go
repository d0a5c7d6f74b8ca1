// Package store persists todos for the development server.
package store

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/idilsaglam/planner/internal/model"
)

// ErrNotFound is returned when no todo has the requested id.
var ErrNotFound = errors.New("todo not found")

// Store is a todo collection kept in creation order.
type Store interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, t model.Todo) (model.Todo, error)
	Update(ctx context.Context, id string, t model.Todo) (model.Todo, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewID returns a MongoDB-style ObjectID hex string.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// Normalize prepares t for storage under id.
func Normalize(id string, t model.Todo) model.Todo {
	out := t.Clone()
	out.ID = id
	return out
}

// Memory keeps todos in process memory.
type Memory struct {
	mu    sync.RWMutex
	todos []model.Todo
}

func NewMemory() *Memory {
	return &Memory{todos: []model.Todo{}}
}

// NewMemoryFrom seeds a Memory store with todos, in order.
func NewMemoryFrom(todos []model.Todo) *Memory {
	m := NewMemory()
	for _, t := range todos {
		m.todos = append(m.todos, t.Clone())
	}
	return m
}

func (m *Memory) List(ctx context.Context) ([]model.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Todo, len(m.todos))
	for i, t := range m.todos {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *Memory) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t = Normalize(NewID(), t)
	m.todos = append(m.todos, t)
	return t.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, id string, t model.Todo) (model.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return model.Todo{}, ErrNotFound
	}
	m.todos[i] = Normalize(id, t)
	return m.todos[i].Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return ErrNotFound
	}
	m.todos = append(m.todos[:i], m.todos[i+1:]...)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) index(id string) int {
	for i, t := range m.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
