// Package storetest checks that a store.Store implementation behaves like
// the todo service expects.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/store"
)

// Run exercises a fresh store returned by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("empty list", func(t *testing.T) {
		s := open(t)
		todos, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if todos == nil || len(todos) != 0 {
			t.Errorf("List: got %#v, want empty non-nil slice", todos)
		}
	})

	t.Run("round trip keeps checkpoint order", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		in := model.Todo{
			ID:        "client-chosen",
			Title:     "T",
			StartTime: "09:00",
			EndTime:   "10:00",
			Checkpoints: []model.Checkpoint{
				{Text: "one"}, {Text: "two", Done: true}, {Text: "three"},
			},
		}
		created, err := s.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.ID == "" || created.ID == in.ID {
			t.Errorf("Create should assign a fresh id, got %q", created.ID)
		}

		todos, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(todos) != 1 {
			t.Fatalf("List: got %d todos, want 1", len(todos))
		}
		got := todos[0]
		if got.ID != created.ID || got.Title != "T" || got.StartTime != "09:00" || got.EndTime != "10:00" {
			t.Errorf("List: got %+v", got)
		}
		want := []string{"one", "two", "three"}
		if len(got.Checkpoints) != len(want) {
			t.Fatalf("checkpoints: got %+v", got.Checkpoints)
		}
		for i, w := range want {
			if got.Checkpoints[i].Text != w {
				t.Errorf("checkpoint %d: got %q, want %q", i, got.Checkpoints[i].Text, w)
			}
		}
		if !got.Checkpoints[1].Done || got.Checkpoints[0].Done {
			t.Errorf("done flags not preserved: %+v", got.Checkpoints)
		}
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		for _, title := range []string{"a", "b", "c"} {
			if _, err := s.Create(ctx, model.Todo{Title: title}); err != nil {
				t.Fatalf("Create %s: %v", title, err)
			}
		}
		todos, _ := s.List(ctx)
		if len(todos) != 3 || todos[0].Title != "a" || todos[1].Title != "b" || todos[2].Title != "c" {
			t.Errorf("order: got %+v", todos)
		}
	})

	t.Run("update replaces", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		created, err := s.Create(ctx, model.Todo{Title: "old", Checkpoints: []model.Checkpoint{{Text: "x", Done: true}}})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		upd, err := s.Update(ctx, created.ID, model.Todo{ID: "other", Title: "new"})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if upd.ID != created.ID || upd.Title != "new" || len(upd.Checkpoints) != 0 {
			t.Errorf("Update result: got %+v", upd)
		}
		todos, _ := s.List(ctx)
		if len(todos) != 1 || todos[0].Title != "new" || len(todos[0].Checkpoints) != 0 {
			t.Errorf("after update: got %+v", todos)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		a, _ := s.Create(ctx, model.Todo{Title: "a"})
		b, _ := s.Create(ctx, model.Todo{Title: "b"})
		if err := s.Delete(ctx, a.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		todos, _ := s.List(ctx)
		if len(todos) != 1 || todos[0].ID != b.ID {
			t.Errorf("after delete: got %+v", todos)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		if _, err := s.Update(ctx, "nope", model.Todo{Title: "x"}); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Update: got %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Delete: got %v, want ErrNotFound", err)
		}
	})
}
