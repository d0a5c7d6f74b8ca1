package store_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/store"
	"github.com/idilsaglam/planner/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemory() })
}

func TestNewIDIsObjectIDHex(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{24}$`)
	a, b := store.NewID(), store.NewID()
	if !re.MatchString(a) {
		t.Errorf("NewID: %q is not a 24-char hex ObjectID", a)
	}
	if a == b {
		t.Error("NewID returned the same id twice")
	}
}

func TestMemoryListReturnsCopies(t *testing.T) {
	m := store.NewMemoryFrom([]model.Todo{{ID: "1", Checkpoints: []model.Checkpoint{{Text: "x"}}}})
	todos, _ := m.List(context.Background())
	todos[0].Checkpoints[0].Done = true

	again, _ := m.List(context.Background())
	if again[0].Checkpoints[0].Done {
		t.Error("List leaked internal storage")
	}
}
