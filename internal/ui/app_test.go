package ui

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/planner/internal/api"
	"github.com/idilsaglam/planner/internal/devserver"
	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/store"
	"github.com/idilsaglam/planner/internal/viewmodel"
)

func newTestApp(t *testing.T, seed ...model.Todo) (app, *viewmodel.Model) {
	t.Helper()
	srv := httptest.NewServer(devserver.New(store.NewMemoryFrom(seed), nil))
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	vm := viewmodel.New(client)
	return newApp(context.Background(), vm, nil), vm
}

// step feeds msg to the app without running the returned command.
func step(t *testing.T, a app, msg tea.Msg) app {
	t.Helper()
	m, _ := a.Update(msg)
	return m.(app)
}

// remote feeds msg to the app, runs the remote call it issues and feeds
// back the result.
func remote(t *testing.T, a app, msg tea.Msg) app {
	t.Helper()
	m, cmd := a.Update(msg)
	a = m.(app)
	if cmd == nil {
		t.Fatalf("%v issued no command", msg)
	}
	res, ok := cmd().(resultMsg)
	if !ok {
		t.Fatalf("%v did not issue a remote call", msg)
	}
	m, _ = a.Update(res)
	return m.(app)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func load(t *testing.T, a app) app {
	t.Helper()
	if err := a.vm.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	m, _ := a.Update(resultMsg{op: "load"})
	return m.(app)
}

func TestEmptyListView(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")
	a, _ := newTestApp(t)
	a = load(t, a)
	if !strings.Contains(a.View(), emptyListText) {
		t.Errorf("empty view should say %q:\n%s", emptyListText, a.View())
	}
}

func TestCreateThroughForm(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")
	a, vm := newTestApp(t)
	a = load(t, a)

	a = step(t, a, keys("a"))
	if a.mode != formMode {
		t.Fatal("a should open the form")
	}
	a = step(t, a, keys("Standup"))
	a = step(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a = step(t, a, keys("09:00"))
	a = step(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a = step(t, a, keys("09:15"))
	a = step(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a = step(t, a, keys("notes"))
	a = step(t, a, tea.KeyMsg{Type: tea.KeyCtrlN})
	a = step(t, a, keys("  "))

	d := vm.Draft()
	if d.Title != "Standup" || d.StartTime != "09:00" || d.EndTime != "09:15" {
		t.Fatalf("draft not synced from inputs: %+v", d)
	}
	if len(d.Checkpoints) != 2 || d.Checkpoints[0] != "notes" {
		t.Fatalf("draft checkpoints: %q", d.Checkpoints)
	}

	a = remote(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.mode != browseMode {
		t.Errorf("successful save should return to the list, status %q", a.status)
	}
	todos := vm.Todos()
	if len(todos) != 1 || todos[0].Title != "Standup" || len(todos[0].Checkpoints) != 1 {
		t.Fatalf("todos: %+v", todos)
	}
	view := a.View()
	for _, want := range []string{"Standup", "09:00 - 09:15", "notes", "[ ]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestToggleAndEditFromList(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")
	a, vm := newTestApp(t, model.Todo{ID: "1", Title: "T", Checkpoints: []model.Checkpoint{{Text: "a"}, {Text: "b"}}})
	a = load(t, a)

	a = step(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.cpCursor != 1 {
		t.Fatalf("cpCursor: got %d, want 1", a.cpCursor)
	}
	a = step(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.cpCursor != 1 {
		t.Errorf("cpCursor should clamp at the last checkpoint, got %d", a.cpCursor)
	}
	a = remote(t, a, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	got, _ := vm.Todo("1")
	if got.Checkpoints[0].Done || !got.Checkpoints[1].Done {
		t.Fatalf("toggle: %+v", got.Checkpoints)
	}
	if !strings.Contains(a.View(), "[x]") {
		t.Errorf("view should show a checked box:\n%s", a.View())
	}

	a = step(t, a, keys("e"))
	if a.mode != formMode || !vm.Editing() {
		t.Fatal("e should open the form in edit mode")
	}
	if a.inputs[inputTitle].Value() != "T" || len(a.inputs) != fixedInputs+2 {
		t.Errorf("form not seeded from todo: %d inputs", len(a.inputs))
	}
	if !strings.Contains(a.View(), "Edit Todo") {
		t.Error("form heading should say Edit Todo")
	}
	a = remote(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	got, _ = vm.Todo("1")
	if got.Checkpoints[1].Done {
		t.Error("resubmitting an edit should reset completion")
	}
}

func TestDeleteFromList(t *testing.T) {
	a, vm := newTestApp(t, model.Todo{ID: "1", Title: "T"}, model.Todo{ID: "2", Title: "U"})
	a = load(t, a)
	a = remote(t, a, keys("d"))
	if todos := vm.Todos(); len(todos) != 1 || todos[0].ID != "2" {
		t.Fatalf("todos after delete: %+v", todos)
	}
	if a.status != "deleted" {
		t.Errorf("status: got %q", a.status)
	}
}

func TestRemoveSlotAndReset(t *testing.T) {
	a, vm := newTestApp(t)
	a = load(t, a)
	a = step(t, a, keys("a"))
	a = step(t, a, keys("T"))
	a = step(t, a, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := len(vm.Draft().Checkpoints); got != 2 {
		t.Fatalf("slots after ctrl+n: %d", got)
	}
	a = step(t, a, tea.KeyMsg{Type: tea.KeyCtrlX})
	if got := len(vm.Draft().Checkpoints); got != 1 {
		t.Fatalf("slots after ctrl+x: %d", got)
	}
	if a.focus >= len(a.inputs) {
		t.Errorf("focus %d out of %d inputs", a.focus, len(a.inputs))
	}

	a = step(t, a, tea.KeyMsg{Type: tea.KeyCtrlR})
	if vm.Draft().Title != "" || a.inputs[inputTitle].Value() != "" {
		t.Error("ctrl+r should reset the draft and inputs")
	}
	a = step(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.mode != browseMode {
		t.Error("esc should go back to the list")
	}
}

func TestFailureShowsStatus(t *testing.T) {
	srv := httptest.NewServer(devserver.New(store.NewMemory(), nil))
	client, _ := api.New(srv.URL)
	srv.Close()
	vm := viewmodel.New(client)
	a := newApp(context.Background(), vm, nil)

	a = remote(t, a, keys("r"))
	if !a.statusErr || !strings.Contains(a.status, "load failed") {
		t.Errorf("status: got %q (err=%v)", a.status, a.statusErr)
	}
}

// flakyList is a remote whose List can be switched off.
type flakyList struct {
	*store.Memory
	listDown bool
	created  []model.Todo
}

func (f *flakyList) List(ctx context.Context) ([]model.Todo, error) {
	if f.listDown {
		return nil, errors.New("list down")
	}
	return f.Memory.List(ctx)
}

func (f *flakyList) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	f.created = append(f.created, t)
	return f.Memory.Create(ctx, t)
}

func TestSaveWithFailedReloadLeavesForm(t *testing.T) {
	r := &flakyList{Memory: store.NewMemory()}
	vm := viewmodel.New(r)
	a := newApp(context.Background(), vm, nil)
	a = load(t, a)

	a = step(t, a, keys("a"))
	a = step(t, a, keys("Meeting"))
	r.listDown = true
	a = remote(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	if !a.statusErr || !strings.Contains(a.status, "list down") {
		t.Errorf("status: got %q (err=%v)", a.status, a.statusErr)
	}
	if a.mode != browseMode {
		t.Error("a saved todo should leave the form even if the reload failed")
	}
	if got := a.inputs[inputTitle].Value(); got != "" {
		t.Errorf("title input should follow the reset draft, got %q", got)
	}

	if len(r.created) != 1 || r.created[0].Title != "Meeting" {
		t.Errorf("creates: %+v", r.created)
	}

	r.listDown = false
	a = step(t, a, keys("a"))
	a = step(t, a, keys("Retro"))
	a = remote(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if len(r.created) != 2 || r.created[1].Title != "Retro" {
		t.Errorf("second create should carry only the new title: %+v", r.created)
	}
}

func TestProgressBar(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")
	tests := []struct {
		percent int
		want    string
	}{
		{0, "----------   0%"},
		{50, "#####-----  50%"},
		{100, "########## 100%"},
		{150, "########## 100%"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.percent, 10); got != tt.want {
			t.Errorf("ProgressBar(%d): got %q, want %q", tt.percent, got, tt.want)
		}
	}
}
