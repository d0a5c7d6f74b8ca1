// Package viewmodel holds the client-side todo state: the last snapshot
// fetched from the remote service and the create/edit draft. Every
// mutation goes to the remote service and is followed by a full reload;
// nothing is cached or merged locally.
//
// A failed operation is logged, returned, and leaves the snapshot and the
// draft as they were.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/planner/internal/model"
)

var (
	ErrTodoNotFound         = errors.New("todo not found")
	ErrCheckpointOutOfRange = errors.New("checkpoint index out of range")
	ErrSlotOutOfRange       = errors.New("checkpoint slot index out of range")
	ErrUnknownField         = errors.New("unknown draft field")

	// ErrStale wraps a reload failure that follows a successful write.
	// The write has landed; only the snapshot is out of date.
	ErrStale = errors.New("change saved but list is stale")
)

// Remote is the todo service contract.
type Remote interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, t model.Todo) (model.Todo, error)
	Update(ctx context.Context, id string, t model.Todo) (model.Todo, error)
	Delete(ctx context.Context, id string) error
}

// Field names a single-valued draft attribute.
type Field int

const (
	FieldTitle Field = iota
	FieldStartTime
	FieldEndTime
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldStartTime:
		return "startTime"
	case FieldEndTime:
		return "endTime"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Draft is the not-yet-submitted form. EditID is empty in create mode.
type Draft struct {
	Title       string
	StartTime   string
	EndTime     string
	Checkpoints []string
	EditID      string
}

// Editing reports whether the draft targets an existing todo.
func (d Draft) Editing() bool { return d.EditID != "" }

// Payload builds the todo sent on submit: blank checkpoint texts are
// dropped, the rest keep their order and start not done.
func (d Draft) Payload() model.Todo {
	cps := make([]model.Checkpoint, 0, len(d.Checkpoints))
	for _, text := range d.Checkpoints {
		if strings.TrimSpace(text) == "" {
			continue
		}
		cps = append(cps, model.Checkpoint{Text: text, Done: false})
	}
	return model.Todo{
		Title:       d.Title,
		Checkpoints: cps,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
	}
}

func (d Draft) clone() Draft {
	out := d
	out.Checkpoints = append([]string(nil), d.Checkpoints...)
	return out
}

// emptyDraft is the initial form: one empty checkpoint slot.
func emptyDraft() Draft {
	return Draft{Checkpoints: []string{""}}
}

// Model is the todo view-model. It is safe for use from several
// goroutines; the lock is never held across a remote call, so
// overlapping operations complete in whatever order the service answers.
type Model struct {
	remote Remote
	logger *log.Logger

	mu    sync.Mutex
	todos []model.Todo
	draft Draft
}

// Option configures a Model.
type Option func(*Model)

func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// New returns a Model with an empty snapshot and the initial draft.
func New(remote Remote, opts ...Option) *Model {
	m := &Model{
		remote: remote,
		logger: log.New(io.Discard),
		todos:  []model.Todo{},
		draft:  emptyDraft(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Todos returns a copy of the current snapshot.
func (m *Model) Todos() []model.Todo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Todo, len(m.todos))
	for i, t := range m.todos {
		out[i] = t.Clone()
	}
	return out
}

// Todo returns a copy of the todo with the given id from the snapshot.
func (m *Model) Todo(id string) (model.Todo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return model.Todo{}, false
	}
	return m.todos[i].Clone(), true
}

// Draft returns a copy of the current draft.
func (m *Model) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.clone()
}

func (m *Model) Editing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.Editing()
}

// LoadAll replaces the snapshot with the service's full list.
func (m *Model) LoadAll(ctx context.Context) error {
	todos, err := m.remote.List(ctx)
	if err != nil {
		m.logger.Error("load todos", "err", err)
		return fmt.Errorf("load todos: %w", err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	m.mu.Lock()
	m.todos = todos
	m.mu.Unlock()
	m.logger.Debug("loaded todos", "count", len(todos))
	return nil
}

// SetDraftField sets the title or one of the times.
func (m *Model) SetDraftField(f Field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch f {
	case FieldTitle:
		m.draft.Title = value
	case FieldStartTime:
		m.draft.StartTime = value
	case FieldEndTime:
		m.draft.EndTime = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	return nil
}

// AddCheckpointSlot appends an empty checkpoint text.
func (m *Model) AddCheckpointSlot() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Checkpoints = append(m.draft.Checkpoints, "")
}

// UpdateCheckpointSlot replaces the text of slot i.
func (m *Model) UpdateCheckpointSlot(i int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.draft.Checkpoints) {
		return fmt.Errorf("%w: %d (have %d)", ErrSlotOutOfRange, i, len(m.draft.Checkpoints))
	}
	m.draft.Checkpoints[i] = text
	return nil
}

// RemoveCheckpointSlot deletes slot i. Removing the last slot leaves an
// empty sequence.
func (m *Model) RemoveCheckpointSlot(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.draft.Checkpoints)
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (have %d)", ErrSlotOutOfRange, i, n)
	}
	cps := make([]string, 0, n-1)
	cps = append(cps, m.draft.Checkpoints[:i]...)
	cps = append(cps, m.draft.Checkpoints[i+1:]...)
	m.draft.Checkpoints = cps
	return nil
}

// ResetDraft restores the initial draft and leaves edit mode.
func (m *Model) ResetDraft() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = emptyDraft()
}

// BeginEdit seeds the draft from t and targets t for update. Only the
// checkpoint texts are copied, so resubmitting resets every checkpoint
// to not done.
func (m *Model) BeginEdit(t model.Todo) {
	texts := make([]string, len(t.Checkpoints))
	for i, c := range t.Checkpoints {
		texts[i] = c.Text
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = Draft{
		Title:       t.Title,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Checkpoints: texts,
		EditID:      t.ID,
	}
}

// Submit creates a todo from the draft, or replaces the edit target.
// On success the draft is reset and the snapshot reloaded. If the service
// rejects the request the draft is kept.
func (m *Model) Submit(ctx context.Context) error {
	d := m.Draft()
	payload := d.Payload()

	var err error
	if d.Editing() {
		_, err = m.remote.Update(ctx, d.EditID, payload)
	} else {
		_, err = m.remote.Create(ctx, payload)
	}
	if err != nil {
		m.logger.Error("submit todo", "edit_id", d.EditID, "err", err)
		if d.Editing() {
			return fmt.Errorf("update todo %s: %w", d.EditID, err)
		}
		return fmt.Errorf("create todo: %w", err)
	}
	m.logger.Info("todo saved", "edit_id", d.EditID, "title", payload.Title, "checkpoints", len(payload.Checkpoints))

	m.ResetDraft()
	return m.reload(ctx)
}

// DeleteTodo removes the todo with the given id and reloads.
func (m *Model) DeleteTodo(ctx context.Context, id string) error {
	if err := m.remote.Delete(ctx, id); err != nil {
		m.logger.Error("delete todo", "id", id, "err", err)
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	m.logger.Info("todo deleted", "id", id)
	return m.reload(ctx)
}

// ToggleCheckpoint flips checkpoint i of the todo with the given id,
// sends the whole todo as a replacement, and reloads. The snapshot is
// only changed by the reload.
func (m *Model) ToggleCheckpoint(ctx context.Context, id string, i int) error {
	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTodoNotFound, id)
	}
	t := m.todos[idx].Clone()
	m.mu.Unlock()

	if i < 0 || i >= len(t.Checkpoints) {
		return fmt.Errorf("%w: %d (todo %s has %d)", ErrCheckpointOutOfRange, i, id, len(t.Checkpoints))
	}
	t.Checkpoints[i].Done = !t.Checkpoints[i].Done

	if _, err := m.remote.Update(ctx, id, t); err != nil {
		m.logger.Error("toggle checkpoint", "id", id, "index", i, "err", err)
		return fmt.Errorf("toggle checkpoint %d of %s: %w", i, id, err)
	}
	m.logger.Debug("checkpoint toggled", "id", id, "index", i, "done", t.Checkpoints[i].Done)
	return m.reload(ctx)
}

// reload refreshes the snapshot after a write.
func (m *Model) reload(ctx context.Context) error {
	if err := m.LoadAll(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	return nil
}

// indexOf requires m.mu.
func (m *Model) indexOf(id string) int {
	for i, t := range m.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
