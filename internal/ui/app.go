package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/viewmodel"
)

type mode int

const (
	browseMode mode = iota
	formMode
)

// form input positions; checkpoint slots follow fixedInputs
const (
	inputTitle = iota
	inputStart
	inputEnd
	fixedInputs
)

const (
	barWidth      = 20
	emptyListText = "No todos yet. Start by adding one above!"
)

// resultMsg reports the outcome of a remote operation.
type resultMsg struct {
	op  string
	err error
}

// todoItem adapts model.Todo to bubbles/list.Item
type todoItem struct {
	todo model.Todo
}

func (i todoItem) Title() string       { return i.todo.Title }
func (i todoItem) Description() string { return TimeWindow(i.todo.StartTime, i.todo.EndTime) }
func (i todoItem) FilterValue() string { return i.todo.Title }

// Custom delegate: title and time window on one line, progress below.
type todoDelegate struct{}

func (d todoDelegate) Height() int                               { return 2 }
func (d todoDelegate) Spacing() int                              { return 1 }
func (d todoDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d todoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}
	t := Current()
	title := it.todo.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
		title = t.Title.Render(title)
	}
	fmt.Fprintf(w, "%s%s  %s\n", prefix, title, t.Muted.Render("🕒 "+it.Description()))
	fmt.Fprintf(w, "  %s", ProgressBar(model.Progress(it.todo.Checkpoints), barWidth))
}

type app struct {
	ctx    context.Context
	vm     *viewmodel.Model
	logger *log.Logger

	mode     mode
	list     list.Model
	cpCursor int

	inputs []textinput.Model
	focus  int

	browse browseKeys
	form   formKeys
	help   help.Model

	pending   int
	status    string
	statusErr bool

	width, height int
}

func newApp(ctx context.Context, vm *viewmodel.Model, logger *log.Logger) app {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	t := Current()
	l := list.New(nil, todoDelegate{}, 0, 0)
	l.Title = "Todos"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Muted
	l.Styles.PaginationStyle = t.Muted
	l.SetStatusBarItemName("todo", "todos")
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev page"))
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next page"))
	l.DisableQuitKeybindings()

	bk := newBrowseKeys()
	l.AdditionalShortHelpKeys = bk.bindings
	l.AdditionalFullHelpKeys = bk.bindings

	a := app{
		ctx:     ctx,
		vm:      vm,
		logger:  logger,
		list:    l,
		browse:  bk,
		form:    newFormKeys(),
		help:    help.New(),
		pending: 1, // the initial load issued by Init
		width:   80,
		height:  24,
	}
	a.syncInputs()
	a.resize()
	return a
}

func (a app) Init() tea.Cmd {
	vm, ctx := a.vm, a.ctx
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return resultMsg{op: "load", err: vm.LoadAll(ctx)}
	})
}

// run performs op off the UI goroutine and reports back with a resultMsg.
func (a *app) run(op string, fn func(context.Context) error) tea.Cmd {
	a.pending++
	ctx := a.ctx
	return func() tea.Msg {
		return resultMsg{op: op, err: fn(ctx)}
	}
}

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		return a, nil
	case resultMsg:
		return a.handleResult(msg)
	case tea.KeyMsg:
		if a.mode == formMode {
			return a.updateForm(msg)
		}
		return a.updateBrowse(msg)
	}
	if a.mode == browseMode {
		var cmd tea.Cmd
		a.list, cmd = a.list.Update(msg)
		return a, cmd
	}
	return a.updateFocusedInput(msg)
}

func (a app) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	if a.pending > 0 {
		a.pending--
	}
	cmd := a.refreshList()
	if msg.err != nil {
		a.status, a.statusErr = fmt.Sprintf("%s failed: %v", msg.op, msg.err), true
		if msg.op == "save" && errors.Is(msg.err, viewmodel.ErrStale) {
			// the todo was written and the draft reset
			a.mode = browseMode
			a.syncInputs()
		}
		return a, cmd
	}
	a.status, a.statusErr = "", false
	switch msg.op {
	case "save":
		a.status = "saved"
		a.mode = browseMode
		a.syncInputs()
	case "delete":
		a.status = "deleted"
	}
	return a, cmd
}

// refreshList copies the view-model snapshot into the list widget.
func (a *app) refreshList() tea.Cmd {
	todos := a.vm.Todos()
	items := make([]list.Item, len(todos))
	for i, t := range todos {
		items[i] = todoItem{todo: t}
	}
	idx := a.list.Index()
	cmd := a.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		a.list.Select(idx)
	}
	a.list.Title = listTitle(todos)
	a.clampCheckpoint()
	return cmd
}

func listTitle(todos []model.Todo) string {
	t := Current()
	var done, pending int
	for _, td := range todos {
		d, p := model.Counts(td.Checkpoints)
		done += d
		pending += p
	}
	return fmt.Sprintf("Todos   %s %d  %s %d  %s %d",
		t.Success.Render("✔"), done,
		t.Pending.Render("•"), pending,
		t.Accent.Render("Total"), len(todos),
	)
}

func (a app) selected() (model.Todo, bool) {
	it, ok := a.list.SelectedItem().(todoItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (a *app) clampCheckpoint() {
	t, ok := a.selected()
	if !ok || len(t.Checkpoints) == 0 {
		a.cpCursor = 0
		return
	}
	if a.cpCursor >= len(t.Checkpoints) {
		a.cpCursor = len(t.Checkpoints) - 1
	}
	if a.cpCursor < 0 {
		a.cpCursor = 0
	}
}

func (a app) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := a.browse
	switch {
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	case key.Matches(msg, k.PrevCheckpoint):
		a.cpCursor--
		a.clampCheckpoint()
		return a, nil
	case key.Matches(msg, k.NextCheckpoint):
		a.cpCursor++
		a.clampCheckpoint()
		return a, nil
	case key.Matches(msg, k.Toggle):
		t, ok := a.selected()
		if !ok || len(t.Checkpoints) == 0 {
			return a, nil
		}
		vm, id, i := a.vm, t.ID, a.cpCursor
		cmd := a.run("toggle", func(ctx context.Context) error {
			return vm.ToggleCheckpoint(ctx, id, i)
		})
		return a, cmd
	case key.Matches(msg, k.Add):
		if a.vm.Editing() {
			a.vm.ResetDraft()
		}
		cmd := a.openForm()
		return a, cmd
	case key.Matches(msg, k.Edit):
		t, ok := a.selected()
		if !ok {
			return a, nil
		}
		a.vm.BeginEdit(t)
		cmd := a.openForm()
		return a, cmd
	case key.Matches(msg, k.Delete):
		t, ok := a.selected()
		if !ok {
			return a, nil
		}
		vm, id := a.vm, t.ID
		cmd := a.run("delete", func(ctx context.Context) error {
			return vm.DeleteTodo(ctx, id)
		})
		return a, cmd
	case key.Matches(msg, k.Refresh):
		cmd := a.run("load", a.vm.LoadAll)
		return a, cmd
	}

	idx := a.list.Index()
	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	if a.list.Index() != idx {
		a.cpCursor = 0
	}
	return a, cmd
}

func (a *app) openForm() tea.Cmd {
	a.mode = formMode
	a.status, a.statusErr = "", false
	a.syncInputs()
	return a.setFocus(0)
}

func (a app) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := a.form
	switch {
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	case key.Matches(msg, k.Cancel):
		a.mode = browseMode
		return a, nil
	case key.Matches(msg, k.Next):
		cmd := a.setFocus((a.focus + 1) % len(a.inputs))
		return a, cmd
	case key.Matches(msg, k.Prev):
		cmd := a.setFocus((a.focus - 1 + len(a.inputs)) % len(a.inputs))
		return a, cmd
	case key.Matches(msg, k.AddSlot):
		a.vm.AddCheckpointSlot()
		a.syncInputs()
		cmd := a.setFocus(len(a.inputs) - 1)
		return a, cmd
	case key.Matches(msg, k.RemoveSlot):
		slot := a.focus - fixedInputs
		if slot < 0 {
			return a, nil
		}
		if err := a.vm.RemoveCheckpointSlot(slot); err != nil {
			a.logger.Warn("remove checkpoint slot", "slot", slot, "err", err)
			return a, nil
		}
		a.syncInputs()
		focus := a.focus
		if focus >= len(a.inputs) {
			focus = len(a.inputs) - 1
		}
		cmd := a.setFocus(focus)
		return a, cmd
	case key.Matches(msg, k.Reset):
		a.vm.ResetDraft()
		a.syncInputs()
		cmd := a.setFocus(0)
		return a, cmd
	case key.Matches(msg, k.Submit):
		cmd := a.run("save", a.vm.Submit)
		return a, cmd
	}
	return a.updateFocusedInput(msg)
}

// updateFocusedInput feeds msg to the focused input and copies its value
// into the draft.
func (a app) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.focus < 0 || a.focus >= len(a.inputs) {
		return a, nil
	}
	var cmd tea.Cmd
	before := a.inputs[a.focus].Value()
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	v := a.inputs[a.focus].Value()
	if v == before {
		return a, cmd
	}

	var err error
	switch a.focus {
	case inputTitle:
		err = a.vm.SetDraftField(viewmodel.FieldTitle, v)
	case inputStart:
		err = a.vm.SetDraftField(viewmodel.FieldStartTime, v)
	case inputEnd:
		err = a.vm.SetDraftField(viewmodel.FieldEndTime, v)
	default:
		err = a.vm.UpdateCheckpointSlot(a.focus-fixedInputs, v)
	}
	if err != nil {
		a.logger.Warn("update draft", "input", a.focus, "err", err)
	}
	return a, cmd
}

// syncInputs rebuilds the form inputs from the view-model draft.
func (a *app) syncInputs() {
	d := a.vm.Draft()
	inputs := make([]textinput.Model, 0, fixedInputs+len(d.Checkpoints))
	inputs = append(inputs,
		newInput("Enter todo title...", d.Title, 200),
		newInput("HH:MM", d.StartTime, 16),
		newInput("HH:MM", d.EndTime, 16),
	)
	for i, text := range d.Checkpoints {
		inputs = append(inputs, newInput(fmt.Sprintf("Checkpoint %d", i+1), text, 200))
	}
	a.inputs = inputs
	if a.focus >= len(a.inputs) {
		a.focus = len(a.inputs) - 1
	}
}

func newInput(placeholder, value string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.SetValue(value)
	return ti
}

func (a *app) setFocus(i int) tea.Cmd {
	if i < 0 || i >= len(a.inputs) {
		return nil
	}
	for j := range a.inputs {
		a.inputs[j].Blur()
	}
	a.focus = i
	return a.inputs[i].Focus()
}

func (a *app) resize() {
	h := a.height - 4 - a.checkpointRows()
	if h < 6 {
		h = 6
	}
	a.list.SetSize(a.width-4, h)
	a.help.Width = a.width - 4
}

func (a app) checkpointRows() int {
	t, ok := a.selected()
	if !ok {
		return 2
	}
	return len(t.Checkpoints) + 3
}

func (a app) View() string {
	var content string
	if a.mode == formMode {
		content = a.formView()
	} else {
		content = a.browseView()
	}
	if line := a.statusLine(); line != "" {
		content += "\n" + line
	}
	return Box().Render(content)
}

func (a app) browseView() string {
	t := Current()
	if len(a.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			t.Title.Render("🎯 My Todo Planner"),
			"",
			t.Muted.Render(emptyListText),
			"",
			t.Muted.Render("a add • r refresh • q quit"),
		)
	}
	a.resize()
	return lipgloss.JoinVertical(lipgloss.Left, a.list.View(), a.checkpointsView())
}

func (a app) checkpointsView() string {
	t := Current()
	td, ok := a.selected()
	if !ok {
		return ""
	}
	lines := []string{t.Accent.Render("Checkpoints")}
	if len(td.Checkpoints) == 0 {
		lines = append(lines, t.Muted.Render("  (none)"))
	}
	for i, cp := range td.Checkpoints {
		prefix := "  "
		if i == a.cpCursor {
			prefix = t.Selected.Render(">") + " "
		}
		text := cp.Text
		if cp.Done {
			text = t.Done.Render(text)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", prefix, Checkbox(cp.Done), text))
	}
	return strings.Join(lines, "\n")
}

func (a app) formView() string {
	t := Current()
	heading := "📝 Add New Todo"
	if a.vm.Editing() {
		heading = "✏️ Edit Todo"
	}
	lines := []string{t.Title.Render(heading), ""}
	labels := []string{"Title", "Start Time", "End Time"}
	for i, in := range a.inputs {
		label := ""
		if i < fixedInputs {
			label = labels[i]
		} else if i == fixedInputs {
			lines = append(lines, "", t.Accent.Render("Checkpoints"))
		}
		if label != "" {
			lines = append(lines, t.Muted.Render(label))
		}
		lines = append(lines, in.View())
	}
	if len(a.inputs) == fixedInputs {
		lines = append(lines, "", t.Accent.Render("Checkpoints"), t.Muted.Render("  (none, ctrl+n to add)"))
	}
	lines = append(lines, "", a.help.View(a.form))
	return strings.Join(lines, "\n")
}

func (a app) statusLine() string {
	t := Current()
	switch {
	case a.status != "" && a.statusErr:
		return t.Error.Render("✖ " + a.status)
	case a.pending > 0:
		return t.Muted.Render("working…")
	case a.status != "":
		return t.Success.Render("✔ " + a.status)
	}
	return ""
}

// Run starts the interactive UI and blocks until the user quits.
func Run(ctx context.Context, vm *viewmodel.Model, logger *log.Logger, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(newApp(ctx, vm, logger), opts...)
	_, err := p.Run()
	return err
}
