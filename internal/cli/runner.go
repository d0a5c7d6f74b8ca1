package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/idilsaglam/planner/internal/api"
	"github.com/idilsaglam/planner/internal/config"
	"github.com/idilsaglam/planner/internal/devserver"
	"github.com/idilsaglam/planner/internal/logging"
	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/ui"
	"github.com/idilsaglam/planner/internal/viewmodel"
)

// Options carries what the root command resolved.
type Options struct {
	Config *config.Config
	Logger *log.Logger
	Out    io.Writer
	Err    io.Writer
}

type runner struct {
	ctx    context.Context
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
	err    io.Writer
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	r := &runner{ctx: ctx, cfg: opt.Config, logger: opt.Logger, out: opt.Out, err: opt.Err}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.err == nil {
		r.err = os.Stderr
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.cfg == nil {
		cfg, err := config.Load(config.Overrides{})
		if err != nil {
			r.fail("config: " + err.Error())
			return 1
		}
		r.cfg = cfg
	}
	ui.SetTheme(r.cfg.UI.Theme)

	if len(args) == 0 {
		return r.doTUI()
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(r.out)
		return 0

	case "tui":
		return r.doTUI()

	case "ls":
		return r.doList()

	case "add":
		return r.doAdd(a)

	case "edit":
		return r.doEdit(a)

	case "done":
		if len(a) != 2 {
			r.fail("usage: planner done <todo> <checkpoint>")
			return 2
		}
		n, ok := r.index("done", a[0])
		if !ok {
			return 2
		}
		m, ok := r.index("done", a[1])
		if !ok {
			return 2
		}
		return r.doToggle(n, m)

	case "rm":
		if len(a) != 1 {
			r.fail("usage: planner rm <todo>")
			return 2
		}
		n, ok := r.index("rm", a[0])
		if !ok {
			return 2
		}
		return r.doRemove(n)

	case "serve":
		return r.doServe(a)

	case "config":
		return r.doConfig(a)
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.err)
	PrintHelp(r.err)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `planner - todos with checkpoints, backed by a REST service

Usage:
  planner [flags] [subcommand] [args]

Flags:
  -api <url>         todo service address (default http://localhost:5000)
  -config <file>     config file (default ./planner.toml or ~/.config/planner/planner.toml)
  -theme <name>      classic, neon or mono
  -verbose           debug logging

Subcommands:
  (none), tui                               Interactive planner
  ls                                        List todos with progress
  add [-start t] [-end t] [-cp text]... <title...>
                                            Add a todo
  edit <todo> [-title t] [-start t] [-end t] [-cp text]...
                                            Replace a todo (resets checkpoint completion)
  done <todo> <checkpoint>                  Toggle a checkpoint (1-based indexes)
  rm <todo>                                 Delete a todo
  serve [-addr a] [-store memory|json|sqlite] [-path file]
                                            Run a local todo service
  config init [file] | config show          Write an example config / print the effective one

Examples:
  planner add -start 09:00 -end 10:00 -cp "slides" -cp "notes" Weekly review
  planner ls
  planner done 1 2
  planner rm 3
`)
}

// -------------- subcommand impls ----------------

func (r *runner) doTUI() int {
	f, err := logging.OpenFile(r.cfg.Log.File)
	if err != nil {
		r.fail("log: " + err.Error())
		return 1
	}
	defer f.Close()
	logger := logging.New(f, logging.Options{Level: r.cfg.Log.Level, Format: r.cfg.Log.Format, Prefix: "planner"})

	vm, err := r.viewModel(logger)
	if err != nil {
		r.fail(err.Error())
		return 1
	}
	if err := ui.Run(r.ctx, vm, logger); err != nil && !errors.Is(err, context.Canceled) {
		r.fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func (r *runner) doList() int {
	vm, ok := r.loaded()
	if !ok {
		return 1
	}
	todos := vm.Todos()
	t := ui.Current()

	var done, pending int
	for _, td := range todos {
		d, p := model.Counts(td.Checkpoints)
		done += d
		pending += p
	}
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render("✔"), done,
		t.Pending.Render("•"), pending,
		t.Accent.Render("Total"), len(todos),
	)

	lines := []string{header, ""}
	lines = append(lines, todoLines(todos)...)
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: toggle with `planner done <todo> <checkpoint>`"))
	ui.Panel(r.out, lines)
	return 0
}

func (r *runner) doAdd(args []string) int {
	fs, fields := draftFlags("add", r.err)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		r.fail("add: empty title")
		return 2
	}
	fields.title = &title

	vm, err := r.viewModel(r.logger)
	if err != nil {
		r.fail(err.Error())
		return 1
	}
	if err := fields.apply(vm); err != nil {
		r.fail("add: " + err.Error())
		return 1
	}
	if err := vm.Submit(r.ctx); err != nil {
		r.fail("add: " + err.Error())
		return 1
	}
	r.ok("added")
	return 0
}

func (r *runner) doEdit(args []string) int {
	if len(args) == 0 {
		r.fail("usage: planner edit <todo> [-title t] [-start t] [-end t] [-cp text]...")
		return 2
	}
	n, ok := r.index("edit", args[0])
	if !ok {
		return 2
	}
	fs, fields := draftFlags("edit", r.err)
	title := fs.String("title", "", "new title")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		r.fail("edit: unexpected arguments: " + strings.Join(fs.Args(), " "))
		return 2
	}
	if *title != "" {
		fields.title = title
	}

	vm, ok := r.loaded()
	if !ok {
		return 1
	}
	todo, ok := r.pick(vm, n)
	if !ok {
		return 2
	}
	vm.BeginEdit(todo)
	if err := fields.apply(vm); err != nil {
		r.fail("edit: " + err.Error())
		return 1
	}
	if err := vm.Submit(r.ctx); err != nil {
		r.fail("edit: " + err.Error())
		return 1
	}
	r.ok("updated")
	return 0
}

func (r *runner) doToggle(n, m int) int {
	vm, ok := r.loaded()
	if !ok {
		return 1
	}
	todo, ok := r.pick(vm, n)
	if !ok {
		return 2
	}
	if m < 1 || m > len(todo.Checkpoints) {
		r.fail(fmt.Sprintf("checkpoint out of range: have %d, got %d", len(todo.Checkpoints), m))
		r.hint()
		return 2
	}
	if err := vm.ToggleCheckpoint(r.ctx, todo.ID, m-1); err != nil {
		r.fail("done: " + err.Error())
		return 1
	}
	state := "toggled"
	if after, found := vm.Todo(todo.ID); found && m-1 < len(after.Checkpoints) {
		if after.Checkpoints[m-1].Done {
			state = "checked"
		} else {
			state = "unchecked"
		}
		state += fmt.Sprintf(" (%d%% done)", model.Progress(after.Checkpoints))
	}
	r.ok(state)
	return 0
}

func (r *runner) doRemove(n int) int {
	vm, ok := r.loaded()
	if !ok {
		return 1
	}
	todo, ok := r.pick(vm, n)
	if !ok {
		return 2
	}
	if err := vm.DeleteTodo(r.ctx, todo.ID); err != nil {
		r.fail("rm: " + err.Error())
		return 1
	}
	r.ok("removed")
	return 0
}

func (r *runner) doServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(r.err)
	addr := fs.String("addr", r.cfg.Serve.Addr, "listen address")
	kind := fs.String("store", r.cfg.Serve.Store, "memory, json or sqlite")
	path := fs.String("path", r.cfg.Serve.Path, "data file for the json and sqlite stores")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	st, err := devserver.OpenStore(*kind, *path)
	if err != nil {
		r.fail("serve: " + err.Error())
		return 2
	}
	defer st.Close()

	r.logger.Info("starting todo service", "store", *kind, "path", *path)
	if err := devserver.New(st, r.logger).ListenAndServe(r.ctx, *addr); err != nil {
		r.fail("serve: " + err.Error())
		return 1
	}
	return 0
}

func (r *runner) doConfig(args []string) int {
	if len(args) == 0 {
		r.fail("usage: planner config <init [file]|show>")
		return 2
	}
	switch args[0] {
	case "show":
		if r.cfg.File != "" {
			fmt.Fprintf(r.out, "# loaded from %s\n", r.cfg.File)
		}
		if err := config.Encode(r.out, r.cfg); err != nil {
			r.fail("config: " + err.Error())
			return 1
		}
		return 0
	case "init":
		path := ""
		if len(args) > 1 {
			path = args[1]
		} else {
			dir, err := config.UserDir()
			if err != nil {
				r.fail("config: " + err.Error())
				return 1
			}
			path = filepath.Join(dir, "planner.toml")
		}
		if err := config.WriteExample(path); err != nil {
			r.fail("config: " + err.Error())
			return 1
		}
		r.ok("wrote " + path)
		return 0
	}
	r.fail("usage: planner config <init [file]|show>")
	return 2
}

// -------------- helpers --------------

func (r *runner) viewModel(logger *log.Logger) (*viewmodel.Model, error) {
	client, err := api.New(r.cfg.API.BaseURL,
		api.WithTimeout(r.cfg.API.Timeout),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return viewmodel.New(client, viewmodel.WithLogger(logger)), nil
}

// loaded returns a view-model holding the current todo list.
func (r *runner) loaded() (*viewmodel.Model, bool) {
	vm, err := r.viewModel(r.logger)
	if err != nil {
		r.fail(err.Error())
		return nil, false
	}
	if err := vm.LoadAll(r.ctx); err != nil {
		r.fail(err.Error())
		return nil, false
	}
	return vm, true
}

// pick returns the todo at 1-based position n.
func (r *runner) pick(vm *viewmodel.Model, n int) (model.Todo, bool) {
	todos := vm.Todos()
	if n < 1 || n > len(todos) {
		r.fail(fmt.Sprintf("index out of range: have %d, got %d", len(todos), n))
		r.hint()
		return model.Todo{}, false
	}
	return todos[n-1], true
}

func (r *runner) index(cmd, s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(cmd + ": not a number: " + s)
		return 0, false
	}
	return n, true
}

func (r *runner) ok(msg string)   { ui.OK(r.out, msg) }
func (r *runner) fail(msg string) { ui.Fail(r.err, msg) }
func (r *runner) hint()           { ui.Hint(r.err, "Hint: run `planner ls` to see valid indexes") }

const maxTitleWidth = 60

func todoLines(todos []model.Todo) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{t.Muted.Render("No todos yet. Add one with `planner add <title>`")}
	}
	var out []string
	for i, td := range todos {
		title := ansi.Truncate(td.Title, maxTitleWidth, "...")
		out = append(out, fmt.Sprintf("%s %s  %s",
			t.Muted.Render(fmt.Sprintf("%2d.", i+1)), t.Title.Render(title),
			t.Muted.Render("🕒 "+ui.TimeWindow(td.StartTime, td.EndTime))))
		out = append(out, "    "+ui.ProgressBar(model.Progress(td.Checkpoints), 20))
		for j, cp := range td.Checkpoints {
			text := cp.Text
			if cp.Done {
				text = t.Done.Render(text)
			}
			out = append(out, fmt.Sprintf("    %s %s %s", t.Muted.Render(fmt.Sprintf("%d.", j+1)), ui.Checkbox(cp.Done), text))
		}
	}
	return out
}
