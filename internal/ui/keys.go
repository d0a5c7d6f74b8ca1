package ui

import "github.com/charmbracelet/bubbles/key"

type browseKeys struct {
	PrevCheckpoint key.Binding
	NextCheckpoint key.Binding
	Toggle         key.Binding
	Add            key.Binding
	Edit           key.Binding
	Delete         key.Binding
	Refresh        key.Binding
	Quit           key.Binding
}

type formKeys struct {
	Next       key.Binding
	Prev       key.Binding
	AddSlot    key.Binding
	RemoveSlot key.Binding
	Submit     key.Binding
	Reset      key.Binding
	Cancel     key.Binding
	Quit       key.Binding
}

func newBrowseKeys() browseKeys {
	return browseKeys{
		PrevCheckpoint: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev checkpoint")),
		NextCheckpoint: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next checkpoint")),
		Toggle:         key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Add:            key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
		Edit:           key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k browseKeys) bindings() []key.Binding {
	return []key.Binding{k.Toggle, k.PrevCheckpoint, k.NextCheckpoint, k.Add, k.Edit, k.Delete, k.Refresh}
}

func newFormKeys() formKeys {
	return formKeys{
		Next:       key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:       key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		AddSlot:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add checkpoint")),
		RemoveSlot: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "remove checkpoint")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Reset:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.AddSlot, k.RemoveSlot, k.Submit, k.Reset, k.Cancel}
}

func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Prev, k.Quit}}
}
