package tui

import "github.com/charmbracelet/bubbles/key"

// listKeyMap holds the bindings active while browsing the task list.
type listKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Expand    key.Binding
	Delete    key.Binding
	New       key.Binding
	Filter    key.Binding
	All       key.Binding
	Active    key.Binding
	Completed key.Binding
	SignOut   key.Binding
	Dismiss   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newListKeyMap() listKeyMap {
	return listKeyMap{
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle done")),
		Expand:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		New:       key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new task")),
		Filter:    key.NewBinding(key.WithKeys("tab", "f"), key.WithHelp("tab", "next filter")),
		All:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		Active:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		Completed: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		SignOut:   key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sign out")),
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Toggle, k.Expand, k.Delete, k.Filter, k.Help, k.Quit}
}

func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Expand, k.Delete},
		{k.New, k.Filter, k.All, k.Active, k.Completed},
		{k.SignOut, k.Dismiss, k.Help, k.Quit},
	}
}

// formKeyMap holds the bindings active while editing the add-task form.
type formKeyMap struct {
	Submit    key.Binding
	SubmitAny key.Binding
	NextField key.Binding
	Cancel    key.Binding
	ForceQuit key.Binding
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add task")),
		SubmitAny: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "add task")),
		NextField: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch field")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to list")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.SubmitAny, k.NextField, k.Cancel}
}

func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.ForceQuit}}
}
