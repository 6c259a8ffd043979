package tui

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/colonyops/taskdeck/internal/core/task"
	"github.com/colonyops/taskdeck/internal/taskdeck"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Nothing is interactive until the session is known.
	if m.session.Loading {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.view == taskdeck.ViewLogin {
		return m.updateLogin(msg)
	}

	switch m.focus {
	case focusTitle, focusDescription:
		return m.handleFormKey(msg)
	case focusConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.login == nil || m.login.pending {
		return m, nil
	}

	model, cmd := m.login.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.login.form = f
	}

	switch m.login.form.State {
	case huh.StateCompleted:
		return m, tea.Batch(cmd, m.login.submit(m.ctx, m.app.Auth))
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.visible()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.Dismiss()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.selected(items); ok {
			return m, m.runOp(m.list.ToggleTask(it.ID))
		}
	case key.Matches(msg, m.keys.Expand):
		if it, ok := m.selected(items); ok {
			m.list.ToggleExpand(it.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(items); ok {
			m.pendingDelete = it.ID
			m.focus = focusConfirmDelete
		}
	case key.Matches(msg, m.keys.New):
		return m, m.openForm()
	case key.Matches(msg, m.keys.Filter):
		m.setFilter(m.list.Filter().Next())
	case key.Matches(msg, m.keys.All):
		m.setFilter(task.FilterAll)
	case key.Matches(msg, m.keys.Active):
		m.setFilter(task.FilterActive)
	case key.Matches(msg, m.keys.Completed):
		m.setFilter(task.FilterCompleted)
	case key.Matches(msg, m.keys.SignOut):
		return m, m.signOut()
	}

	return m, nil
}

func (m Model) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	m.pendingDelete = ""
	m.focus = focusList

	switch msg.String() {
	case "y", "Y":
		return m, m.runOp(m.list.DeleteTask(id))
	default:
		return m, nil
	}
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.formKeys.SubmitAny):
		return m, m.submitForm()
	case key.Matches(msg, m.formKeys.Submit) && m.focus == focusTitle:
		return m, m.submitForm()
	case key.Matches(msg, m.formKeys.NextField):
		return m, m.switchField()
	}

	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	m.list.SetDraft(m.title.Value(), m.description.Value())
	return m, cmd
}

func (m *Model) openForm() tea.Cmd {
	title, desc := m.list.Draft()
	m.title.SetValue(title)
	m.description.SetValue(desc)
	m.focus = focusTitle
	m.description.Blur()
	return m.title.Focus()
}

func (m *Model) closeForm() {
	m.list.SetDraft(m.title.Value(), m.description.Value())
	m.title.Blur()
	m.description.Blur()
	m.focus = focusList
}

func (m *Model) switchField() tea.Cmd {
	if m.focus == focusTitle {
		m.title.Blur()
		m.focus = focusDescription
		return m.description.Focus()
	}
	m.description.Blur()
	m.focus = focusTitle
	return m.title.Focus()
}

// submitForm issues the add operation. A blank title is ignored and the
// form stays open.
func (m *Model) submitForm() tea.Cmd {
	return m.runOp(m.list.AddTask(m.title.Value(), m.description.Value()))
}

func (m *Model) setFilter(f task.Filter) {
	m.list.SetFilter(f)
	m.clampCursor()
}

func (m *Model) signOut() tea.Cmd {
	ctx, client := m.ctx, m.app.Auth
	return func() tea.Msg {
		return signOutMsg{err: client.SignOut(ctx)}
	}
}

func (m Model) visible() []taskdeck.Item {
	return slices.Collect(m.list.Filtered())
}

func (m Model) selected(items []taskdeck.Item) (taskdeck.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(items) {
		return taskdeck.Item{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	switch {
	case n == 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	}
}
