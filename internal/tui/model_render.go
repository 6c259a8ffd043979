package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/colonyops/taskdeck/internal/core/styles"
	"github.com/colonyops/taskdeck/internal/core/task"
	"github.com/colonyops/taskdeck/internal/taskdeck"
)

func (m Model) View() string {
	var content string
	switch {
	case m.session.Loading:
		content = m.loadingView()
	case m.view == taskdeck.ViewLogin && m.login != nil:
		content = m.login.View(m.width, m.spinner.View())
	default:
		content = m.tasksView()
	}
	return m.toastView.Below(content, m.width)
}

func (m Model) loadingView() string {
	msg := m.spinner.View() + " " + styles.TextMutedStyle.Render("Checking session…")
	return lipgloss.Place(max(m.width, 1), max(m.height, 3), lipgloss.Center, lipgloss.Center, msg)
}

func (m Model) tasksView() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")
	b.WriteString(m.renderTasks())

	if m.focus == focusConfirmDelete {
		b.WriteString("\n\n")
		b.WriteString(styles.ErrorStyle.Render("Delete this task? (y/n)"))
	}

	b.WriteString("\n\n")
	if m.focus == focusTitle || m.focus == focusDescription {
		b.WriteString(m.help.View(m.formKeys))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) renderHeader() string {
	left := styles.TitleStyle.Render("taskdeck")
	if m.inflight > 0 {
		left += " " + m.spinner.View()
	}

	var right string
	if owner := m.list.Owner(); owner != nil {
		right = styles.TextMutedStyle.Render(styles.IconUser+" "+owner.Email) +
			"  " + styles.TextMutedStyle.Render("S sign out")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left + "\n" + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderForm() string {
	editing := m.focus == focusTitle || m.focus == focusDescription
	if !editing {
		title, _ := m.list.Draft()
		hint := "n  add a task"
		if title != "" {
			hint = "n  continue: " + title
		}
		return styles.InputBlurredStyle.Render(styles.TextMutedStyle.Render(hint))
	}

	titleStyle, descStyle := styles.InputFocusedStyle, styles.InputBlurredStyle
	if m.focus == focusDescription {
		titleStyle, descStyle = descStyle, titleStyle
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.title.View()),
		descStyle.Render(m.description.View()),
	)
}

func (m Model) renderFilters() string {
	tabs := make([]string, 0, len(task.Filters))
	for _, f := range task.Filters {
		style := styles.FilterNormalStyle
		if f == m.list.Filter() {
			style = styles.FilterSelectedStyle
		}
		tabs = append(tabs, style.Render(f.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "  " +
		styles.SubtitleStyle.Render(m.list.RemainingLabel())
}

func (m Model) renderTasks() string {
	if m.list.Loading() {
		return m.spinner.View() + " " + styles.TextMutedStyle.Render("Loading tasks…")
	}

	items := m.visible()
	if len(items) == 0 {
		if m.list.Len() == 0 {
			return styles.TextMutedStyle.Render("No tasks yet. Press n to add one.")
		}
		return styles.TextMutedStyle.Render("No " + strings.ToLower(m.list.Filter().Label()) + " tasks.")
	}

	rows := make([]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, m.renderItem(it, i == m.cursor))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderItem(it taskdeck.Item, selected bool) string {
	cursor := "  "
	if selected {
		cursor = styles.TaskCursorStyle.Render(styles.IconCursor) + " "
	}

	check := styles.CheckboxActiveStyle.Render(styles.IconCheckOpen)
	title := styles.TaskTitleStyle.Render(it.Title)
	if it.IsComplete {
		check = styles.CheckboxDoneStyle.Render(styles.IconCheckDone)
		title = styles.TaskDoneStyle.Render(it.Title)
	}

	arrow := styles.TextMutedStyle.Render(styles.IconCollapsed)
	if it.Expanded {
		arrow = styles.TextMutedStyle.Render(styles.IconExpanded)
	}

	row := cursor + check + " " + title + " " + arrow
	if !it.Expanded {
		return row
	}
	return row + "\n" + m.renderDetail(it)
}

func (m Model) renderDetail(it taskdeck.Item) string {
	width := max(m.width-styles.TaskDetailStyle.GetPaddingLeft()-2, 20)
	desc := strings.TrimRight(m.markdown.render(it.Description, width), "\n")

	var created string
	if !it.CreatedAt.IsZero() {
		created = styles.TextMutedStyle.Render("created " + humanize.Time(it.CreatedAt))
	}

	return styles.TaskDetailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, desc, created))
}
