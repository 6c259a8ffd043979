// Package tui implements the taskdeck terminal interface: a login view and
// a task view driven by the session tracker and the task list view-model.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskdeck/internal/core/styles"
	"github.com/colonyops/taskdeck/internal/taskdeck"
)

// focus is the part of the task view receiving keys.
type focus int

const (
	focusList focus = iota
	focusTitle
	focusDescription
	focusConfirmDelete
)

const (
	titleCharLimit       = 200
	descriptionCharLimit = 2000
	descriptionHeight    = 3
	defaultWidth         = 80
)

// Options configures the TUI model.
type Options struct {
	App  *taskdeck.App
	List *taskdeck.TaskList
	Log  zerolog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx  context.Context
	app  *taskdeck.App
	list *taskdeck.TaskList
	log  zerolog.Logger

	view    taskdeck.View
	session taskdeck.State

	width  int
	height int

	keys     listKeyMap
	formKeys formKeyMap
	help     help.Model
	spinner  spinner.Model

	login *loginForm

	focus         focus
	cursor        int
	pendingDelete string
	inflight      int
	title         textinput.Model
	description   textarea.Model

	toasts    *ToastController
	toastView *ToastView

	markdown *markdownCache

	initCmd tea.Cmd
}

// New builds the model from the session tracker's current state. The
// program is expected to receive a SessionMsg for every later change.
func New(ctx context.Context, opts Options) Model {
	list := opts.List
	if list == nil {
		list = opts.App.NewTaskList()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SubtitleStyle

	title := textinput.New()
	title.Placeholder = "What needs to be done?"
	title.CharLimit = titleCharLimit
	title.Prompt = ""

	desc := textarea.New()
	desc.Placeholder = "Description (optional, markdown)"
	desc.CharLimit = descriptionCharLimit
	desc.ShowLineNumbers = false
	desc.SetHeight(descriptionHeight)

	toasts := NewToastController()

	m := Model{
		ctx:         ctx,
		app:         opts.App,
		list:        list,
		log:         opts.Log.With().Str("component", "tui").Logger(),
		view:        taskdeck.ViewTasks,
		width:       defaultWidth,
		keys:        newListKeyMap(),
		formKeys:    newFormKeyMap(),
		help:        help.New(),
		spinner:     sp,
		title:       title,
		description: desc,
		toasts:      toasts,
		toastView:   NewToastView(toasts),
		markdown:    &markdownCache{},
	}
	m.resizeInputs()

	m.initCmd = m.applySession(opts.App.Session.State())
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.initCmd)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resizeInputs()
		return m, nil

	case SessionMsg:
		cmd := m.applySession(msg.State)
		return m, cmd

	case NotificationMsg:
		m.toasts.Push(msg.Notification)
		if m.toasts.Ticking() {
			return m, nil
		}
		m.toasts.SetTicking(true)
		return m, scheduleToastTick()

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		if !m.toasts.HasToasts() {
			m.toasts.SetTicking(false)
			return m, nil
		}
		return m, scheduleToastTick()

	case completionMsg:
		return m.handleCompletion(msg)

	case authResultMsg:
		if m.login == nil {
			return m, nil
		}
		return m, m.login.result(msg)

	case signOutMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("remote sign-out failed, local session cleared")
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

// applySession moves the list to the session's user and redirects to the
// view the guard selects.
func (m *Model) applySession(state taskdeck.State) tea.Cmd {
	m.session = state
	if state.Loading {
		return nil
	}

	load := m.runOp(m.list.SetOwner(state.User))

	var enter tea.Cmd
	if next, ok := taskdeck.Guard(state, m.view); ok {
		m.log.Debug().Str("from", string(m.view)).Str("to", string(next)).Msg("redirect")
		enter = m.enterView(next)
	}
	if state.User == nil {
		m.resetTaskView()
	}

	return tea.Batch(load, enter)
}

func (m *Model) enterView(v taskdeck.View) tea.Cmd {
	m.view = v
	switch v {
	case taskdeck.ViewLogin:
		email := ""
		if m.login != nil {
			email = m.login.email
		}
		m.login = newLoginForm(email, modeSignIn)
		return m.login.form.Init()
	default:
		m.login = nil
		m.resetTaskView()
		return nil
	}
}

func (m *Model) resetTaskView() {
	m.focus = focusList
	m.cursor = 0
	m.pendingDelete = ""
	m.title.Reset()
	m.title.Blur()
	m.description.Reset()
	m.description.Blur()
}

// runOp runs op as a command. The completion is applied back on the Update
// loop.
func (m *Model) runOp(op taskdeck.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	m.inflight++
	ctx := m.ctx
	return func() tea.Msg {
		return completionMsg{completion: op(ctx)}
	}
}

func (m Model) handleCompletion(msg completionMsg) (tea.Model, tea.Cmd) {
	if m.inflight > 0 {
		m.inflight--
	}

	out := m.list.Apply(msg.completion)
	if out.Stale || out.Err != nil {
		m.clampCursor()
		return m, nil
	}

	if out.Kind == taskdeck.OpAdd {
		m.title.Reset()
		m.description.Reset()
		if m.focus == focusDescription {
			m.description.Blur()
			m.focus = focusTitle
			return m, m.title.Focus()
		}
		m.cursor = 0
	}
	m.clampCursor()
	return m, nil
}

// forward passes messages nobody else claimed to the active component.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view == taskdeck.ViewLogin && m.login != nil {
		return m.updateLogin(msg)
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusDescription:
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m *Model) resizeInputs() {
	w := max(m.width-6, 20)
	m.title.Width = w
	m.description.SetWidth(w)
}

// markdownCache keeps one glamour renderer per wrap width.
type markdownCache struct {
	width    int
	renderer *glamour.TermRenderer
}

func (c *markdownCache) render(text string, width int) string {
	if c.renderer == nil || c.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStyles(styles.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		c.renderer, c.width = r, width
	}

	out, err := c.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}
