package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/styles"
	"github.com/colonyops/taskdeck/internal/core/validate"
)

const (
	modeSignIn = "signin"
	modeSignUp = "signup"

	loginWidth = 44
)

// loginForm is the sign-in / sign-up view. huh binds its fields to the
// struct, so it is always used through a pointer.
type loginForm struct {
	mode     string
	email    string
	password string

	form    *huh.Form
	err     string
	info    string
	pending bool
}

func newLoginForm(email, mode string) *loginForm {
	if mode == "" {
		mode = modeSignIn
	}
	l := &loginForm{mode: mode, email: email}
	l.build()
	return l
}

func (l *loginForm) build() {
	l.password = ""
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("Sign in", modeSignIn),
					huh.NewOption("Create an account", modeSignUp),
				).
				Value(&l.mode),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&l.email).
				Validate(validate.Email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password).
				Validate(validate.Password),
		),
	).
		WithTheme(styles.FormTheme()).
		WithWidth(loginWidth).
		WithShowHelp(true)
}

// submit runs the selected auth call in the background.
func (l *loginForm) submit(ctx context.Context, client auth.Client) tea.Cmd {
	l.pending = true
	l.err, l.info = "", ""

	mode, email, password := l.mode, strings.TrimSpace(l.email), l.password
	return func() tea.Msg {
		var (
			s   *auth.Session
			err error
		)
		if mode == modeSignUp {
			s, err = client.SignUp(ctx, email, password)
		} else {
			s, err = client.SignIn(ctx, email, password)
		}
		return authResultMsg{mode: mode, session: s, err: err}
	}
}

// result records the outcome and resets the form for another attempt. The
// session itself arrives through the session tracker.
func (l *loginForm) result(msg authResultMsg) tea.Cmd {
	l.pending = false
	switch {
	case msg.err != nil:
		l.err = authMessage(msg.err)
	case msg.session == nil && msg.mode == modeSignUp:
		l.info = fmt.Sprintf("Check %s for a confirmation link, then sign in.", strings.TrimSpace(l.email))
		l.mode = modeSignIn
	default:
		return nil
	}
	l.build()
	return l.form.Init()
}

// authMessage extracts the backend's message for display.
func authMessage(err error) string {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message()
	}
	return err.Error()
}

func (l *loginForm) View(width int, spinner string) string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("taskdeck"))
	b.WriteString("\n")
	if l.mode == modeSignUp {
		b.WriteString(styles.SubtitleStyle.Render("Create an account to start tracking tasks"))
	} else {
		b.WriteString(styles.SubtitleStyle.Render("Sign in to your task list"))
	}
	b.WriteString("\n\n")

	if l.pending {
		b.WriteString(spinner + " ")
		if l.mode == modeSignUp {
			b.WriteString("Creating account…")
		} else {
			b.WriteString("Signing in…")
		}
	} else {
		b.WriteString(l.form.View())
	}

	if l.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(styles.IconNotifyError + " " + l.err))
	}
	if l.info != "" {
		b.WriteString("\n")
		b.WriteString(styles.SuccessStyle.Render(styles.IconNotifyInfo + " " + l.info))
	}

	panel := styles.PanelStyle.Width(loginWidth + 4).Render(b.String())
	if width <= 0 {
		return panel
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, panel)
}
