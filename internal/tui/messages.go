package tui

import (
	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/notify"
	"github.com/colonyops/taskdeck/internal/taskdeck"
)

// SessionMsg delivers a session tracker state change to the program.
type SessionMsg struct {
	State taskdeck.State
}

// NotificationMsg delivers a bus notification to the program.
type NotificationMsg struct {
	Notification notify.Notification
}

// completionMsg carries a finished task operation back to Update.
type completionMsg struct {
	completion taskdeck.Completion
}

// authResultMsg reports the outcome of a sign-in or sign-up attempt.
type authResultMsg struct {
	mode    string
	session *auth.Session
	err     error
}

// signOutMsg reports the outcome of a sign-out.
type signOutMsg struct {
	err error
}
