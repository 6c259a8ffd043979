// Package taskdeck holds the services behind the taskdeck commands and TUI:
// session tracking, the task repository facade, the navigation guard and the
// task list view-model.
package taskdeck

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/config"
	"github.com/colonyops/taskdeck/internal/core/eventbus"
	"github.com/colonyops/taskdeck/internal/core/task"
)

// App is the central entry point for all taskdeck operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Auth    auth.Client
	Session *SessionTracker
	Tasks   *TaskService

	Config *config.Config
	Bus    *eventbus.EventBus

	log zerolog.Logger
}

// NewApp constructs an App from explicit dependencies.
func NewApp(
	cfg *config.Config,
	bus *eventbus.EventBus,
	authClient auth.Client,
	store task.Store,
	log zerolog.Logger,
) *App {
	return &App{
		Auth:    authClient,
		Session: NewSessionTracker(authClient, bus, log),
		Tasks:   NewTaskService(store, bus, log),
		Config:  cfg,
		Bus:     bus,
		log:     log,
	}
}

// NewTaskList returns a view-model over the app's task service using the
// configured default filter.
func (a *App) NewTaskList() *TaskList {
	filter := task.FilterAll
	if a.Config != nil {
		filter = a.Config.Filter()
	}
	return NewTaskList(a.Tasks, filter, a.log)
}
