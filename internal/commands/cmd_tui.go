package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskdeck/internal/core/eventbus"
	"github.com/colonyops/taskdeck/internal/core/logging"
	"github.com/colonyops/taskdeck/internal/core/notify"
	"github.com/colonyops/taskdeck/internal/taskdeck"
	"github.com/colonyops/taskdeck/internal/tui"
)

type TuiCmd struct {
	flags *Flags
	app   *taskdeck.App
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *taskdeck.App) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx = logging.WithCommand(ctx, "tui")

	m := tui.New(ctx, tui.Options{
		App:  cmd.app,
		List: cmd.app.NewTaskList(),
		Log:  log.Logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Bridges are installed before the tracker starts so no change is missed.
	unsubscribe := cmd.app.Session.Subscribe(func(s taskdeck.State) {
		p.Send(tui.SessionMsg{State: s})
	})
	defer unsubscribe()

	sub := cmd.app.Bus.SubscribeNotificationPublished(func(n eventbus.NotificationPublishedPayload) {
		p.Send(tui.NotificationMsg{Notification: notify.Notification{
			Level:     n.Level,
			Message:   n.Message,
			CreatedAt: time.Now(),
		}})
	})
	defer sub.Unsubscribe()

	cmd.app.Session.Start(ctx)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
