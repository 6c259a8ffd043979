package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/logging"
	"github.com/colonyops/taskdeck/internal/taskdeck"
)

type LogoutCmd struct {
	flags *Flags
	app   *taskdeck.App

	// flags
	yes bool
}

// NewLogoutCmd creates a new logout command
func NewLogoutCmd(flags *Flags, app *taskdeck.App) *LogoutCmd {
	return &LogoutCmd{flags: flags, app: app}
}

// Register adds the logout command to the application
func (cmd *LogoutCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "logout",
		Usage:     "Sign out and forget the stored session",
		UsageText: "taskdeck logout [--yes]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LogoutCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "logout")

	w := c.Root().Writer

	user, err := waitForUser(ctx, cmd.app)
	if errors.Is(err, auth.ErrNoSession) {
		_, _ = fmt.Fprintln(w, "Not signed in")
		return nil
	}
	if err != nil {
		return err
	}

	if !cmd.yes && isTerminal(stdin(c)) {
		confirmed := false
		err := huh.NewConfirm().
			Title("Sign out " + user.Email + "?").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			_, _ = fmt.Fprintln(w, "Sign out cancelled")
			return nil
		}
	}

	if err := cmd.app.Auth.SignOut(ctx); err != nil {
		// The local session is gone either way.
		log.Warn().Err(err).Msg("remote sign-out failed")
		_, _ = fmt.Fprintf(w, "Signed out locally (remote sign-out failed: %v)\n", err)
		return nil
	}

	_, _ = fmt.Fprintf(w, "Signed out %s\n", user.Email)
	return nil
}
