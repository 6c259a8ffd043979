package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskdeck/internal/core/logging"
	"github.com/colonyops/taskdeck/internal/core/styles"
	"github.com/colonyops/taskdeck/internal/core/validate"
	"github.com/colonyops/taskdeck/internal/taskdeck"
)

type LoginCmd struct {
	flags *Flags
	app   *taskdeck.App

	// flags
	email  string
	signUp bool
}

// NewLoginCmd creates a new login command
func NewLoginCmd(flags *Flags, app *taskdeck.App) *LoginCmd {
	return &LoginCmd{flags: flags, app: app}
}

// Register adds the login command to the application
func (cmd *LoginCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "login",
		Usage:     "Sign in without opening the TUI",
		UsageText: "taskdeck login [--email EMAIL] [--signup]",
		Description: `Signs in and stores the session for later commands.

On a terminal the email and password are prompted for. Otherwise --email is
required and the password is read from the first line of stdin.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Usage:       "account email",
				Destination: &cmd.email,
			},
			&cli.BoolFlag{
				Name:        "signup",
				Usage:       "create the account instead of signing in",
				Destination: &cmd.signUp,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LoginCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "login")

	email, password, err := cmd.credentials(stdin(c))
	if err != nil {
		return err
	}

	w := c.Root().Writer
	if cmd.signUp {
		s, err := cmd.app.Auth.SignUp(ctx, email, password)
		if err != nil {
			return err
		}
		if s == nil {
			_, _ = fmt.Fprintf(w, "Check %s for a confirmation link, then run 'taskdeck login'.\n", email)
			return nil
		}
		_, _ = fmt.Fprintf(w, "Account created; signed in as %s\n", s.User.Email)
		return nil
	}

	s, err := cmd.app.Auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Signed in as %s\n", s.User.Email)
	return nil
}

func (cmd *LoginCmd) credentials(r io.Reader) (email, password string, err error) {
	email = strings.TrimSpace(cmd.email)

	if isTerminal(r) {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Email").
					Value(&email).
					Validate(validate.Email),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(validate.Password),
			),
		).WithTheme(styles.FormTheme()).Run()
		return strings.TrimSpace(email), password, err
	}

	if email == "" {
		return "", "", errors.New("--email is required when stdin is not a terminal")
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("read password from stdin: %w", err)
	}
	password = strings.TrimRight(line, "\r\n")
	if err := validate.Credentials(email, password); err != nil {
		return "", "", err
	}
	return email, password, nil
}
