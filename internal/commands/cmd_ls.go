package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/logging"
	"github.com/colonyops/taskdeck/internal/core/task"
	"github.com/colonyops/taskdeck/internal/taskdeck"
	"github.com/colonyops/taskdeck/pkg/iojson"
)

// sessionWait bounds how long commands wait for the initial session check.
const sessionWait = 15 * time.Second

type LsCmd struct {
	flags *Flags
	app   *taskdeck.App

	// flags
	filter     string
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *taskdeck.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List your tasks",
		UsageText: "taskdeck ls [--filter all|active|completed] [--json]",
		Description: `Prints the signed-in user's tasks, newest first.

Output is a table on a terminal and JSON lines otherwise. Use --json to force
JSON lines. Sign in with 'taskdeck' or 'taskdeck login' first.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Usage:       "which tasks to show (all, active, completed); defaults to tui.default_filter",
				Destination: &cmd.filter,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "ls")

	w := c.Root().Writer
	asJSON := cmd.jsonOutput || !isTerminal(w)

	err := cmd.list(ctx, w, asJSON)
	if err != nil && asJSON {
		if werr := iojson.WriteError(w, err.Error(), lsErrorData(err)); werr != nil {
			log.Warn().Err(werr).Msg("writing json error")
		}
	}
	return err
}

func (cmd *LsCmd) list(ctx context.Context, w io.Writer, asJSON bool) error {
	filter := cmd.app.Config.Filter()
	if cmd.filter != "" {
		f, err := task.ParseFilter(cmd.filter)
		if err != nil {
			return err
		}
		filter = f
	}

	user, err := waitForUser(ctx, cmd.app)
	if err != nil {
		return err
	}

	list := cmd.app.NewTaskList()
	out := list.Run(ctx, list.SetOwner(user))
	if out.Err != nil {
		return fmt.Errorf("list tasks: %w", out.Err)
	}

	if asJSON {
		for it := range list.FilteredBy(filter) {
			if err := iojson.WriteLine(w, it.Task); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	writeTable(w, list, filter)
	return nil
}

// writeTable prints the filtered tasks followed by the remaining counter.
func writeTable(w io.Writer, list *taskdeck.TaskList, filter task.Filter) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DONE\tTITLE\tCREATED\tID")
	for it := range list.FilteredBy(filter) {
		done := " "
		if it.IsComplete {
			done = "x"
		}
		_, _ = fmt.Fprintf(tw, "[%s]\t%s\t%s\t%s\n", done, it.Title, humanize.Time(it.CreatedAt), it.ID)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintln(w, list.RemainingLabel())
}

func lsErrorData(err error) map[string]any {
	data := map[string]any{"command": "ls"}
	var remoteErr *task.RemoteError
	switch {
	case errors.Is(err, auth.ErrNoSession):
		data["reason"] = "not_signed_in"
	case errors.As(err, &remoteErr):
		data["reason"] = "remote"
		data["op"] = remoteErr.Op
	}
	return data
}

// waitForUser starts the session tracker and returns the signed-in user once
// the initial check has resolved.
func waitForUser(ctx context.Context, app *taskdeck.App) (*auth.User, error) {
	app.Session.Start(ctx)

	select {
	case <-app.Session.Ready():
	case <-time.After(sessionWait):
		return nil, errors.New("timed out checking session")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	state := app.Session.State()
	if !state.SignedIn() {
		return nil, fmt.Errorf("not signed in; run 'taskdeck login' first: %w", auth.ErrNoSession)
	}
	return state.User, nil
}

// stdin returns the root command's input, falling back to os.Stdin.
func stdin(c *cli.Command) io.Reader {
	if r := c.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
