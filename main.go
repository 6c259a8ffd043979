package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskdeck/internal/commands"
	"github.com/colonyops/taskdeck/internal/core/config"
	"github.com/colonyops/taskdeck/internal/core/eventbus"
	"github.com/colonyops/taskdeck/internal/core/logging"
	"github.com/colonyops/taskdeck/internal/core/styles"
	"github.com/colonyops/taskdeck/internal/data/supabase"
	"github.com/colonyops/taskdeck/internal/taskdeck"
	"github.com/colonyops/taskdeck/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

// busBuffer is the event bus queue depth.
const busBuffer = 64

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser   func()
		busCancel   context.CancelFunc
		taskdeckApp = &taskdeck.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "taskdeck",
		Usage:     "Track your tasks from the terminal",
		UsageText: "taskdeck [global options] command [command options]",
		Description: `taskdeck keeps a personal task list in a Supabase project.

Run 'taskdeck' with no arguments to open the interactive task view. You will
be asked to sign in first if no session is stored.

The service URL and public API key are read from SUPABASE_URL and
SUPABASE_ANON_KEY, a .env file or the config file.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKDECK_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskdeck.log)",
				Sources:     cli.EnvVars("TASKDECK_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKDECK_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "path to a .env file; never overrides the real environment",
				Sources:     cli.EnvVars("TASKDECK_ENV_FILE"),
				Value:       ".env",
				Destination: &flags.EnvFile,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKDECK_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the TUI owns the terminal.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "taskdeck.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.EnvFile, flags.DataDir)
			if err != nil {
				return ctx, err
			}

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			bus := eventbus.New(busBuffer)
			eventbus.RegisterDebugLogger(bus, log.With().Str("component", "eventbus").Logger())
			eventbus.NewNotificationRouter(bus).Register()

			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			client, err := supabase.New(supabase.Options{
				URL:     cfg.Supabase.URL,
				AnonKey: cfg.Supabase.AnonKey,
				Table:   cfg.Supabase.Table,
				Timeout: cfg.Supabase.Timeout,
			}, log.Logger)
			if err != nil {
				return ctx, fmt.Errorf("create supabase client: %w", err)
			}

			authClient := supabase.NewAuthClient(client, supabase.NewSessionFile(cfg.SessionFile()))
			store := supabase.NewTaskStore(client, authClient.TokenSource())

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*taskdeckApp = *taskdeck.NewApp(cfg, bus, authClient, store, log.Logger)

			log.Debug().Str("version", version).Str("data_dir", cfg.DataDir).Msg("taskdeck started")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if taskdeckApp.Session != nil {
				taskdeckApp.Session.Close()
			}

			if busCancel != nil {
				busCancel()
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, taskdeckApp)

	app = commands.NewLsCmd(flags, taskdeckApp).Register(app)
	app = commands.NewLoginCmd(flags, taskdeckApp).Register(app)
	app = commands.NewLogoutCmd(flags, taskdeckApp).Register(app)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'taskdeck --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		var cfgErr *config.ConfigError
		if errors.As(runErr, &cfgErr) {
			fmt.Fprintln(os.Stderr, "taskdeck cannot start:", cfgErr.Err)
		} else {
			fmt.Fprintln(os.Stderr, runErr.Error())
		}
		exitCode = 1
	}

	os.Exit(exitCode)
}
