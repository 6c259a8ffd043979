package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/config"
	"github.com/colonyops/taskdeck/internal/data/supabase"
	"github.com/colonyops/taskdeck/internal/data/supabase/supabasetest"
	"github.com/colonyops/taskdeck/internal/taskdeck"
)

const testPassword = "hunter22"

// cmdHarness wires the commands to an App backed by a fake Supabase project.
type cmdHarness struct {
	srv  *supabasetest.Server
	auth *supabase.AuthClient
	app  *taskdeck.App
	out  bytes.Buffer
}

func newCmdHarness(t *testing.T, opts ...supabasetest.Option) *cmdHarness {
	t.Helper()

	srv := supabasetest.New(t, opts...)
	client, err := supabase.New(supabase.Options{
		URL:     srv.URL,
		AnonKey: supabasetest.AnonKey,
		Table:   supabasetest.Table,
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	ac := supabase.NewAuthClient(client, supabase.NewSessionFile(filepath.Join(t.TempDir(), "session.json")))
	store := supabase.NewTaskStore(client, ac.TokenSource())

	cfg := config.DefaultConfig()
	app := taskdeck.NewApp(&cfg, nil, ac, store, zerolog.Nop())
	t.Cleanup(app.Session.Close)

	return &cmdHarness{srv: srv, auth: ac, app: app}
}

// run executes the taskdeck CLI with args, feeding stdin to the commands.
func (h *cmdHarness) run(stdin string, args ...string) error {
	flags := &Flags{}
	root := &cli.Command{
		Name:   "taskdeck",
		Writer: &h.out,
		Reader: strings.NewReader(stdin),
	}
	NewLsCmd(flags, h.app).Register(root)
	NewLoginCmd(flags, h.app).Register(root)
	NewLogoutCmd(flags, h.app).Register(root)

	return root.Run(context.Background(), append([]string{"taskdeck"}, args...))
}

func (h *cmdHarness) signIn(t *testing.T, email string) *auth.Session {
	t.Helper()
	h.srv.AddUser(t, email, testPassword)
	s, err := h.auth.SignIn(context.Background(), email, testPassword)
	require.NoError(t, err)
	return s
}
