package supabase

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/data/supabase/supabasetest"
)

// fakeClock is a time source shared by the fake server and the client.
type fakeClock struct {
	base   time.Time
	offset atomic.Int64
}

func newFakeClock() *fakeClock {
	return &fakeClock{base: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	return c.base.Add(time.Duration(c.offset.Load()))
}

func (c *fakeClock) Advance(d time.Duration) {
	c.offset.Add(int64(d))
}

type harness struct {
	srv     *supabasetest.Server
	client  *Client
	auth    *AuthClient
	store   *TaskStore
	file    string
	clock   *fakeClock
	events  *eventLog
	cleanup func()
}

type eventLog struct {
	mu     sync.Mutex
	events []auth.Event
}

func (l *eventLog) record(e auth.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []auth.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]auth.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func newHarness(t *testing.T, opts ...supabasetest.Option) *harness {
	t.Helper()

	srv := supabasetest.New(t, opts...)
	clock := newFakeClock()
	srv.SetClock(clock.Now)

	file := filepath.Join(t.TempDir(), "session.json")
	return newHarnessFor(t, srv, clock, file)
}

func newHarnessFor(t *testing.T, srv *supabasetest.Server, clock *fakeClock, file string) *harness {
	t.Helper()

	client, err := New(Options{
		URL:     srv.URL,
		AnonKey: supabasetest.AnonKey,
		Table:   supabasetest.Table,
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	ac := NewAuthClient(client, NewSessionFile(file))
	ac.SetClock(clock.Now)

	events := &eventLog{}
	sub := ac.Subscribe(events.record)

	return &harness{
		srv:     srv,
		client:  client,
		auth:    ac,
		store:   NewTaskStore(client, ac.TokenSource()),
		file:    file,
		clock:   clock,
		events:  events,
		cleanup: sub.Unsubscribe,
	}
}

func (h *harness) signIn(t *testing.T, email string) *auth.Session {
	t.Helper()
	h.srv.AddUser(t, email, "hunter22")
	s, err := h.auth.SignIn(context.Background(), email, "hunter22")
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func fileMode(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Mode().Perm()
}
