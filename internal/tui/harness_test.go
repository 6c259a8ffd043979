package tui

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/config"
	"github.com/colonyops/taskdeck/internal/core/task"
	"github.com/colonyops/taskdeck/internal/taskdeck"
	"github.com/colonyops/taskdeck/pkg/tuitest"
)

// cmdTimeout bounds how long the harness waits on a command. Timers and
// cursor blinks outlive it and are dropped.
const cmdTimeout = 50 * time.Millisecond

type stubAuth struct {
	mu            sync.Mutex
	signInErr     error
	signUpSession *auth.Session
	signUpErr     error
	signIns       []string
	signOuts      int
}

type noopSub struct{}

func (noopSub) Unsubscribe() {}

func (a *stubAuth) GetSession(context.Context) (*auth.Session, error) { return nil, nil }

func (a *stubAuth) Subscribe(func(auth.Event)) auth.Subscription { return noopSub{} }

func (a *stubAuth) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signIns = append(a.signIns, email)
	if a.signInErr != nil {
		return nil, a.signInErr
	}
	return &auth.Session{AccessToken: "token", User: auth.User{ID: "u-" + email, Email: email}}, nil
}

func (a *stubAuth) SignUp(context.Context, string, string) (*auth.Session, error) {
	return a.signUpSession, a.signUpErr
}

func (a *stubAuth) SignOut(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signOuts++
	return nil
}

func (a *stubAuth) signOutCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signOuts
}

// memStore is an in-memory task.Store.
type memStore struct {
	mu      sync.Mutex
	tasks   []task.Task
	nextID  int
	creates int
}

func (s *memStore) ListByOwner(_ context.Context, ownerID string) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []task.Task{}
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b task.Task) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *memStore) Create(_ context.Context, d task.Draft) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	s.nextID++
	t := task.Task{
		ID:          fmt.Sprintf("new-%d", s.nextID),
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		IsComplete:  d.IsComplete,
		CreatedAt:   time.Now(),
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *memStore) Update(_ context.Context, id string, p task.Patch) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID != id {
			continue
		}
		if p.IsComplete != nil {
			t.IsComplete = *p.IsComplete
		}
		s.tasks[i] = t
		return t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *memStore) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

var ada = auth.User{ID: "u-ada", Email: "ada@example.com"}

func seedTasks() []task.Task {
	now := time.Now()
	return []task.Task{
		{ID: "t-1", UserID: ada.ID, Title: "Write report", Description: "Quarterly numbers", CreatedAt: now.Add(-time.Hour)},
		{ID: "t-2", UserID: ada.ID, Title: "Water plants", Description: "Balcony only", IsComplete: true, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "t-3", UserID: "u-bob", Title: "Bob's secret", CreatedAt: now},
	}
}

// harness drives a Model synchronously, running each returned command and
// feeding its message back through Update.
type harness struct {
	t     *testing.T
	m     Model
	auth  *stubAuth
	store *memStore
	quit  bool
}

func newHarness(t *testing.T, tasks ...task.Task) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	a := &stubAuth{}
	store := &memStore{tasks: tasks}
	app := taskdeck.NewApp(&cfg, nil, a, store, zerolog.Nop())

	h := &harness{
		t:     t,
		m:     New(context.Background(), Options{App: app, Log: zerolog.Nop()}),
		auth:  a,
		store: store,
	}
	h.send(tuitest.WindowSize(100, 40))
	return h
}

func (h *harness) send(msgs ...tea.Msg) {
	h.t.Helper()
	for _, msg := range msgs {
		h.dispatch(msg, 0)
	}
}

func (h *harness) dispatch(msg tea.Msg, depth int) {
	if depth > 10 {
		return
	}
	switch msg.(type) {
	case tea.QuitMsg:
		h.quit = true
		return
	case spinner.TickMsg, toastTickMsg:
		return
	}

	model, cmd := h.m.Update(msg)
	h.m = model.(Model)
	for _, next := range collect(cmd) {
		h.dispatch(next, depth+1)
	}
}

func (h *harness) signIn(u auth.User) {
	h.send(SessionMsg{State: taskdeck.State{User: &u}})
}

func (h *harness) signOut() {
	h.send(SessionMsg{State: taskdeck.State{}})
}

func (h *harness) typeText(s string) {
	h.send(tuitest.Type(s)...)
}

func (h *harness) view() string {
	return tuitest.StripANSI(h.m.View())
}

func (h *harness) visibleTitles() []string {
	var out []string
	for _, it := range h.m.visible() {
		out = append(out, it.Title)
	}
	return out
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(cmdTimeout):
		return nil
	}
}
