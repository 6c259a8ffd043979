package taskdeck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/task"
)

// fakeAuth is an auth.Client whose GetSession blocks until release is
// called, so tests control the order of the initial check and events.
// emit does not change what GetSession returns.
type fakeAuth struct {
	mu        sync.Mutex
	session   *auth.Session
	err       error
	listeners map[int]func(auth.Event)
	nextID    int
	gate      chan struct{}
	unsubs    int
}

func newFakeAuth(s *auth.Session, err error) *fakeAuth {
	return &fakeAuth{
		session:   s,
		err:       err,
		listeners: make(map[int]func(auth.Event)),
		gate:      make(chan struct{}),
	}
}

func (f *fakeAuth) release() { close(f.gate) }

func (f *fakeAuth) GetSession(ctx context.Context) (*auth.Session, error) {
	select {
	case <-f.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.err
}

type fakeSub struct {
	f  *fakeAuth
	id int
}

func (s fakeSub) Unsubscribe() {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.listeners[s.id]; ok {
		delete(s.f.listeners, s.id)
		s.f.unsubs++
	}
}

func (f *fakeAuth) Subscribe(fn func(auth.Event)) auth.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return fakeSub{f: f, id: id}
}

func (f *fakeAuth) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeAuth) emit(typ auth.EventType, s *auth.Session) {
	f.mu.Lock()
	fns := make([]func(auth.Event), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(auth.Event{Type: typ, Session: s})
	}
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	s := sessionFor("u-"+email, email)
	f.emit(auth.EventSignedIn, s)
	return s, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	return f.SignIn(ctx, email, password)
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.emit(auth.EventSignedOut, nil)
	return nil
}

func sessionFor(id, email string) *auth.Session {
	return &auth.Session{
		AccessToken: "token-" + id,
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        auth.User{ID: id, Email: email},
	}
}

var errBackend = errors.New("backend unavailable")

// fakeStore is an in-memory task.Store that records calls.
type fakeStore struct {
	mu     sync.Mutex
	tasks  []task.Task // newest first
	calls  map[string]int
	drafts []task.Draft
	seq    int
	clock  time.Time
	fail   map[string]error
}

func newFakeStore(tasks ...task.Task) *fakeStore {
	return &fakeStore{
		tasks: tasks,
		calls: make(map[string]int),
		fail:  make(map[string]error),
		clock: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.fail[op]
}

func (s *fakeStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *fakeStore) ListByOwner(_ context.Context, ownerID string) ([]task.Task, error) {
	if err := s.record("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []task.Task{}
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, draft task.Draft) (task.Task, error) {
	if err := s.record("create"); err != nil {
		return task.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.drafts = append(s.drafts, draft)
	t := task.Task{
		ID:          fmt.Sprintf("new-%d", s.seq),
		UserID:      draft.UserID,
		Title:       draft.Title,
		Description: draft.Description,
		IsComplete:  draft.IsComplete,
		// Deliberately older than seeded tasks: the list prepends anyway.
		CreatedAt: s.clock.Add(-24 * time.Hour),
	}
	t.UpdatedAt = t.CreatedAt
	s.tasks = append([]task.Task{t}, s.tasks...)
	return t, nil
}

func (s *fakeStore) Update(_ context.Context, id string, patch task.Patch) (task.Task, error) {
	if err := s.record("update"); err != nil {
		return task.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		if patch.IsComplete != nil {
			s.tasks[i].IsComplete = *patch.IsComplete
		}
		if patch.Title != nil {
			s.tasks[i].Title = *patch.Title
		}
		s.tasks[i].UpdatedAt = s.clock
		return s.tasks[i], nil
	}
	return task.Task{}, task.ErrNotFound
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if err := s.record("delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}
