package taskdeck

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/eventbus"
)

// State is the tracked session. User is nil when signed out.
type State struct {
	User    *auth.User
	Loading bool
}

// SignedIn reports whether a user is present.
func (s State) SignedIn() bool {
	return s.User != nil
}

func (s State) equal(o State) bool {
	if s.Loading != o.Loading || (s.User == nil) != (o.User == nil) {
		return false
	}
	return s.User == nil || *s.User == *o.User
}

// SessionTracker follows the identity client and exposes the current user.
// It holds one standing subscription, acquired by Start and released by
// Close.
type SessionTracker struct {
	client auth.Client
	bus    *eventbus.EventBus
	log    zerolog.Logger

	mu        sync.Mutex
	state     State
	userKnown bool // an event or the initial check has set the user
	started   bool
	closed    bool
	sub       auth.Subscription
	observers map[int]func(State)
	nextID    int
	version   uint64

	// notifyMu orders deliveries. It is taken before mu, never after.
	notifyMu  sync.Mutex
	published uint64

	ready     chan struct{}
	closeOnce sync.Once
}

// NewSessionTracker returns a tracker in the loading state.
func NewSessionTracker(client auth.Client, bus *eventbus.EventBus, log zerolog.Logger) *SessionTracker {
	return &SessionTracker{
		client:    client,
		bus:       bus,
		log:       log.With().Str("component", "session-tracker").Logger(),
		state:     State{Loading: true},
		observers: make(map[int]func(State)),
		ready:     make(chan struct{}),
	}
}

// Start subscribes to session changes and runs the initial session check in
// the background. Calling Start more than once has no effect.
func (t *SessionTracker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started || t.closed {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	sub := t.client.Subscribe(t.handleEvent)

	t.mu.Lock()
	t.sub = sub
	t.mu.Unlock()

	go t.initialCheck(ctx)
}

// Ready is closed once the initial session check has resolved.
func (t *SessionTracker) Ready() <-chan struct{} {
	return t.ready
}

// State returns the current session state.
func (t *SessionTracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn runs on the goroutine that caused the change, one delivery
// at a time and in the order the changes happened. A change superseded
// before its delivery starts is skipped. fn must not call back into the
// tracker other than State.
func (t *SessionTracker) Subscribe(fn func(State)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.observers, id)
		})
	}
}

// Close releases the identity subscription. Safe to call more than once.
func (t *SessionTracker) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		sub := t.sub
		t.sub = nil
		t.mu.Unlock()

		if sub != nil {
			sub.Unsubscribe()
			t.log.Debug().Msg("session subscription released")
		}
	})
}

func (t *SessionTracker) initialCheck(ctx context.Context) {
	defer close(t.ready)

	var user *auth.User
	s, err := t.client.GetSession(ctx)
	switch {
	case err != nil:
		t.log.Warn().Err(err).Msg("initial session check failed, continuing signed out")
	case s != nil:
		u := s.User
		user = &u
	}

	t.transition(func(st *State) {
		st.Loading = false
		// A session event that arrived first is newer than this result.
		if !t.userKnown {
			st.User = user
		}
		t.userKnown = true
	})
}

func (t *SessionTracker) handleEvent(e auth.Event) {
	t.log.Debug().Str("event", string(e.Type)).Msg("session event")
	t.transition(func(st *State) {
		st.User = e.User()
		t.userKnown = true
	})
}

// transition applies fn to a copy of the state under the lock and, when the
// state changed, publishes it.
func (t *SessionTracker) transition(fn func(*State)) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	prev := t.state
	next := prev
	fn(&next)
	if next.equal(prev) {
		t.mu.Unlock()
		return
	}
	t.state = next
	t.version++
	t.mu.Unlock()

	t.publish()
}

// publish delivers the latest state to observers and the bus unless a
// concurrent publish already delivered it.
func (t *SessionTracker) publish() {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	state, version := t.state, t.version
	fns := make([]func(State), 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	if version == t.published {
		return
	}
	t.published = version

	for _, fn := range fns {
		fn(state)
	}
	t.bus.PublishSessionChanged(eventbus.SessionChangedPayload{User: state.User, Loading: state.Loading})
}
