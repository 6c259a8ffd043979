// Package auth defines the identity model: users, sessions and the
// notifications an identity client emits when the session changes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = errors.New("no active session")

// User is the authenticated identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a signed-in user plus the tokens that prove it.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past (or within skew of) its
// expiry. A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time, skew time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}

// EventType names a session change.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is delivered to subscribers whenever the session changes.
// Session is nil after sign-out.
type Event struct {
	Type    EventType
	Session *Session
}

// User returns the event's user, or nil when signed out.
func (e Event) User() *User {
	if e.Session == nil {
		return nil
	}
	u := e.Session.User
	return &u
}

// Subscription is a standing registration with an identity client.
type Subscription interface {
	Unsubscribe()
}

// Client is the identity half of the remote data service.
type Client interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)

	// Subscribe registers fn for every subsequent session change.
	Subscribe(fn func(Event)) Subscription

	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account. The returned session is nil when the
	// backend requires email confirmation before the first sign-in.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	SignOut(ctx context.Context) error
}

// AuthError reports a failed identity call. Callers treat it as "no
// authenticated user".
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message returns text fit for showing the user: the backend's own message
// when the wrapped error carries one through a Display method, the full
// error otherwise.
func (e *AuthError) Message() string {
	var d interface{ Display() string }
	if errors.As(e.Err, &d) {
		if msg := d.Display(); msg != "" {
			return msg
		}
	}
	return e.Error()
}
