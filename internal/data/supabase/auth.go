package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/colonyops/taskdeck/internal/core/auth"
)

// refreshSkew refreshes access tokens slightly before they expire.
const refreshSkew = 30 * time.Second

// AuthClient implements auth.Client against GoTrue. It keeps the current
// session in memory, mirrors it to a SessionFile and notifies subscribers
// of every change.
type AuthClient struct {
	c     *Client
	store *SessionFile
	now   func() time.Time

	mu        sync.Mutex
	session   *auth.Session
	gen       uint64 // bumped by every set
	loaded    bool
	listeners map[int]func(auth.Event)
	nextID    int

	refreshMu sync.Mutex
}

var _ auth.Client = (*AuthClient)(nil)

// NewAuthClient returns an AuthClient. store may be nil to keep the session
// in memory only.
func NewAuthClient(c *Client, store *SessionFile) *AuthClient {
	return &AuthClient{
		c:         c,
		store:     store,
		now:       time.Now,
		listeners: make(map[int]func(auth.Event)),
	}
}

// SetClock replaces the time source used for expiry checks.
func (a *AuthClient) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// GetSession returns the current session, restoring it from the session
// file on first use and refreshing it when the access token has expired.
func (a *AuthClient) GetSession(ctx context.Context) (*auth.Session, error) {
	s, err := a.current()
	if err != nil {
		return nil, &auth.AuthError{Op: "get session", Err: err}
	}
	if s == nil {
		return nil, nil
	}
	if !s.Expired(a.clock(), refreshSkew) {
		return s, nil
	}
	return a.refresh(ctx, s.RefreshToken)
}

// Subscribe registers fn for every subsequent session change. fn is called
// on the goroutine that caused the change.
func (a *AuthClient) Subscribe(fn func(auth.Event)) auth.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID++
	a.listeners[id] = fn

	return &listener{client: a, id: id}
}

// SignIn exchanges email and password for a session.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var resp tokenResponse
	err := a.c.do(ctx, a.c.http, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, &auth.AuthError{Op: "sign in", Err: err}
	}

	s, err := resp.session(a.clock())
	if err != nil {
		return nil, &auth.AuthError{Op: "sign in", Err: err}
	}

	a.set(s, auth.EventSignedIn)
	return s, nil
}

// SignUp registers a new account. When the project requires email
// confirmation GoTrue returns only the user, and SignUp returns a nil
// session.
func (a *AuthClient) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	var resp signUpResponse
	err := a.c.do(ctx, a.c.http, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, &auth.AuthError{Op: "sign up", Err: err}
	}

	if resp.AccessToken == "" {
		a.c.log.Info().Str("email", email).Msg("sign up requires email confirmation")
		return nil, nil
	}

	s, err := resp.session(a.clock())
	if err != nil {
		return nil, &auth.AuthError{Op: "sign up", Err: err}
	}

	a.set(s, auth.EventSignedIn)
	return s, nil
}

// SignOut revokes the session remotely and always clears it locally, even
// when the remote call fails.
func (a *AuthClient) SignOut(ctx context.Context) error {
	s, err := a.current()
	if err != nil {
		a.c.log.Warn().Err(err).Msg("reading stored session during sign out")
	}

	var remoteErr error
	if s != nil {
		remoteErr = a.c.do(ctx, a.c.http, request{
			method:  http.MethodPost,
			path:    "/auth/v1/logout",
			headers: map[string]string{"Authorization": "Bearer " + s.AccessToken},
		}, nil)
	}

	a.set(nil, auth.EventSignedOut)

	if remoteErr != nil {
		return &auth.AuthError{Op: "sign out", Err: remoteErr}
	}
	return nil
}

// TokenSource returns an oauth2.TokenSource yielding the current access
// token, refreshing it when needed. It fails with auth.ErrNoSession when
// signed out.
func (a *AuthClient) TokenSource() oauth2.TokenSource {
	return tokenSource{a: a}
}

func (a *AuthClient) refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	cur, gen, err := a.snapshot()
	if err != nil {
		return nil, &auth.AuthError{Op: "refresh session", Err: err}
	}
	// Another caller may have refreshed while we waited.
	if cur != nil && cur.RefreshToken != refreshToken && !cur.Expired(a.clock(), refreshSkew) {
		return cur, nil
	}

	var resp tokenResponse
	err = a.c.do(ctx, a.c.http, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			// The refresh token is no longer accepted; the session is over.
			if a.setIf(gen, nil, auth.EventSignedOut) {
				a.c.log.Info().Err(err).Msg("refresh token rejected, signing out locally")
			}
		}
		return nil, &auth.AuthError{Op: "refresh session", Err: err}
	}

	s, err := resp.session(a.clock())
	if err != nil {
		return nil, &auth.AuthError{Op: "refresh session", Err: err}
	}

	if !a.setIf(gen, s, auth.EventTokenRefreshed) {
		// Signed out or in again during the round trip. The refreshed
		// token belongs to a session that no longer exists.
		a.c.log.Debug().Msg("session changed during refresh, dropping refreshed token")
		cur, err := a.current()
		if err != nil {
			return nil, &auth.AuthError{Op: "refresh session", Err: err}
		}
		return cur, nil
	}
	return s, nil
}

// current returns a copy of the in-memory session, loading it from the
// session file the first time.
func (a *AuthClient) current() (*auth.Session, error) {
	s, _, err := a.snapshot()
	return s, err
}

// snapshot is current plus the generation the copy was taken at.
func (a *AuthClient) snapshot() (*auth.Session, uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		s, err := a.store.Load()
		if err != nil {
			return nil, 0, err
		}
		if s != nil {
			if claims, err := parseClaims(s.AccessToken); err == nil && claims.ExpiresAt != nil {
				s.ExpiresAt = claims.ExpiresAt.Time
			}
		}
		a.session = s
		a.loaded = true
	}

	if a.session == nil {
		return nil, a.gen, nil
	}
	cp := *a.session
	return &cp, a.gen, nil
}

// set replaces the session, persists it and notifies subscribers outside
// the lock.
func (a *AuthClient) set(s *auth.Session, typ auth.EventType) {
	a.swap(nil, s, typ)
}

// setIf is set guarded by the generation read before a round trip. It
// reports false and changes nothing when another set happened since.
func (a *AuthClient) setIf(gen uint64, s *auth.Session, typ auth.EventType) bool {
	return a.swap(&gen, s, typ)
}

func (a *AuthClient) swap(expect *uint64, s *auth.Session, typ auth.EventType) bool {
	a.mu.Lock()
	if expect != nil && *expect != a.gen {
		a.mu.Unlock()
		return false
	}
	a.session = s
	a.gen++
	a.loaded = true
	fns := make([]func(auth.Event), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	// Persisted under the lock so the file follows the order of changes.
	if err := a.store.Save(s); err != nil {
		a.c.log.Error().Err(err).Msg("persisting session")
	}
	a.mu.Unlock()

	a.c.log.Debug().Str("event", string(typ)).Msg("session changed")

	for _, fn := range fns {
		var cp *auth.Session
		if s != nil {
			v := *s
			cp = &v
		}
		fn(auth.Event{Type: typ, Session: cp})
	}
	return true
}

func (a *AuthClient) clock() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now()
}

type listener struct {
	client *AuthClient
	id     int
	once   sync.Once
}

func (l *listener) Unsubscribe() {
	l.once.Do(func() {
		l.client.mu.Lock()
		defer l.client.mu.Unlock()
		delete(l.client.listeners, l.id)
	})
}

type tokenSource struct {
	a *AuthClient
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ts.a.c.timeout)
	defer cancel()

	s, err := ts.a.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, auth.ErrNoSession
	}

	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

// signUpResponse is either a token response or, when confirmation is
// required, a bare user object.
type signUpResponse struct {
	tokenResponse
	ID    string `json:"id"`
	Email string `json:"email"`
}

// accessClaims are the GoTrue access token claims taskdeck reads.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// parseClaims reads the token's claims without verifying the signature;
// only the backend holds the signing secret.
func parseClaims(token string) (*accessClaims, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return &claims, nil
}

func (r tokenResponse) session(now time.Time) (*auth.Session, error) {
	if r.AccessToken == "" {
		return nil, errors.New("response carried no access token")
	}

	claims, err := parseClaims(r.AccessToken)
	if err != nil {
		return nil, err
	}

	s := &auth.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		User:         auth.User{ID: r.User.ID, Email: r.User.Email},
	}
	if s.TokenType == "" {
		s.TokenType = "bearer"
	}
	if s.User.ID == "" {
		s.User.ID = claims.Subject
	}
	if s.User.Email == "" {
		s.User.Email = claims.Email
	}
	if s.User.ID == "" {
		return nil, errors.New("response carried no user id")
	}

	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}

	return s, nil
}
