package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type displayErr struct{ msg string }

func (e displayErr) Error() string   { return "status 400: " + e.msg }
func (e displayErr) Display() string { return e.msg }

func TestAuthError_Message(t *testing.T) {
	t.Run("uses the wrapped display message", func(t *testing.T) {
		err := &AuthError{Op: "sign in", Err: fmt.Errorf("request: %w", displayErr{"Invalid login credentials"})}
		assert.Equal(t, "Invalid login credentials", err.Message())
	})

	t.Run("falls back to the full error", func(t *testing.T) {
		err := &AuthError{Op: "sign out", Err: errors.New("dial tcp: refused")}
		assert.Equal(t, "auth sign out: dial tcp: refused", err.Message())
	})

	t.Run("empty display message falls back", func(t *testing.T) {
		err := &AuthError{Op: "sign up", Err: displayErr{}}
		assert.Equal(t, "auth sign up: status 400: ", err.Message())
	})
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	var nilSession *Session
	assert.False(t, nilSession.Expired(now, 0))
	assert.False(t, (&Session{}).Expired(now, 0))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now, 0))
	assert.True(t, (&Session{ExpiresAt: now.Add(10 * time.Second)}).Expired(now, 30*time.Second))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Hour)}).Expired(now, 30*time.Second))
}
