package commands

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/data/supabase/supabasetest"
)

func TestLoginCmd_PasswordFromStdin(t *testing.T) {
	h := newCmdHarness(t)
	userID := h.srv.AddUser(t, "ada@example.com", testPassword)

	require.NoError(t, h.run(testPassword+"\n", "login", "--email", "ada@example.com"))
	assert.Equal(t, "Signed in as ada@example.com\n", h.out.String())

	s, err := h.auth.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, userID, s.User.ID)
}

func TestLoginCmd_PasswordWithoutTrailingNewline(t *testing.T) {
	h := newCmdHarness(t)
	h.srv.AddUser(t, "ada@example.com", testPassword)

	require.NoError(t, h.run(testPassword, "login", "--email", "ada@example.com"))
	assert.Contains(t, h.out.String(), "Signed in as ada@example.com")
}

func TestLoginCmd_EmailRequiredWithoutTerminal(t *testing.T) {
	h := newCmdHarness(t)

	err := h.run(testPassword+"\n", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email is required")
	assert.Zero(t, h.srv.Requests(http.MethodPost, "/auth/v1/token"))
}

func TestLoginCmd_RejectsMalformedCredentials(t *testing.T) {
	tests := []struct {
		name  string
		email string
		stdin string
	}{
		{name: "empty password", email: "ada@example.com", stdin: "\n"},
		{name: "email without at sign", email: "ada.example.com", stdin: testPassword + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCmdHarness(t)

			err := h.run(tt.stdin, "login", "--email", tt.email)
			require.Error(t, err)
			assert.Zero(t, h.srv.Requests(http.MethodPost, "/auth/v1/token"))
		})
	}
}

func TestLoginCmd_WrongPassword(t *testing.T) {
	h := newCmdHarness(t)
	h.srv.AddUser(t, "ada@example.com", testPassword)

	err := h.run("not-it\n", "login", "--email", "ada@example.com")

	var authErr *auth.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid login credentials", authErr.Message())
	assert.Empty(t, h.out.String())
}

func TestLoginCmd_SignUp(t *testing.T) {
	h := newCmdHarness(t)

	require.NoError(t, h.run(testPassword+"\n", "login", "--signup", "--email", "new@example.com"))
	assert.Equal(t, "Account created; signed in as new@example.com\n", h.out.String())
}

func TestLoginCmd_SignUpNeedsConfirmation(t *testing.T) {
	h := newCmdHarness(t, supabasetest.WithEmailConfirmation())

	require.NoError(t, h.run(testPassword+"\n", "login", "--signup", "--email", "new@example.com"))
	assert.Contains(t, h.out.String(), "Check new@example.com for a confirmation link")

	s, err := h.auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}
