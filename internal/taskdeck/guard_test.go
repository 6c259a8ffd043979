package taskdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/taskdeck/internal/core/auth"
)

func TestGuard(t *testing.T) {
	user := &auth.User{ID: "u1", Email: "ada@example.com"}

	tests := []struct {
		name     string
		state    State
		current  View
		want     View
		redirect bool
	}{
		{name: "loading never redirects", state: State{Loading: true}, current: ViewTasks, want: ViewTasks},
		{name: "loading with user never redirects", state: State{User: user, Loading: true}, current: ViewLogin, want: ViewLogin},
		{name: "signed out on tasks goes to login", state: State{}, current: ViewTasks, want: ViewLogin, redirect: true},
		{name: "signed out on login stays", state: State{}, current: ViewLogin, want: ViewLogin},
		{name: "signed in on login goes home", state: State{User: user}, current: ViewLogin, want: ViewTasks, redirect: true},
		{name: "signed in on tasks stays", state: State{User: user}, current: ViewTasks, want: ViewTasks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, redirect := Guard(tt.state, tt.current)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.redirect, redirect)

			// Re-evaluating on the result is a no-op.
			again, redirect := Guard(tt.state, got)
			assert.Equal(t, got, again)
			assert.False(t, redirect)
		})
	}
}
