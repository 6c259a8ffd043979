package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetCommand(ctx))

	ctx = WithUserID(ctx, "user-1")
	ctx = WithCommand(ctx, "logout")
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "logout", GetCommand(ctx))

	ctx = WithUserID(ctx, "user-2")
	assert.Equal(t, "user-2", GetUserID(ctx), "innermost value wins")
}
