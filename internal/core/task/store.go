package task

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no task matches the given id.
	ErrNotFound = errors.New("task not found")
	// ErrTitleRequired is returned when a draft has a blank title.
	ErrTitleRequired = errors.New("task title is required")
)

// Store is the remote task collection. Implementations perform exactly one
// round trip per call and never cache or retry.
type Store interface {
	// ListByOwner returns every task owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Task, error)

	// Create inserts the draft and returns the populated row.
	Create(ctx context.Context, draft Draft) (Task, error)

	// Update applies the patch to the task with the given id and returns
	// the updated row. Returns ErrNotFound if no row matched.
	Update(ctx context.Context, id string, patch Patch) (Task, error)

	// Delete removes the task with the given id.
	Delete(ctx context.Context, id string) error
}

// RemoteError reports a failed call against the task store.
type RemoteError struct {
	Op     string // list, create, update, delete
	TaskID string // empty for list and create
	Err    error
}

func (e *RemoteError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("%s task %s: %v", e.Op, e.TaskID, e.Err)
	}
	return fmt.Sprintf("%s tasks: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
