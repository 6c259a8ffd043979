package taskdeck

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskdeck/internal/core/eventbus"
	"github.com/colonyops/taskdeck/internal/core/task"
)

// Repository is the four-call task facade the view-model depends on.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]task.Task, error)
	Create(ctx context.Context, draft task.Draft) (task.Task, error)
	Update(ctx context.Context, id string, patch task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskService wraps task.Store: one round trip per call, no caching and no
// retry. Every failure is returned as a *task.RemoteError and successful
// mutations are published on the bus.
type TaskService struct {
	store task.Store
	bus   *eventbus.EventBus
	log   zerolog.Logger
}

var _ Repository = (*TaskService)(nil)

// NewTaskService creates a new TaskService.
func NewTaskService(store task.Store, bus *eventbus.EventBus, log zerolog.Logger) *TaskService {
	return &TaskService{
		store: store,
		bus:   bus,
		log:   log.With().Str("component", "task-service").Logger(),
	}
}

// ListByOwner returns the owner's tasks, newest first.
func (s *TaskService) ListByOwner(ctx context.Context, ownerID string) ([]task.Task, error) {
	tasks, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, &task.RemoteError{Op: "list", Err: err}
	}
	s.log.Debug().Str("owner", ownerID).Int("count", len(tasks)).Msg("listed tasks")
	return tasks, nil
}

// Create normalizes the draft, substituting the placeholder description,
// and submits it.
func (s *TaskService) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	draft = draft.Normalize()
	if draft.Title == "" {
		return task.Task{}, &task.RemoteError{Op: "create", Err: task.ErrTitleRequired}
	}

	created, err := s.store.Create(ctx, draft)
	if err != nil {
		return task.Task{}, &task.RemoteError{Op: "create", Err: err}
	}

	s.log.Debug().Str("task_id", created.ID).Msg("created task")
	s.bus.PublishTaskCreated(eventbus.TaskCreatedPayload{Task: created})
	return created, nil
}

// Update applies a partial update and returns the stored row.
func (s *TaskService) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return task.Task{}, &task.RemoteError{Op: "update", TaskID: id, Err: err}
	}

	s.bus.PublishTaskUpdated(eventbus.TaskUpdatedPayload{Task: updated})
	return updated, nil
}

// Delete removes the task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return &task.RemoteError{Op: "delete", TaskID: id, Err: err}
	}

	s.bus.PublishTaskDeleted(eventbus.TaskDeletedPayload{TaskID: id})
	return nil
}
