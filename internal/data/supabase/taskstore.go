package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	"golang.org/x/oauth2"

	"github.com/colonyops/taskdeck/internal/core/task"
)

// TaskStore implements task.Store against the PostgREST table configured on
// the Client. Row-level security on the backend scopes every call to the
// owner of the bearer token.
type TaskStore struct {
	c      *Client
	tokens oauth2.TokenSource
	rest   string
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore returns a TaskStore that authenticates each request with a
// token from tokens.
func NewTaskStore(c *Client, tokens oauth2.TokenSource) *TaskStore {
	return &TaskStore{
		c:      c,
		tokens: tokens,
		rest:   c.base.String() + "/rest/v1",
	}
}

// exec runs fn against the task table as the signed-in user. Each call gets
// its own postgrest client, so concurrent calls never share credentials.
// The call is abandoned when ctx ends or the client timeout passes.
func (s *TaskStore) exec(ctx context.Context, op string, fn func(q *postgrest.QueryBuilder) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tok, err := s.tokens.Token()
	if err != nil {
		return err
	}

	rest := postgrest.NewClient(s.rest, "public", map[string]string{
		"apikey":        s.c.anonKey,
		"Authorization": "Bearer " + tok.AccessToken,
	})

	ctx, cancel := context.WithTimeout(ctx, s.c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- fn(rest.From(s.c.table)) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	evt := s.c.log.Debug().
		Ctx(ctx).
		Str("op", op).
		Str("table", s.c.table).
		Dur("elapsed", time.Since(start))
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg("rest request")

	return err
}

// ListByOwner returns the owner's tasks, newest first.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string) ([]task.Task, error) {
	var rows []task.Task
	err := s.exec(ctx, "list", func(q *postgrest.QueryBuilder) error {
		_, err := q.Select("*", "", false).
			Eq("user_id", ownerID).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if rows == nil {
		rows = []task.Task{}
	}
	return rows, nil
}

// Create inserts one row and returns it as stored.
func (s *TaskStore) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	var rows []task.Task
	err := s.exec(ctx, "insert", func(q *postgrest.QueryBuilder) error {
		_, err := q.Insert(draft, false, "", "representation", "").ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	if len(rows) == 0 {
		return task.Task{}, errors.New("insert task: no row returned")
	}
	return rows[0], nil
}

// Update applies patch to the row with the given id. A patch matching no
// visible row returns task.ErrNotFound.
func (s *TaskStore) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	if patch.Empty() {
		return task.Task{}, errors.New("update task: empty patch")
	}

	var rows []task.Task
	err := s.exec(ctx, "update", func(q *postgrest.QueryBuilder) error {
		_, err := q.Update(patch, "representation", "").
			Eq("id", id).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	if len(rows) == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return rows[0], nil
}

// Delete removes the row with the given id.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	err := s.exec(ctx, "delete", func(q *postgrest.QueryBuilder) error {
		_, _, err := q.Delete("minimal", "").
			Eq("id", id).
			Execute()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
