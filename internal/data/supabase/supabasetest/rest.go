package supabasetest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/colonyops/taskdeck/internal/core/task"
)

func restError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": msg, "details": nil, "hint": nil})
}

// eqParam reads a PostgREST "eq." filter from the query string.
func eqParam(c *gin.Context, column string) (string, bool) {
	return strings.CutPrefix(c.Query(column), "eq.")
}

func (s *Server) listTasks(c *gin.Context) {
	caller := c.GetString(userIDKey)
	owner, hasOwner := eqParam(c, "user_id")

	s.mu.Lock()
	rows := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.UserID != caller {
			continue
		}
		if hasOwner && t.UserID != owner {
			continue
		}
		rows = append(rows, t)
	}
	s.mu.Unlock()

	// postgrest clients may append a nulls modifier, e.g. created_at.desc.nullslast.
	if strings.HasPrefix(c.Query("order"), "created_at.desc") {
		sortNewestFirst(rows)
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) insertTask(c *gin.Context) {
	caller := c.GetString(userIDKey)

	var draft task.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		restError(c, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
		return
	}
	if draft.Title == "" {
		restError(c, http.StatusBadRequest, "23502", `null value in column "title" of relation "todos" violates not-null constraint`)
		return
	}
	if draft.UserID != caller {
		restError(c, http.StatusForbidden, "42501", `new row violates row-level security policy for table "todos"`)
		return
	}
	if _, err := uuid.Parse(draft.UserID); err != nil {
		restError(c, http.StatusBadRequest, "22P02", `invalid input syntax for type uuid: "`+draft.UserID+`"`)
		return
	}

	s.mu.Lock()
	now := s.now().UTC()
	row := task.Task{
		ID:          uuid.NewString(),
		UserID:      draft.UserID,
		Title:       draft.Title,
		Description: draft.Description,
		IsComplete:  draft.IsComplete,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append(s.tasks, row)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, []task.Task{row})
}

func (s *Server) updateTask(c *gin.Context) {
	caller := c.GetString(userIDKey)
	id, ok := eqParam(c, "id")
	if !ok {
		restError(c, http.StatusBadRequest, "21000", "UPDATE requires a WHERE clause")
		return
	}

	var patch task.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		restError(c, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		t := &s.tasks[i]
		if t.ID != id || t.UserID != caller {
			continue
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.IsComplete != nil {
			t.IsComplete = *patch.IsComplete
		}
		t.UpdatedAt = s.now().UTC()
		c.JSON(http.StatusOK, []task.Task{*t})
		return
	}

	c.JSON(http.StatusOK, []task.Task{})
}

func (s *Server) deleteTask(c *gin.Context) {
	caller := c.GetString(userIDKey)
	id, ok := eqParam(c, "id")
	if !ok {
		restError(c, http.StatusBadRequest, "21000", "DELETE requires a WHERE clause")
		return
	}

	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID == id && t.UserID == caller {
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}
