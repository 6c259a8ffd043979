// Package task defines the task domain model shared by the repository
// facade, the view-model and the remote store.
package task

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDescription is stored when a task is created without a description.
const DefaultDescription = "No description provided"

// Task is a single user-owned work item as stored by the remote service.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsComplete  bool      `json:"is_complete"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Draft is a task that has not been submitted yet. The remote service
// assigns ID, CreatedAt and UpdatedAt.
type Draft struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsComplete  bool   `json:"is_complete"`
}

// Normalize trims the title and substitutes DefaultDescription for a blank
// description.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Description == "" {
		d.Description = DefaultDescription
	}
	return d
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsComplete  *bool   `json:"is_complete,omitempty"`
}

// SetComplete returns a patch that only changes the completion flag.
func SetComplete(done bool) Patch {
	return Patch{IsComplete: &done}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.IsComplete == nil
}

// Filter selects which tasks a view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the selectors in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter converts a user supplied name into a Filter.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, active or completed)", s)
	}
}

// Matches reports whether t passes the filter.
func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.IsComplete
	case FilterCompleted:
		return t.IsComplete
	default:
		return true
	}
}

// Next cycles to the following filter, wrapping around.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Label returns the display name of the filter.
func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}
