// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within taskdeck.
package eventbus

import (
	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/notify"
	"github.com/colonyops/taskdeck/internal/core/task"
)

// Event names a bus topic.
type Event string

// Keep list sorted A-Z.
const (
	EventNotificationPublished Event = "notification.published"
	EventSessionChanged        Event = "session.changed"
	EventTaskCreated           Event = "task.created"
	EventTaskDeleted           Event = "task.deleted"
	EventTaskUpdated           Event = "task.updated"
)

// SessionChangedPayload is emitted whenever the tracked session changes.
// User is nil when signed out.
type SessionChangedPayload struct {
	User    *auth.User
	Loading bool
}

// TaskCreatedPayload is emitted after the remote store accepted a new task.
type TaskCreatedPayload struct {
	Task task.Task
}

// TaskUpdatedPayload is emitted after a task was updated remotely.
type TaskUpdatedPayload struct {
	Task task.Task
}

// TaskDeletedPayload is emitted after a task was deleted remotely.
type TaskDeletedPayload struct {
	TaskID string
}

// NotificationPublishedPayload carries a user-facing notification.
type NotificationPublishedPayload struct {
	Level   notify.Level
	Message string
}
