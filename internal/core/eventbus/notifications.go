package eventbus

import (
	"fmt"

	"github.com/colonyops/taskdeck/internal/core/notify"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus

	// lastUser is only touched from the dispatch goroutine.
	lastUser string
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeSessionChanged(func(p SessionChangedPayload) {
		if p.Loading {
			return
		}

		switch {
		case p.User != nil && p.User.ID != r.lastUser:
			r.lastUser = p.User.ID
			r.notifyf(notify.LevelInfo, "signed in as %s", p.User.Email)
		case p.User == nil && r.lastUser != "":
			r.lastUser = ""
			r.notifyf(notify.LevelInfo, "signed out")
		}
	})

	r.bus.SubscribeTaskDeleted(func(p TaskDeletedPayload) {
		r.notifyf(notify.LevelInfo, "task deleted")
	})
}

func (r *NotificationRouter) notifyf(level notify.Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
