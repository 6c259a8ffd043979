package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

type subscriber struct {
	id uint64
	fn func(any)
}

// EventBus queues published events on a buffered channel and delivers them
// to subscribers from a single dispatch goroutine started with Start.
// Publishing never blocks: when the buffer is full the event is dropped and
// the OnDrop hooks fire.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu     sync.RWMutex
	subs   map[Event][]subscriber
	nextID uint64
}

// New creates a bus with the given buffer size.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]subscriber),
	}
}

// Start dispatches queued events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

// Subscription is returned by every Subscribe call. Unsubscribe is safe to
// call more than once.
type Subscription struct {
	bus   *EventBus
	event Event
	id    uint64
	once  *sync.Once
}

// Unsubscribe removes the subscriber from the bus.
func (s Subscription) Unsubscribe() {
	if s.bus == nil || s.once == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.event, s.id)
	})
}

func (bus *EventBus) subscribe(event Event, fn func(any)) Subscription {
	bus.mu.Lock()
	bus.nextID++
	id := bus.nextID
	bus.subs[event] = append(bus.subs[event], subscriber{id: id, fn: fn})
	bus.mu.Unlock()

	bus.runOnSubscribe(event)

	return Subscription{bus: bus, event: event, id: id, once: &sync.Once{}}
}

func (bus *EventBus) remove(event Event, id uint64) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	subs := bus.subs[event]
	for i, s := range subs {
		if s.id == id {
			bus.subs[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]subscriber, len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, s := range subs {
		bus.call(env, s.fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

// PublishSessionChanged enqueues a session.changed event.
func (bus *EventBus) PublishSessionChanged(p SessionChangedPayload) {
	bus.send(EventSessionChanged, p)
}

// SubscribeSessionChanged registers fn for session.changed events.
func (bus *EventBus) SubscribeSessionChanged(fn func(SessionChangedPayload)) Subscription {
	return bus.subscribe(EventSessionChanged, func(p any) { fn(p.(SessionChangedPayload)) })
}

// PublishTaskCreated enqueues a task.created event.
func (bus *EventBus) PublishTaskCreated(p TaskCreatedPayload) {
	bus.send(EventTaskCreated, p)
}

// SubscribeTaskCreated registers fn for task.created events.
func (bus *EventBus) SubscribeTaskCreated(fn func(TaskCreatedPayload)) Subscription {
	return bus.subscribe(EventTaskCreated, func(p any) { fn(p.(TaskCreatedPayload)) })
}

// PublishTaskUpdated enqueues a task.updated event.
func (bus *EventBus) PublishTaskUpdated(p TaskUpdatedPayload) {
	bus.send(EventTaskUpdated, p)
}

// SubscribeTaskUpdated registers fn for task.updated events.
func (bus *EventBus) SubscribeTaskUpdated(fn func(TaskUpdatedPayload)) Subscription {
	return bus.subscribe(EventTaskUpdated, func(p any) { fn(p.(TaskUpdatedPayload)) })
}

// PublishTaskDeleted enqueues a task.deleted event.
func (bus *EventBus) PublishTaskDeleted(p TaskDeletedPayload) {
	bus.send(EventTaskDeleted, p)
}

// SubscribeTaskDeleted registers fn for task.deleted events.
func (bus *EventBus) SubscribeTaskDeleted(fn func(TaskDeletedPayload)) Subscription {
	return bus.subscribe(EventTaskDeleted, func(p any) { fn(p.(TaskDeletedPayload)) })
}

// PublishNotificationPublished enqueues a notification.published event.
func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

// SubscribeNotificationPublished registers fn for notification.published events.
func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) Subscription {
	return bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}
