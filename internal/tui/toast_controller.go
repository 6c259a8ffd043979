package tui

import (
	"time"

	"github.com/colonyops/taskdeck/internal/core/notify"
)

const (
	infoToastTTL      = 3 * time.Second
	errorToastTTL     = 6 * time.Second
	maxToasts         = 3
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 40
)

type toast struct {
	notification notify.Notification
	remaining    time.Duration
}

// ToastController tracks the short-lived notifications shown under the
// current view. Errors and warnings stay up longer than info toasts.
type ToastController struct {
	toasts  []toast
	ticking bool
}

func NewToastController() *ToastController {
	return &ToastController{}
}

// Push adds a notification, evicting the oldest beyond maxToasts.
func (c *ToastController) Push(n notify.Notification) {
	ttl := infoToastTTL
	if n.Level != notify.LevelInfo {
		ttl = errorToastTTL
	}
	c.toasts = append(c.toasts, toast{notification: n, remaining: ttl})
	if len(c.toasts) > maxToasts {
		c.toasts = c.toasts[len(c.toasts)-maxToasts:]
	}
}

// Tick ages every toast by d and drops the expired ones.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// Dismiss removes the newest toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

func (c *ToastController) Toasts() []toast {
	return c.toasts
}

// Ticking reports whether a tick is scheduled.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}
