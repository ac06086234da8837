// Package notify provides the ephemeral toast layer: short-lived messages
// reporting the outcome of user actions. At most one toast is visible at a
// time; a new toast replaces the old one and every toast expires on its own.
package notify

import (
	"sync"
	"time"
)

// Toast types mirror the severity of the reported outcome.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 4 * time.Second

// Toast is a single user-facing message.
type Toast struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Notifier owns the single visible toast.
type Notifier struct {
	mu        sync.Mutex
	current   *Toast
	expiresAt time.Time
	duration  time.Duration
	now       func() time.Time
}

// New creates a notifier with the default 4s toast duration.
func New() *Notifier {
	return &Notifier{duration: DefaultDuration, now: time.Now}
}

// NewWithClock creates a notifier with an injected clock and duration, for
// tests that need to step time.
func NewWithClock(duration time.Duration, now func() time.Time) *Notifier {
	return &Notifier{duration: duration, now: now}
}

// Show replaces the visible toast and restarts the expiry timer.
func (n *Notifier) Show(message, toastType string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &Toast{Message: message, Type: toastType}
	n.expiresAt = n.now().Add(n.duration)
}

// Info shows an informational toast.
func (n *Notifier) Info(message string) { n.Show(message, TypeInfo) }

// Success shows a success toast.
func (n *Notifier) Success(message string) { n.Show(message, TypeSuccess) }

// Warning shows a warning toast.
func (n *Notifier) Warning(message string) { n.Show(message, TypeWarning) }

// Error shows an error toast.
func (n *Notifier) Error(message string) { n.Show(message, TypeError) }

// Current returns the visible toast, or nil if none is visible or the last
// one has expired.
func (n *Notifier) Current() *Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil || !n.now().Before(n.expiresAt) {
		return nil
	}
	t := *n.current
	return &t
}

// Dismiss hides the visible toast immediately.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nil
}
