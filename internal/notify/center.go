package notify

import (
	"log/slog"
	"sync"

	"github.com/chema-app/chema-core/internal/domain"
)

// Center queues user-visible alerts until the shell drains them. The
// core emits exactly one alert per terminal state transition; the shell
// presents each drained alert as a blocking dialog.
type Center struct {
	mu      sync.Mutex
	pending []domain.Alert
}

// NewCenter creates an empty alert center.
func NewCenter() *Center {
	return &Center{}
}

// Notify queues an alert for the shell.
func (c *Center) Notify(a domain.Alert) {
	slog.Info("alert", "kind", a.Kind, "title", a.Title, "message", a.Message)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, a)
}

// Drain returns all pending alerts and clears the queue.
func (c *Center) Drain() []domain.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.pending
	c.pending = nil
	return out
}
