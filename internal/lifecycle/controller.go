// Package lifecycle drives session state transitions from client
// adapter events and rebuilds sessions from checkpoints at startup.
package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/dkovac/wagate/internal/domain"
	"github.com/dkovac/wagate/internal/registry"
)

// Controller applies one adapter's lifecycle events to the registry.
// Each adapter instance gets exactly one controller, so handlers are
// never registered twice for the same client.
type Controller struct {
	name   string
	reg    *registry.Registry
	logger *zap.Logger
}

// NewController builds a controller for the named session.
func NewController(name string, reg *registry.Registry, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{name: name, reg: reg, logger: logger}
}

// Handlers returns the event handler set to register with the adapter.
// Transition failures are logged, never propagated into the adapter's
// event loop; an event that the state machine rejects is dropped.
func (c *Controller) Handlers() domain.EventHandlers {
	return domain.EventHandlers{
		OnQR: func(code string) {
			c.apply(domain.StatusWaitingQR, code)
		},
		OnReady: func() {
			c.apply(domain.StatusInChat, "")
		},
		OnDisconnected: func(reason string) {
			c.logger.Info("session disconnected",
				zap.String("session", c.name), zap.String("reason", reason))
			c.apply(domain.StatusDisconnected, "")
		},
	}
}

func (c *Controller) apply(status domain.Status, qr string) {
	// Events originate from the adapter's own goroutines, not from any
	// HTTP request, so there is no caller context to inherit.
	if err := c.reg.ApplyTransition(context.Background(), c.name, status, qr); err != nil {
		c.logger.Warn("transition not applied",
			zap.String("session", c.name),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
