// Package channels provides outbound notification transports. The core
// treats SMS, push and chat uniformly: a recipient and a body.
package channels

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier is the notification dispatch collaborator contract.
type Notifier interface {
	// Name returns the channel name (e.g. "slack").
	Name() string
	// CanReach reports whether the channel has an address for the recipient.
	CanReach(recipient string) bool
	// Send delivers a message to a recipient.
	Send(ctx context.Context, recipient, body string) error
}

// Dispatcher routes a message to the first registered channel that can reach
// the recipient.
type Dispatcher struct {
	notifiers []Notifier
}

// NewDispatcher creates a dispatcher over the given channels, tried in order.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Send delivers the message through the first channel that can reach the
// recipient. Returns an error when no channel can, or delivery fails.
func (d *Dispatcher) Send(ctx context.Context, recipient, body string) error {
	for _, n := range d.notifiers {
		if !n.CanReach(recipient) {
			continue
		}
		if err := n.Send(ctx, recipient, body); err != nil {
			return fmt.Errorf("%s send to %s: %w", n.Name(), recipient, err)
		}
		slog.Info("Notification sent", "channel", n.Name(), "recipient", recipient)
		return nil
	}
	return fmt.Errorf("no channel can reach %s", recipient)
}
