// Package eventbus publishes workflow version lifecycle events over
// watermill-backed transports.
package eventbus

import (
	"context"

	"github.com/flowkit-dev/flowkit/pkg/events"
)

// EventHandler processes a decoded event.
type EventHandler func(ctx context.Context, event events.Event) error

// EventBus is the publish/subscribe surface for version lifecycle events.
type EventBus interface {
	Publish(ctx context.Context, key string, event events.Event) error
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
	Close() error
}
