package domain

import "context"

// Watcher produces IncomingMessage events from the source channels.
type Watcher interface {
	Name() string
	// Start blocks, publishing captured posts onto the bus until the context
	// is cancelled.
	Start(ctx context.Context, bus MessageBus) error
	Stop() error
}

// Sink delivers a composed digest to one destination.
// Implementations must tolerate concurrent Deliver calls.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, post OutboundPost) error
}
