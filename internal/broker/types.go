package broker

import (
	"context"
)

// Consumer yields every payload received on the configured subscription,
// hiding reconnects from the caller. Consume blocks until the context is
// canceled, the handler returns an error, or the reconnect budget is
// exhausted.
type Consumer interface {
	Consume(ctx context.Context, handler HandlerFunc) error
	Close() error
}

// HandlerFunc processes one raw payload. Messages are delivered one at a
// time, in order; a non-nil error stops consumption and propagates out of
// Consume.
type HandlerFunc func(ctx context.Context, topic string, payload []byte) error
