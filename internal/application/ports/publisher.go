package ports

import "context"

// PublisherPort delivers one serialized envelope to the recipient of a
// request. Implementations are synchronous and do not retry.
type PublisherPort interface {
	Publish(ctx context.Context, payload []byte) error
}

// PublisherFunc adapts an ordinary function to PublisherPort.
type PublisherFunc func(ctx context.Context, payload []byte) error

// Publish calls f(ctx, payload).
func (f PublisherFunc) Publish(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}
