package broker

import "context"

type MessageQueue interface {
	Publish(ctx context.Context, data []byte) error
	// Consume blocks, passing each message to handler until ctx is done.
	Consume(ctx context.Context, handler func([]byte) error) error
	Subscribe() error
	Close() error
}
