package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrQueueClosed = errors.New("queue closed")

// ChannelQueue is an in-process MessageQueue. Consumers compete for
// messages, as members of one Kafka consumer group do.
type ChannelQueue struct {
	messages chan []byte
	done     chan struct{}
	once     sync.Once
	logger   *slog.Logger
}

func NewChannelQueue(capacity int, logger *slog.Logger) *ChannelQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelQueue{
		messages: make(chan []byte, capacity),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

func (c *ChannelQueue) Publish(ctx context.Context, data []byte) error {
	select {
	case <-c.done:
		return ErrQueueClosed
	default:
	}

	select {
	case c.messages <- data:
		return nil
	case <-c.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ChannelQueue) Subscribe() error { return nil }

func (c *ChannelQueue) Consume(ctx context.Context, handler func([]byte) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrQueueClosed
		case data := <-c.messages:
			if err := handler(data); err != nil {
				c.logger.Warn("Error processing message", "error", err)
			}
		}
	}
}

// Len reports how many messages are waiting.
func (c *ChannelQueue) Len() int { return len(c.messages) }

func (c *ChannelQueue) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

var _ MessageQueue = (*ChannelQueue)(nil)
