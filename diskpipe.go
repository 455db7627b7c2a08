// Package diskpipe is a durable single producer, single consumer message
// queue kept in one regular file. Producers append length prefixed messages,
// a consumer forwards them in order and hands the consumed space back to the
// filesystem, and both sides survive being killed at any point.
package diskpipe

import (
	"context"
	"io"

	"github.com/haraqa/diskpipe/internal/logger"
	"github.com/haraqa/diskpipe/internal/queue"
)

// Format selects how messages are framed in the queue file. A queue must
// always be read with the format it was written with.
type Format = queue.Format

const (
	// Fixed uses 8 byte lengths and keeps the read position in the file header
	Fixed = queue.Fixed
	// Varint uses variable length prefixes and finds the read position from
	// the first byte that has not been reclaimed
	Varint = queue.Varint
)

// ParseFormat converts "fixed" or "varint" to a Format
func ParseFormat(s string) (Format, error) {
	return queue.ParseFormat(s)
}

// Logger is a handler for log messages of varying severities
type Logger = logger.Logger

// Metrics receives produce, consume and reclaim counts
type Metrics = queue.Metrics

var (
	// ErrEmpty is returned by Consumer.Next when there is nothing to consume
	ErrEmpty = queue.ErrEmpty
	// ErrTruncated is returned when a message was only partially written
	ErrTruncated = queue.ErrTruncated
	// ErrCorrupt is returned when the queue file holds impossible values
	ErrCorrupt = queue.ErrCorrupt
	// ErrNoInput is returned when a consumer can neither open nor create the queue file
	ErrNoInput = queue.ErrNoInput
)

// Produce reads r until EOF and appends everything as one message to the
// queue at path, creating the queue if needed. It returns the message length.
func Produce(path string, r io.Reader, opts ...Option) (int64, error) {
	s, err := newSettings(opts)
	if err != nil {
		return 0, err
	}
	return queue.Produce(path, r, s.queueOptions())
}

// Consumer reads messages from a queue file
type Consumer struct {
	q *queue.Consumer
}

// NewConsumer opens the queue at path for consumption, creating it if needed.
// Only one consumer may use a queue at any time.
func NewConsumer(path string, opts ...Option) (*Consumer, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	q, err := queue.NewConsumer(path, s.queueOptions())
	if err != nil {
		return nil, err
	}
	return &Consumer{q: q}, nil
}

// Next writes the next message to w and returns its length. Without
// WithFollow it returns ErrEmpty instead of waiting for a message.
func (c *Consumer) Next(ctx context.Context, w io.Writer) (int64, error) {
	return c.q.Next(ctx, w)
}

// Run writes messages to w one after another. Without WithFollow it returns
// nil once the queue is drained, otherwise it runs until ctx is done.
func (c *Consumer) Run(ctx context.Context, w io.Writer) error {
	return c.q.Run(ctx, w)
}

// Close releases the queue file
func (c *Consumer) Close() error {
	return c.q.Close()
}
