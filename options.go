package diskpipe

import (
	"time"

	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/haraqa/diskpipe/internal/queue"
	"github.com/pkg/errors"
)

// Option is used with Produce and NewConsumer to override defaults
type Option func(*settings) error

type settings struct {
	queue        queue.Options
	portable     bool
	pollInterval time.Duration
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{queue: queue.DefaultOptions()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *settings) queueOptions() queue.Options {
	o := s.queue
	if s.portable {
		o.Provider = &platform.Portable{Logger: o.Logger, PollInterval: s.pollInterval}
	}
	return o
}

// WithFormat sets the message framing, Fixed by default
func WithFormat(f Format) Option {
	return func(s *settings) error {
		if f != Fixed && f != Varint {
			return errors.Errorf("invalid format %d", f)
		}
		s.queue.Format = f
		return nil
	}
}

// WithFollow makes a consumer wait for new messages instead of stopping once
// the queue is drained
func WithFollow(follow bool) Option {
	return func(s *settings) error {
		s.queue.Follow = follow
		return nil
	}
}

// WithSpinBudget sets how many read attempts are made before the consumer
// gives up or, when following, blocks until the file changes. The first
// attempt counts, zero behaves like one. Defaults to 50.
func WithSpinBudget(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return errors.New("invalid spin budget, value must not be negative")
		}
		s.queue.SpinBudget = n
		return nil
	}
}

// WithSyncEvery sets how many consumed messages are reclaimed together and
// followed by an fsync. Zero reclaims after every message without the
// trailing fsync, which is fast but can deliver messages again after a power
// loss. A fixed format consumer still syncs its read position before every
// reclamation. A producer syncs after its append unless this is zero.
// Defaults to 1.
func WithSyncEvery(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return errors.New("invalid sync interval, value must not be negative")
		}
		s.queue.SyncEvery = n
		return nil
	}
}

// WithPortable avoids linux specific syscalls. Consumed space is zeroed
// instead of freed and following polls the file instead of watching it.
func WithPortable(portable bool) Option {
	return func(s *settings) error {
		s.portable = portable
		return nil
	}
}

// WithPollInterval sets how often a portable consumer checks for new messages
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) error {
		if d <= 0 {
			return errors.New("invalid poll interval, value must be positive")
		}
		s.pollInterval = d
		return nil
	}
}

// WithLogger sets the handler for log messages
func WithLogger(l Logger) Option {
	return func(s *settings) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		s.queue.Logger = l
		return nil
	}
}

// WithMetrics sets the handler for produce, consume and reclaim metrics
func WithMetrics(m Metrics) Option {
	return func(s *settings) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		s.queue.Metrics = m
		return nil
	}
}
