package queue

import (
	"context"
	"io"
	"math"
	"os"

	"github.com/haraqa/diskpipe/internal/durable"
	"github.com/haraqa/diskpipe/internal/framing"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
)

// Consumer delivers the messages of a queue file in order, each exactly once
// unless it crashes between delivering a message and recording that
type Consumer struct {
	path        string
	opts        Options
	f           *os.File
	raw         *durable.File
	notifier    wait.Notifier
	reader      *BlockingReader
	transmitter *Transmitter
	reclaimer   *Reclaimer

	cursor *Cursor // Fixed only
	hint   int64   // Varint only
	scan   []byte
}

// NewConsumer opens the queue at path for reading, creating it if it is missing
func NewConsumer(path string, opts Options) (*Consumer, error) {
	opts = opts.withDefaults()

	f, err := openFile(path, os.O_RDWR, opts.Format.header(), opts.Logger)
	if err != nil {
		return nil, errors.Wrapf(ErrNoInput, "open %s: %v", path, err)
	}
	raw, err := durable.NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	notifier := wait.None
	if opts.Follow {
		notifier, err = opts.Provider.Subscribe(path)
		if err != nil {
			f.Close()
			return nil, err
		}
	}
	strategy := &wait.Strategy{
		Budget:   opts.SpinBudget,
		Notifier: notifier,
		OnWake: func() {
			opts.Metrics.Woken()
			opts.Logger.Debugf("woken by change to %s", path)
		},
	}

	c := &Consumer{
		path:        path,
		opts:        opts,
		f:           f,
		raw:         raw,
		notifier:    notifier,
		reader:      NewBlockingReader(raw, strategy),
		transmitter: NewTransmitter(opts.Provider, strategy),
	}

	ropts := ReclaimerOptions{
		SyncEvery: opts.SyncEvery,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	}
	switch opts.Format {
	case Varint:
		ropts.Start = -1
		ropts.Collapse = true
		c.scan = make([]byte, durable.PipeBuf)
		if err = opts.Provider.Advise(f); err != nil {
			opts.Logger.Warnf("fadvise %s: %v", path, err)
		}
	default:
		ropts.Start = HeaderLen
		ropts.SyncFirst = true
	}
	c.reclaimer = NewReclaimer(opts.Provider, f, ropts)
	return c, nil
}

// Next delivers one message to w and returns its length. Unless the consumer
// follows the queue it returns ErrEmpty when there is no message to deliver.
func (c *Consumer) Next(ctx context.Context, w io.Writer) (int64, error) {
	if c.opts.Format == Varint {
		return c.nextVarint(ctx, w)
	}
	return c.nextFixed(ctx, w)
}

func (c *Consumer) nextFixed(ctx context.Context, w io.Writer) (int64, error) {
	if c.cursor == nil {
		var err error
		c.cursor, err = LoadCursor(ctx, c.reader, c.raw)
		if err != nil {
			return 0, err
		}
	}

	start := c.cursor.Offset()
	var b [framing.FixedLen]byte
	n, err := c.reader.ReadFull(ctx, b[:], start)
	if err != nil {
		return 0, gaveUp(err, n, "length prefix")
	}
	length, err := framing.Fixed{}.Decode(b[:])
	if err != nil {
		return 0, err
	}
	payload := start + framing.FixedLen
	if length > uint64(math.MaxInt64-payload) {
		return 0, errors.Wrapf(ErrCorrupt, "frame at %d has length %d", start, length)
	}

	if err = c.transmitter.Transmit(ctx, c.f, payload, int64(length), w); err != nil {
		return 0, err
	}
	end := payload + int64(length)
	if err = c.cursor.Store(end); err != nil {
		return 0, err
	}
	if _, err = c.reclaimer.Release(start, end); err != nil {
		return 0, err
	}
	c.opts.Metrics.Consumed(int64(length))
	return int64(length), nil
}

func (c *Consumer) nextVarint(ctx context.Context, w io.Writer) (int64, error) {
	start, err := locate(c.opts.Provider, c.f, c.hint)
	if err != nil {
		return 0, err
	}

	// zero bytes between frames are consumed space, skip them
	s := newByteScanner(ctx, c.reader, c.scan, start)
	var length uint64
	for {
		var k int
		length, k, err = framing.Varint{}.ReadPrefix(s)
		if err != nil {
			if errors.Cause(err) == framing.ErrOverflow {
				return 0, errors.Wrapf(ErrCorrupt, "length prefix at %d: %v", s.Offset()-int64(k), err)
			}
			return 0, gaveUp(err, k, "length prefix")
		}
		if length > 0 {
			break
		}
	}
	payload := s.Offset()
	if length > uint64(math.MaxInt64-payload) {
		return 0, errors.Wrapf(ErrCorrupt, "frame before %d has length %d", payload, length)
	}

	if err = c.transmitter.Transmit(ctx, c.f, payload, int64(length), w); err != nil {
		return 0, err
	}
	end := payload + int64(length)
	shifted, err := c.reclaimer.Release(start, end)
	if err != nil {
		return 0, err
	}
	c.hint = end - shifted
	c.opts.Metrics.Consumed(int64(length))
	return int64(length), nil
}

// Run delivers messages until the queue is drained, or when following until
// ctx is done or an error occurs
func (c *Consumer) Run(ctx context.Context, w io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := c.Next(ctx, w)
		if errors.Cause(err) == ErrEmpty && !c.opts.Follow {
			return c.flush()
		}
		if err != nil {
			return err
		}
	}
}

// flush reclaims frames that were delivered but are still waiting for their
// reclamation unit to fill up
func (c *Consumer) flush() error {
	shifted, err := c.reclaimer.Flush()
	c.hint -= shifted
	return err
}

// Close reclaims what was delivered and releases the queue file and any
// change subscription
func (c *Consumer) Close() error {
	ferr := c.flush()
	nerr := c.notifier.Close()
	if err := c.f.Close(); err != nil {
		c.opts.Logger.Warnf("close %s: %v", c.path, err)
		return errors.Wrapf(err, "close %s", c.path)
	}
	if ferr != nil {
		return ferr
	}
	return nerr
}
