package queue

import (
	"context"
	"io"
	"os"

	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
)

// Transmitter forwards payload bytes from the queue file to an output,
// waiting for bytes the producer has not finished writing yet
type Transmitter struct {
	provider platform.Provider
	strategy *wait.Strategy
}

// NewTransmitter returns a Transmitter using p to move bytes
func NewTransmitter(p platform.Provider, strategy *wait.Strategy) *Transmitter {
	return &Transmitter{provider: p, strategy: strategy}
}

// Transmit writes exactly n bytes of src starting at off to w
func (t *Transmitter) Transmit(ctx context.Context, src *os.File, off, n int64, w io.Writer) error {
	zr := t.provider.Transfer(src, off, n)
	for zr.Remaining() > 0 {
		err := t.strategy.Until(ctx, func() (bool, error) {
			moved, err := zr.WriteTo(w)
			return moved > 0 || zr.Remaining() == 0, err
		})
		if errors.Cause(err) == wait.ErrGaveUp {
			return errors.Wrapf(ErrTruncated, "payload at %d: %d of %d bytes", off, n-zr.Remaining(), n)
		}
		if err != nil {
			return errors.Wrapf(err, "transmit %d bytes at %d", n, off)
		}
	}
	return nil
}
