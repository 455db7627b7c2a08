package queue

import (
	"context"
	"io"
	"math"
	"os"

	"github.com/haraqa/diskpipe/internal/durable"
	"github.com/haraqa/diskpipe/internal/framing"
	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
)

// Cursor is the persisted read position of a Fixed queue, stored as a big
// endian offset in the first HeaderLen bytes of the file
type Cursor struct {
	w      io.WriterAt
	offset int64
}

// LoadCursor reads the cursor header, waiting for it like any other frame
func LoadCursor(ctx context.Context, r *BlockingReader, w io.WriterAt) (*Cursor, error) {
	var b [HeaderLen]byte
	n, err := r.ReadFull(ctx, b[:], 0)
	if err != nil {
		return nil, gaveUp(err, n, "cursor header")
	}
	off, err := framing.Fixed{}.Decode(b[:])
	if err != nil {
		return nil, err
	}
	if off < HeaderLen || off > math.MaxInt64 {
		return nil, errors.Wrapf(ErrCorrupt, "cursor %d", off)
	}
	return &Cursor{w: w, offset: int64(off)}, nil
}

// Offset is the start of the next unread frame
func (c *Cursor) Offset() int64 {
	return c.offset
}

// Store persists a new read position, which may only move forward
func (c *Cursor) Store(off int64) error {
	if off < c.offset {
		return errors.Errorf("cursor can not move back from %d to %d", c.offset, off)
	}
	b := framing.Fixed{}.AppendPrefix(make([]byte, 0, HeaderLen), uint64(off))
	if err := durable.WriteAtExactly(c.w, b, 0); err != nil {
		return errors.Wrap(err, "store cursor")
	}
	c.offset = off
	return nil
}

// locate finds where a Varint queue continues: the first data extent, or the
// end of what this process already consumed if that is further along
func locate(p platform.Provider, f *os.File, hint int64) (int64, error) {
	off, err := p.SeekData(f, 0)
	switch {
	case errors.Cause(err) == platform.ErrNoData:
		off = 0
	case err != nil:
		return 0, errors.Wrap(err, "locate data")
	}
	if hint > off {
		off = hint
	}
	return off, nil
}

// gaveUp classifies a wait that ended without enough data. Nothing at all at
// a frame boundary means the queue is empty, anything less is a torn frame.
func gaveUp(err error, n int, what string) error {
	if errors.Cause(err) != wait.ErrGaveUp {
		return err
	}
	if n == 0 {
		return ErrEmpty
	}
	return errors.Wrapf(ErrTruncated, "%s: only %d bytes", what, n)
}
