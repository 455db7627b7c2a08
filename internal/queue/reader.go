package queue

import (
	"context"
	"io"

	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
)

// BlockingReader reads from a file that is still being appended to. Reads
// are positioned, so an attempt that comes up short is simply repeated at the
// same offset once more data may have arrived.
type BlockingReader struct {
	src      io.ReaderAt
	strategy *wait.Strategy
}

// NewBlockingReader returns a reader over src that waits according to strategy
func NewBlockingReader(src io.ReaderAt, strategy *wait.Strategy) *BlockingReader {
	return &BlockingReader{src: src, strategy: strategy}
}

// ReadFull fills p from off. If the strategy gives up it returns the error
// together with the number of bytes that were available on the last attempt.
func (r *BlockingReader) ReadFull(ctx context.Context, p []byte, off int64) (int, error) {
	var n int
	err := r.strategy.Until(ctx, func() (bool, error) {
		var err error
		n, err = r.readAt(p, off)
		return n == len(p), err
	})
	return n, err
}

// ReadSome waits until at least one byte is available at off and reads up to len(p)
func (r *BlockingReader) ReadSome(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	var n int
	err := r.strategy.Until(ctx, func() (bool, error) {
		var err error
		n, err = r.readAt(p, off)
		return n > 0, err
	})
	return n, err
}

func (r *BlockingReader) readAt(p []byte, off int64) (int, error) {
	n, err := r.src.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, errors.Wrapf(err, "pread(%d@%d)", len(p), off)
	}
	return n, nil
}

// byteScanner feeds a BlockingReader to a framing.Framer one byte at a time
type byteScanner struct {
	ctx    context.Context
	reader *BlockingReader
	buf    []byte
	chunk  []byte
	off    int64
}

func newByteScanner(ctx context.Context, r *BlockingReader, buf []byte, off int64) *byteScanner {
	return &byteScanner{ctx: ctx, reader: r, buf: buf, off: off}
}

func (s *byteScanner) ReadByte() (byte, error) {
	if len(s.chunk) == 0 {
		n, err := s.reader.ReadSome(s.ctx, s.buf, s.off)
		if err != nil {
			return 0, err
		}
		s.chunk = s.buf[:n]
	}
	b := s.chunk[0]
	s.chunk = s.chunk[1:]
	s.off++
	return b, nil
}

// Offset is the file offset of the next byte ReadByte returns
func (s *byteScanner) Offset() int64 {
	return s.off
}
