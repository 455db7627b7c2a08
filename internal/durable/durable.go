// Package durable performs the all-or-nothing writes the queue file format
// depends on. A write the kernel only partially accepts is reported as
// ErrShortWrite and is never resumed: resuming could leave a reader
// permanently misaligned on the frame boundaries.
package durable

import (
	"io"
	"syscall"

	"github.com/pkg/errors"
)

// PipeBuf is the atomic I/O unit used to size and grow message buffers
const PipeBuf = 4096

var (
	// ErrShortWrite is returned when the OS accepted fewer bytes than requested without reporting an error
	ErrShortWrite = errors.New("short write violates append atomicity")
	// ErrTooLarge is returned when a message buffer can not grow any further
	ErrTooLarge = errors.New("message buffer too large")
)

// VectorWriter issues a single vectored write
type VectorWriter interface {
	Writev(bufs [][]byte) (int, error)
}

// WriteExactly writes b with one write call, retrying only if the call was
// interrupted before anything was written
func WriteExactly(w io.Writer, b []byte) error {
	for {
		n, err := w.Write(b)
		if err == nil && n == len(b) {
			return nil
		}
		if n <= 0 && errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "write(%d) only wrote %d", len(b), n)
		}
		return errors.Wrapf(ErrShortWrite, "write(%d) only wrote %d", len(b), n)
	}
}

// WriteAtExactly is the positioned version of WriteExactly
func WriteAtExactly(w io.WriterAt, b []byte, off int64) error {
	for {
		n, err := w.WriteAt(b, off)
		if err == nil && n == len(b) {
			return nil
		}
		if n <= 0 && errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "pwrite(%d@%d) only wrote %d", len(b), off, n)
		}
		return errors.Wrapf(ErrShortWrite, "pwrite(%d@%d) only wrote %d", len(b), off, n)
	}
}

// AppendVectored writes every buffer in order using vectored writes. Unlike
// WriteExactly a partial vectored write is resumed from where it stopped.
func AppendVectored(w VectorWriter, bufs ...[]byte) (int64, error) {
	var total int64
	for _, b := range bufs {
		total += int64(len(b))
	}

	iov := make([][]byte, len(bufs))
	copy(iov, bufs)

	var written int64
	for written < total {
		n, err := w.Writev(iov)
		if n <= 0 && errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return written, errors.Wrapf(err, "writev(%d) failed after %d", total, written)
		}
		if n <= 0 {
			return written, errors.Wrapf(ErrShortWrite, "writev(%d) made no progress after %d", total, written)
		}
		written += int64(n)
		iov = Advance(iov, n)
	}
	return written, nil
}

// Advance drops the first n bytes from bufs. Fully written buffers are skipped
// and the partially written one is resliced, so the remainder of the second
// buffer is always len(second) - max(0, n - len(first)).
func Advance(bufs [][]byte, n int) [][]byte {
	for len(bufs) > 0 && n >= len(bufs[0]) {
		n -= len(bufs[0])
		bufs = bufs[1:]
	}
	if len(bufs) > 0 && n > 0 {
		bufs[0] = bufs[0][n:]
	}
	return bufs
}

// ReadMessage reads r until EOF into a buffer that keeps reserve unused bytes
// at its front, so a length prefix can be filled in without copying the
// payload. Capacity doubles whenever less than PipeBuf of headroom remains.
func ReadMessage(r io.Reader, reserve int) ([]byte, error) {
	if reserve < 0 {
		return nil, errors.New("invalid reserve, value must not be negative")
	}
	buf := make([]byte, reserve, PipeBuf+reserve)
	for {
		if cap(buf)-len(buf) < PipeBuf {
			size := cap(buf) << 1
			if size <= cap(buf) {
				return nil, errors.Wrapf(ErrTooLarge, "realloc(%d)", cap(buf))
			}
			grown := make([]byte, len(buf), size)
			copy(grown, buf)
			buf = grown
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return nil, errors.Wrap(err, "read")
		}
	}
}
