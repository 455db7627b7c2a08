package zeroc

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const copyBufSize = 4096

var (
	// ErrShortWrite is returned when the output accepted fewer bytes than were read from the file
	ErrShortWrite = errors.New("incomplete write to output")
	// ErrOvershoot is returned when the kernel reports more bytes moved than requested
	ErrOvershoot = errors.New("transfer moved more bytes than requested")
)

// bufPool is used to reduce heap allocations in the copy fallback
var bufPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, copyBufSize)
	},
}

type fd interface {
	Fd() uintptr
}

// NewReader creates a new zero copy reader which moves count bytes, starting
// at offset, from f to whatever it is asked to WriteTo
func NewReader(f *os.File, offset int64, count int64) *Reader {
	return &Reader{
		file:   f,
		offset: offset,
		count:  count,
	}
}

// Reader is a reader which uses the sendfile syscall on linux and a buffered
// copy loop everywhere else. It keeps its position between calls, so a
// payload the producer has not finished writing can be resumed.
type Reader struct {
	file     *os.File
	offset   int64
	count    int64
	copyOnly bool
}

// Offset is the file offset of the next byte to move
func (r *Reader) Offset() int64 {
	return r.offset
}

// Remaining is the number of bytes still to move
func (r *Reader) Remaining() int64 {
	return r.count
}

// CopyOnly disables the in-kernel transfer
func (r *Reader) CopyOnly() *Reader {
	r.copyOnly = true
	return r
}

// copyTo moves bytes through a user space buffer until the request is
// satisfied or the file has no more data. Running out of data is not an error.
func (r *Reader) copyTo(w io.Writer) (int64, error) {
	buf := bufPool.Get().([]byte)
	defer bufPool.Put(buf)

	var n int64
	for r.count > 0 {
		size := int64(len(buf))
		if r.count < size {
			size = r.count
		}
		nr, err := r.file.ReadAt(buf[:size], r.offset)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			if nw > 0 {
				n += int64(nw)
				r.offset += int64(nw)
				r.count -= int64(nw)
			}
			if werr != nil {
				return n, errors.Wrapf(werr, "write(%d)", nr)
			}
			if nw != nr {
				return n, errors.Wrapf(ErrShortWrite, "write(%d) wrote %d", nr, nw)
			}
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, errors.Wrapf(err, "read(%d@%d)", size, r.offset)
		}
	}
	return n, nil
}
