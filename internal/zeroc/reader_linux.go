package zeroc

import (
	"io"
	"syscall"

	"github.com/pkg/errors"
)

// maxSendfile is the largest count linux moves in one sendfile call
const maxSendfile = 0x7ffff000

var sendfile = syscall.Sendfile

// WriteTo sends the remaining bytes to w with sendfile, falling back to the
// copy loop when w has no descriptor or the descriptor pairing is unsupported.
// It returns early, without error, when the file holds no more data.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	out, ok := w.(fd)
	if !ok || r.copyOnly {
		return r.copyTo(w)
	}

	var n int64
	for r.count > 0 {
		size := r.count
		if size > maxSendfile {
			size = maxSendfile
		}
		off := r.offset
		moved, err := sendfile(int(out.Fd()), int(r.file.Fd()), &off, int(size))
		if moved <= 0 && err == syscall.EINTR {
			continue
		}
		if moved <= 0 && (err == syscall.EINVAL || err == syscall.ENOSYS || err == syscall.EAGAIN) {
			r.copyOnly = true
			copied, err := r.copyTo(w)
			return n + copied, err
		}
		if err != nil {
			return n, errors.Wrapf(err, "sendfile(%d)", size)
		}
		if moved == 0 {
			return n, nil
		}
		if int64(moved) > size {
			return n, errors.Wrapf(ErrOvershoot, "sendfile(%d) = %d", size, moved)
		}
		n += int64(moved)
		r.offset += int64(moved)
		r.count -= int64(moved)
	}
	return n, nil
}
