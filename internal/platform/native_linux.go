package platform

import (
	"os"

	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/haraqa/diskpipe/internal/zeroc"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Native uses sendfile, fallocate, SEEK_DATA and inotify
type Native struct{}

var _ Provider = Native{}

// Default returns the fastest provider for the running OS
func Default() Provider {
	return Native{}
}

func (Native) Name() string { return "native" }

func (Native) Transfer(src *os.File, off, n int64) *zeroc.Reader {
	return zeroc.NewReader(src, off, n)
}

func (Native) PunchHole(f *os.File, off, n int64) error {
	if n <= 0 {
		return nil
	}
	err := unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_PUNCH_HOLE|unix.FALLOC_FL_KEEP_SIZE, off, n)
	return errors.Wrapf(err, "fallocate(PUNCH_HOLE, %d, %d)", off, n)
}

func (Native) CollapseRange(f *os.File, off, n int64) error {
	if n <= 0 {
		return nil
	}
	err := unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_COLLAPSE_RANGE, off, n)
	if err == unix.EOPNOTSUPP {
		return errors.Wrapf(ErrUnsupported, "fallocate(COLLAPSE_RANGE, %d, %d)", off, n)
	}
	return errors.Wrapf(err, "fallocate(COLLAPSE_RANGE, %d, %d)", off, n)
}

func (Native) SeekData(f *os.File, off int64) (int64, error) {
	pos, err := unix.Seek(int(f.Fd()), off, unix.SEEK_DATA)
	if err == unix.ENXIO {
		return 0, ErrNoData
	}
	if err != nil {
		return 0, errors.Wrapf(err, "lseek(%d, SEEK_DATA)", off)
	}
	return pos, nil
}

func (Native) BlockSize(f *os.File) int64 {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil || st.Blksize <= 0 {
		return DefaultBlockSize
	}
	return int64(st.Blksize)
}

func (Native) Advise(f *os.File) error {
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		return errors.Wrap(err, "fadvise(SEQUENTIAL)")
	}
	return errors.Wrap(unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_NOREUSE), "fadvise(NOREUSE)")
}

func (Native) Subscribe(path string) (wait.Notifier, error) {
	w, err := wait.Watch(path)
	if err != nil {
		return nil, err
	}
	return w, nil
}
