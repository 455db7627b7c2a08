package durable

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// File exposes the single-syscall write primitives of an *os.File. The
// methods on *os.File itself loop over short writes, which would hide exactly
// the condition this package has to report.
type File struct {
	*os.File
	rc syscall.RawConn
}

// NewFile wraps f for raw writes
func NewFile(f *os.File) (*File, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return nil, errors.Wrap(err, "unable to access raw file descriptor")
	}
	return &File{File: f, rc: rc}, nil
}

func (f *File) Write(b []byte) (n int, err error) {
	cerr := f.rc.Write(func(fd uintptr) bool {
		n, err = unix.Write(int(fd), b)
		return true
	})
	return clamp(n), firstErr(cerr, err)
}

func (f *File) WriteAt(b []byte, off int64) (n int, err error) {
	cerr := f.rc.Write(func(fd uintptr) bool {
		n, err = unix.Pwrite(int(fd), b, off)
		return true
	})
	return clamp(n), firstErr(cerr, err)
}

func (f *File) Writev(bufs [][]byte) (n int, err error) {
	cerr := f.rc.Write(func(fd uintptr) bool {
		n, err = unix.Writev(int(fd), bufs)
		return true
	})
	return clamp(n), firstErr(cerr, err)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
