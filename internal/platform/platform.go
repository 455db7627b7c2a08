// Package platform isolates the OS primitives the queue engine relies on:
// in-kernel file transfer, hole punching, extent collapse, data extent lookup
// and file change notification.
//
// Native is backed by linux syscalls. Portable works anywhere and keeps the
// queue protocol identical, trading away only speed and disk reclamation.
package platform

import (
	"os"
	"sync"
	"time"

	"github.com/haraqa/diskpipe/internal/durable"
	"github.com/haraqa/diskpipe/internal/logger"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/haraqa/diskpipe/internal/zeroc"
	"github.com/pkg/errors"
)

//go:generate mockgen -source platform.go -destination ../mocks/provider.go -package mocks

const (
	// DefaultBlockSize is assumed when the filesystem does not report one
	DefaultBlockSize = 4096
	// DefaultPollInterval is how often Portable checks for new data
	DefaultPollInterval = 100 * time.Millisecond
)

var (
	// ErrUnsupported is returned for primitives a provider does not have
	ErrUnsupported = errors.New("operation not supported by platform")
	// ErrNoData is returned by SeekData when nothing but holes follow the offset
	ErrNoData = errors.New("no data extent after offset")
)

// Provider is the set of OS capabilities the queue engine is written against
type Provider interface {
	// Name identifies the provider in logs
	Name() string
	// Transfer prepares a resumable move of n bytes at off in src to an output
	Transfer(src *os.File, off, n int64) *zeroc.Reader
	// PunchHole releases the storage of a byte range without changing the file size
	PunchHole(f *os.File, off, n int64) error
	// CollapseRange removes a block aligned byte range, shifting the rest of the file down
	CollapseRange(f *os.File, off, n int64) error
	// SeekData returns the start of the first data extent at or after off
	SeekData(f *os.File, off int64) (int64, error)
	// BlockSize is the allocation unit of the filesystem holding f
	BlockSize(f *os.File) int64
	// Advise hints that f will be read sequentially once
	Advise(f *os.File) error
	// Subscribe returns a Notifier woken by writes to path
	Subscribe(path string) (wait.Notifier, error)
}

// Portable is a Provider built only on portable file operations. Hole
// punching overwrites the range with zeros, which keeps consumed bytes
// readable as padding but does not free disk space.
type Portable struct {
	Logger       logger.Logger
	PollInterval time.Duration

	warnOnce sync.Once
}

var _ Provider = &Portable{}

func (p *Portable) Name() string { return "portable" }

func (p *Portable) Transfer(src *os.File, off, n int64) *zeroc.Reader {
	return zeroc.NewReader(src, off, n).CopyOnly()
}

func (p *Portable) PunchHole(f *os.File, off, n int64) error {
	p.warnOnce.Do(func() {
		logger.OrNoop(p.Logger).Warnf("hole punching unavailable on %s provider, consumed space will not be freed", p.Name())
	})
	zeros := make([]byte, DefaultBlockSize)
	for n > 0 {
		size := int64(len(zeros))
		if n < size {
			size = n
		}
		if err := durable.WriteAtExactly(f, zeros[:size], off); err != nil {
			return errors.Wrapf(err, "zero fill(%d, %d)", off, n)
		}
		off += size
		n -= size
	}
	return nil
}

func (p *Portable) CollapseRange(f *os.File, off, n int64) error {
	return errors.Wrapf(ErrUnsupported, "collapse range(%d, %d)", off, n)
}

// SeekData treats the whole file as data
func (p *Portable) SeekData(f *os.File, off int64) (int64, error) {
	return off, nil
}

func (p *Portable) BlockSize(f *os.File) int64 { return DefaultBlockSize }

func (p *Portable) Advise(f *os.File) error { return nil }

func (p *Portable) Subscribe(path string) (wait.Notifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(wait.ErrSubscribe, "stat %q: %v", path, err)
	}
	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return wait.Poll{Interval: interval}, nil
}
