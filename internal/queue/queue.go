// Package queue implements the on-disk message queue: a single regular file
// that one producer appends length prefixed frames to and one consumer
// drains from the front, giving the consumed space back to the filesystem.
package queue

import (
	"strings"

	"github.com/haraqa/diskpipe/internal/framing"
	"github.com/haraqa/diskpipe/internal/logger"
	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
)

// Format selects how frames are laid out in the queue file
type Format int

const (
	// Fixed frames carry an 8 byte big endian length. The file starts with
	// an 8 byte cursor holding the offset of the next unread frame.
	Fixed Format = iota
	// Varint frames carry a big endian base-128 length. The file has no
	// header, the next unread frame is the first byte that is not a hole.
	Varint
)

func (f Format) String() string {
	switch f {
	case Fixed:
		return "fixed"
	case Varint:
		return "varint"
	}
	return "unknown"
}

// ParseFormat is the inverse of Format.String
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "fixed", "":
		return Fixed, nil
	case "varint":
		return Varint, nil
	}
	return 0, errors.Errorf("unknown format %q, expected fixed or varint", s)
}

func (f Format) framer() framing.Framer {
	if f == Varint {
		return framing.Varint{}
	}
	return framing.Fixed{}
}

// header is the content a new queue file is initialised with
func (f Format) header() []byte {
	if f == Varint {
		return nil
	}
	return framing.Fixed{}.AppendPrefix(nil, HeaderLen)
}

// HeaderLen is the size of the cursor at the front of a Fixed queue file
const HeaderLen = framing.FixedLen

// Metrics is notified of queue activity
type Metrics interface {
	Produced(bytes int64)
	Consumed(bytes int64)
	Reclaimed(bytes int64)
	Woken()
}

type noopMetrics struct{}

func (noopMetrics) Produced(int64)  {}
func (noopMetrics) Consumed(int64)  {}
func (noopMetrics) Reclaimed(int64) {}
func (noopMetrics) Woken()          {}

// Options configures both sides of a queue
type Options struct {
	Format Format
	// Follow keeps a consumer waiting for new frames instead of stopping
	// once the queue is drained
	Follow bool
	// SpinBudget is how many times a read is retried before blocking
	SpinBudget int
	// SyncEvery is how many consumed frames make up one reclamation unit.
	// Zero reclaims after every frame without ever calling fsync.
	SyncEvery int
	Provider  platform.Provider
	Logger    logger.Logger
	Metrics   Metrics
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Format:     Fixed,
		SpinBudget: wait.DefaultBudget,
		SyncEvery:  1,
	}
}

func (o Options) withDefaults() Options {
	if o.Provider == nil {
		o.Provider = platform.Default()
	}
	o.Logger = logger.OrNoop(o.Logger)
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	if o.SpinBudget < 0 {
		o.SpinBudget = 0
	}
	if o.SyncEvery < 0 {
		o.SyncEvery = 0
	}
	return o
}
