package queue

import (
	"os"

	"github.com/haraqa/diskpipe/internal/logger"
	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/pkg/errors"
)

// Reclaimer gives consumed bytes back to the filesystem. Frames are released
// one by one and reclaimed in units of syncEvery frames: the consumed range is
// punched out, then optionally collapsed, then synced.
//
// Frames rarely end on a block boundary, so every punch starts at the floor
// of the block holding the first unreclaimed byte. A block that an earlier
// punch only partly covered is covered whole by a later one and freed.
type Reclaimer struct {
	provider  platform.Provider
	f         *os.File
	log       logger.Logger
	metrics   Metrics
	syncEvery int
	// syncFirst makes the read position durable before anything is punched,
	// whatever syncEvery is
	syncFirst bool
	collapse  bool
	blockSize int64
	fsync     func() error

	// origin is the lowest byte that may ever be punched
	origin  int64
	from    int64
	end     int64
	pending int
}

// ReclaimerOptions configures NewReclaimer
type ReclaimerOptions struct {
	SyncEvery int
	// Start is the first byte that may be punched. -1 counts everything before
	// the first released frame as already consumed, so punching may start at 0.
	Start int64
	// SyncFirst syncs the file before punching, for queues whose read position lives in the file
	SyncFirst bool
	// Collapse removes whole leading blocks once they are punched
	Collapse bool
	Logger   logger.Logger
	Metrics  Metrics
}

// NewReclaimer returns a Reclaimer for f
func NewReclaimer(p platform.Provider, f *os.File, opts ReclaimerOptions) *Reclaimer {
	r := &Reclaimer{
		provider:  p,
		f:         f,
		log:       logger.OrNoop(opts.Logger),
		metrics:   opts.Metrics,
		syncEvery: opts.SyncEvery,
		syncFirst: opts.SyncFirst,
		collapse:  opts.Collapse,
		blockSize: p.BlockSize(f),
		fsync:     f.Sync,
		origin:    opts.Start,
		from:      opts.Start,
	}
	if r.origin < 0 {
		r.origin = 0
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	if r.blockSize <= 0 {
		r.blockSize = platform.DefaultBlockSize
	}
	return r
}

// Release records that the frame [start, end) has been delivered. When it
// completes a reclamation unit the consumed range is reclaimed and Release
// returns how far the rest of the file was shifted down by a collapse.
func (r *Reclaimer) Release(start, end int64) (int64, error) {
	if r.from < 0 {
		r.from = start
	}
	r.end = end
	r.pending++
	if r.syncEvery > 0 && r.pending < r.syncEvery {
		return 0, nil
	}
	return r.Flush()
}

// Flush reclaims every frame released so far, even if that is less than a
// full unit
func (r *Reclaimer) Flush() (int64, error) {
	if r.pending == 0 {
		return 0, nil
	}
	r.pending = 0

	if r.syncFirst {
		if err := r.sync(); err != nil {
			return 0, err
		}
	}
	if r.end > r.from {
		lo := r.from - r.from%r.blockSize
		if lo < r.origin {
			lo = r.origin
		}
		if err := r.provider.PunchHole(r.f, lo, r.end-lo); err != nil {
			return 0, err
		}
		r.metrics.Reclaimed(r.end - r.from)
		r.from = r.end
	}

	var shifted int64
	if r.collapse {
		shifted = r.collapseLeading(r.end)
		r.end -= shifted
	}
	if r.syncEvery <= 0 {
		return shifted, nil
	}
	return shifted, r.sync()
}

// collapseLeading drops the whole blocks before end. The range must stop short
// of the end of the file, so the block holding the last byte is always kept.
func (r *Reclaimer) collapseLeading(end int64) int64 {
	info, err := r.f.Stat()
	if err != nil {
		r.log.Warnf("stat before collapse: %v", err)
		return 0
	}
	limit := end
	if info.Size()-1 < limit {
		limit = info.Size() - 1
	}
	n := limit - limit%r.blockSize
	if n <= 0 {
		return 0
	}
	if err := r.provider.CollapseRange(r.f, 0, n); err != nil {
		if errors.Cause(err) == platform.ErrUnsupported {
			r.log.Warnf("collapse range unsupported by %s provider, disabling it: %v", r.provider.Name(), err)
			r.collapse = false
			return 0
		}
		r.log.Warnf("collapse range(0, %d): %v", n, err)
		return 0
	}
	r.from -= n
	return n
}

func (r *Reclaimer) sync() error {
	return errors.Wrap(r.fsync(), "fsync")
}
