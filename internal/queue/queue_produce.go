package queue

import (
	"io"
	"os"

	"github.com/haraqa/diskpipe/internal/durable"
	"github.com/haraqa/diskpipe/internal/framing"
	"github.com/pkg/errors"
)

// Produce reads r to the end and appends it to the queue at path as one
// message. It returns the length of the payload.
func Produce(path string, r io.Reader, opts Options) (int64, error) {
	opts = opts.withDefaults()

	f, err := openFile(path, os.O_WRONLY|os.O_APPEND, opts.Format.header(), opts.Logger)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			opts.Logger.Warnf("close %s: %v", path, cerr)
		}
	}()
	raw, err := durable.NewFile(f)
	if err != nil {
		return 0, err
	}

	var n int64
	switch opts.Format {
	case Varint:
		n, err = appendVarint(raw, r)
	default:
		n, err = appendFixed(raw, r)
	}
	if err != nil {
		return 0, err
	}

	if opts.SyncEvery > 0 {
		if err = f.Sync(); err != nil {
			return 0, errors.Wrap(err, "fsync")
		}
	}
	opts.Metrics.Produced(n)
	return n, nil
}

// appendFixed reads the payload behind a reserved prefix so that the whole
// frame goes out in a single append
func appendFixed(w io.Writer, r io.Reader) (int64, error) {
	buf, err := durable.ReadMessage(r, framing.FixedLen)
	if err != nil {
		return 0, errors.Wrap(err, "read message")
	}
	n := len(buf) - framing.FixedLen
	framing.Fixed{}.AppendPrefix(buf[:0], uint64(n))
	if err = durable.WriteExactly(w, buf); err != nil {
		return 0, err
	}
	return int64(n), nil
}

func appendVarint(w durable.VectorWriter, r io.Reader) (int64, error) {
	msg, err := durable.ReadMessage(r, 0)
	if err != nil {
		return 0, errors.Wrap(err, "read message")
	}
	prefix := framing.Varint{}.AppendPrefix(make([]byte, 0, framing.MaxVarintLen), uint64(len(msg)))
	if _, err = durable.AppendVectored(w, prefix, msg); err != nil {
		return 0, err
	}
	return int64(len(msg)), nil
}
