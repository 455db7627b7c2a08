package queue

import (
	"os"
	"path/filepath"

	"github.com/haraqa/diskpipe/internal/durable"
	"github.com/haraqa/diskpipe/internal/logger"
	"github.com/pkg/errors"
)

// openFile opens the queue file at path, creating it with header as its
// initial content if it does not exist yet. Whichever side gets there first
// creates the file and the other one finds it already initialised.
func openFile(path string, flag int, header []byte, log logger.Logger) (*os.File, error) {
	for {
		f, err := os.OpenFile(path, flag, 0600)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		created, err := create(path, header)
		if err != nil {
			return nil, err
		}
		if created {
			log.Infof("created queue file %s", path)
		}
	}
}

// create publishes a fully initialised file at path. The header is written to
// a temporary sibling which is then linked into place, so no reader can ever
// observe the file without its header. It reports false if another process
// created the file first.
func create(path string, header []byte) (bool, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, errors.Wrapf(err, "create temporary file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if err = writeHeader(tmp, header); err != nil {
		tmp.Close()
		return false, err
	}
	if err = tmp.Close(); err != nil {
		return false, errors.Wrap(err, "close temporary file")
	}

	err = os.Link(tmp.Name(), path)
	switch {
	case err == nil:
		syncDir(dir)
		return true, nil
	case os.IsExist(err):
		return false, nil
	}

	// some filesystems have no hard links
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()
	if err = writeHeader(f, header); err != nil {
		return false, err
	}
	syncDir(dir)
	return true, nil
}

func writeHeader(f *os.File, header []byte) error {
	if len(header) > 0 {
		raw, err := durable.NewFile(f)
		if err != nil {
			return err
		}
		if err = durable.WriteAtExactly(raw, header, 0); err != nil {
			return errors.Wrap(err, "write header")
		}
	}
	return errors.Wrap(f.Sync(), "sync header")
}

// syncDir makes a new directory entry durable, on a best effort basis
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
