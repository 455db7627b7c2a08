package wait

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher wakes on writes to a single file using fsnotify
type Watcher struct {
	w *fsnotify.Watcher
}

// Watch subscribes to changes of the file at path
func Watch(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrapf(ErrSubscribe, "new watcher: %v", err)
	}
	if err = w.Add(path); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(ErrSubscribe, "watch %q: %v", path, err)
	}
	return &Watcher{w: w}, nil
}

// Wait blocks until the file is written to
func (w *Watcher) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return errors.Wrap(ErrSubscribe, "watcher closed")
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return errors.Wrap(ErrSubscribe, "watcher closed")
			}
			return errors.Wrap(err, "read watcher events")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close releases the subscription
func (w *Watcher) Close() error {
	return w.w.Close()
}

// Poll wakes after a fixed interval, for filesystems without change notification
type Poll struct {
	Interval time.Duration
}

func (p Poll) Wait(ctx context.Context) error {
	t := time.NewTimer(p.Interval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (Poll) Close() error { return nil }
