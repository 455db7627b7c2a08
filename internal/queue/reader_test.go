package queue

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/haraqa/diskpipe/internal/mocks"
	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
)

func appendFile(t *testing.T, f *os.File, b []byte) {
	t.Helper()
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if _, err = f.WriteAt(b, info.Size()); err != nil {
		t.Fatal(err)
	}
}

func TestBlockingReaderWaits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 0)
	appendFile(t, f, []byte("abc"))

	n := mocks.NewMockNotifier(ctrl)
	gomock.InOrder(
		n.EXPECT().Wait(gomock.Any()).DoAndReturn(func(context.Context) error {
			appendFile(t, f, []byte("de"))
			return nil
		}),
		n.EXPECT().Wait(gomock.Any()).DoAndReturn(func(context.Context) error {
			appendFile(t, f, []byte("fgh"))
			return nil
		}),
	)

	woken := 0
	r := NewBlockingReader(f, &wait.Strategy{Budget: 1, Notifier: n, OnWake: func() { woken++ }})
	p := make([]byte, 6)
	got, err := r.ReadFull(context.Background(), p, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 6 || string(p) != "bcdefg" {
		t.Fatalf("read %q (%d)", p, got)
	}
	if woken != 2 {
		t.Fatalf("woken %d times, expected 2", woken)
	}
}

func TestBlockingReaderGivesUp(t *testing.T) {
	f := sizedFile(t, 0)
	appendFile(t, f, []byte("abc"))

	r := NewBlockingReader(f, &wait.Strategy{Budget: 3})
	p := make([]byte, 8)
	n, err := r.ReadFull(context.Background(), p, 0)
	if errors.Cause(err) != wait.ErrGaveUp {
		t.Fatalf("expected ErrGaveUp, got %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 bytes on the last attempt, got %d", n)
	}

	n, err = r.ReadSome(context.Background(), p, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || string(p[:n]) != "bc" {
		t.Fatalf("read %q", p[:n])
	}

	if _, err = r.ReadSome(context.Background(), p, 3); errors.Cause(err) != wait.ErrGaveUp {
		t.Fatalf("expected ErrGaveUp at end of file, got %v", err)
	}
}

func TestBlockingReaderCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	n := mocks.NewMockNotifier(ctrl)
	n.EXPECT().Wait(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})

	r := NewBlockingReader(f, &wait.Strategy{Budget: 0, Notifier: n})
	if _, err := r.ReadFull(ctx, make([]byte, 1), 0); errors.Cause(err) != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTransmitWaitsForPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 0)
	appendFile(t, f, []byte("xxhel"))

	n := mocks.NewMockNotifier(ctrl)
	n.EXPECT().Wait(gomock.Any()).DoAndReturn(func(context.Context) error {
		appendFile(t, f, []byte("lo world"))
		return nil
	})

	tr := NewTransmitter(&platform.Portable{}, &wait.Strategy{Budget: 1, Notifier: n})
	out := &bytes.Buffer{}
	if err := tr.Transmit(context.Background(), f, 2, 5, out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello" {
		t.Fatalf("transmitted %q", out.String())
	}
}

func TestTransmitTruncated(t *testing.T) {
	f := sizedFile(t, 0)
	appendFile(t, f, []byte("hel"))

	tr := NewTransmitter(&platform.Portable{}, &wait.Strategy{Budget: 2})
	err := tr.Transmit(context.Background(), f, 0, 5, &bytes.Buffer{})
	if errors.Cause(err) != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestTransmitToFile(t *testing.T) {
	f := sizedFile(t, 0)
	appendFile(t, f, []byte("0123456789"))

	out, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	tr := NewTransmitter(platform.Default(), &wait.Strategy{Budget: 1})
	if err = tr.Transmit(context.Background(), f, 3, 4, out); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "3456" {
		t.Fatalf("transmitted %q", b)
	}
}

func TestCursor(t *testing.T) {
	f := sizedFile(t, 0)
	appendFile(t, f, Fixed.header())

	r := NewBlockingReader(f, &wait.Strategy{Budget: 0})
	c, err := LoadCursor(context.Background(), r, f)
	if err != nil {
		t.Fatal(err)
	}
	if c.Offset() != HeaderLen {
		t.Fatalf("offset %d", c.Offset())
	}
	if err = c.Store(300); err != nil {
		t.Fatal(err)
	}
	if err = c.Store(200); err == nil {
		t.Fatal("expected the cursor to refuse moving back")
	}

	c, err = LoadCursor(context.Background(), r, f)
	if err != nil {
		t.Fatal(err)
	}
	if c.Offset() != 300 {
		t.Fatalf("reloaded offset %d", c.Offset())
	}
}

func TestCursorEmpty(t *testing.T) {
	f := sizedFile(t, 0)
	r := NewBlockingReader(f, &wait.Strategy{Budget: 0})
	if _, err := LoadCursor(context.Background(), r, f); errors.Cause(err) != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestLocate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 0)
	p := mocks.NewMockProvider(ctrl)
	gomock.InOrder(
		p.EXPECT().SeekData(f, int64(0)).Return(int64(4096), nil),
		p.EXPECT().SeekData(f, int64(0)).Return(int64(4096), nil),
		p.EXPECT().SeekData(f, int64(0)).Return(int64(0), errors.Wrap(platform.ErrNoData, "seek")),
		p.EXPECT().SeekData(f, int64(0)).Return(int64(0), errors.New("bad file descriptor")),
	)

	for _, tc := range []struct {
		hint, expected int64
		fail           bool
	}{
		{0, 4096, false},
		{5000, 5000, false},
		{0, 0, false},
		{0, 0, true},
	} {
		off, err := locate(p, f, tc.hint)
		if (err != nil) != tc.fail {
			t.Fatalf("hint %d: unexpected error %v", tc.hint, err)
		}
		if off != tc.expected {
			t.Fatalf("hint %d: located %d, expected %d", tc.hint, off, tc.expected)
		}
	}
}
