package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/haraqa/diskpipe/internal/mocks"
	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/pkg/errors"
)

func sizedFile(t *testing.T, size int64) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "reclaim"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	if err = f.Truncate(size); err != nil {
		t.Fatal(err)
	}
	return f
}

type countingMetrics struct {
	noopMetrics
	reclaimed int64
}

func (m *countingMetrics) Reclaimed(n int64) { m.reclaimed += n }

func TestReclaimerUnits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 100)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(16))
	gomock.InOrder(
		p.EXPECT().PunchHole(f, int64(8), int64(22)).Return(nil),
		// starts at the floor of the block holding byte 30, not at 30
		p.EXPECT().PunchHole(f, int64(16), int64(34)).Return(nil),
	)

	m := &countingMetrics{}
	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 2, Start: HeaderLen, SyncFirst: true, Metrics: m})
	for _, frame := range [][2]int64{{8, 20}, {20, 30}, {30, 40}} {
		if _, err := r.Release(frame[0], frame[1]); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.Release(40, 50); err != nil {
		t.Fatal(err)
	}
	// a full unit was just reclaimed, so there is nothing left to flush
	if _, err := r.Flush(); err != nil {
		t.Fatal(err)
	}
	if m.reclaimed != 42 {
		t.Fatalf("reclaimed %d bytes, expected 42", m.reclaimed)
	}
}

func TestReclaimerNeverPunchesHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 100)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4096))
	gomock.InOrder(
		p.EXPECT().PunchHole(f, int64(8), int64(12)).Return(nil),
		p.EXPECT().PunchHole(f, int64(8), int64(22)).Return(nil),
		p.EXPECT().PunchHole(f, int64(8), int64(42)).Return(nil),
	)

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 1, Start: HeaderLen, SyncFirst: true})
	for _, frame := range [][2]int64{{8, 20}, {20, 30}, {30, 50}} {
		if _, err := r.Release(frame[0], frame[1]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReclaimerSyncsBeforePunching(t *testing.T) {
	for _, syncEvery := range []int{0, 1, 3} {
		ctrl := gomock.NewController(t)
		f := sizedFile(t, 100)
		p := mocks.NewMockProvider(ctrl)
		p.EXPECT().BlockSize(f).Return(int64(4096))

		var calls []string
		p.EXPECT().PunchHole(f, gomock.Any(), gomock.Any()).DoAndReturn(func(*os.File, int64, int64) error {
			calls = append(calls, "punch")
			return nil
		}).Times(1)

		r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: syncEvery, Start: HeaderLen, SyncFirst: true})
		r.fsync = func() error {
			calls = append(calls, "sync")
			return nil
		}
		if _, err := r.Release(8, 20); err != nil {
			t.Fatal(err)
		}
		if _, err := r.Flush(); err != nil {
			t.Fatal(err)
		}

		expected := []string{"sync", "punch", "sync"}
		if syncEvery == 0 {
			expected = expected[:2]
		}
		if strings.Join(calls, ",") != strings.Join(expected, ",") {
			t.Errorf("sync every %d: calls %v, expected %v", syncEvery, calls, expected)
		}
		ctrl.Finish()
	}
}

func TestReclaimerSyncFailureStopsPunch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 100)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4096))

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 0, Start: HeaderLen, SyncFirst: true})
	r.fsync = func() error { return errors.New("input/output error") }
	if _, err := r.Release(8, 20); err == nil {
		t.Fatal("expected fsync failure")
	}
}

func TestReclaimerEveryFrame(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 100)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4))
	gomock.InOrder(
		p.EXPECT().PunchHole(f, int64(0), int64(10)).Return(nil),
		p.EXPECT().PunchHole(f, int64(8), int64(7)).Return(nil),
	)

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 0, Start: -1})
	if _, err := r.Release(3, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Release(12, 15); err != nil {
		t.Fatal(err)
	}
	// nothing pending
	if _, err := r.Flush(); err != nil {
		t.Fatal(err)
	}
}

func TestReclaimerCollapse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 10000)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4096))
	gomock.InOrder(
		p.EXPECT().PunchHole(f, int64(0), int64(9000)).Return(nil),
		p.EXPECT().CollapseRange(f, int64(0), int64(8192)).Return(nil),
		p.EXPECT().PunchHole(f, int64(0), int64(908)).Return(nil),
	)

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 1, Start: -1, Collapse: true})
	shifted, err := r.Release(0, 9000)
	if err != nil {
		t.Fatal(err)
	}
	if shifted != 8192 {
		t.Fatalf("shifted %d, expected 8192", shifted)
	}

	// the mock did not really collapse, the file is still 10000 bytes long
	// but the remaining offsets have moved down
	shifted, err = r.Release(808, 908)
	if err != nil {
		t.Fatal(err)
	}
	if shifted != 0 {
		t.Fatalf("shifted %d, expected 0", shifted)
	}
}

func TestReclaimerCollapseKeepsLastBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 8192)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4096))
	p.EXPECT().PunchHole(f, int64(0), int64(8192)).Return(nil)
	p.EXPECT().CollapseRange(f, int64(0), int64(4096)).Return(nil)

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 1, Start: -1, Collapse: true})
	shifted, err := r.Release(0, 8192)
	if err != nil {
		t.Fatal(err)
	}
	if shifted != 4096 {
		t.Fatalf("shifted %d, expected 4096", shifted)
	}
}

func TestReclaimerCollapseUnsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 20000)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4096))
	p.EXPECT().Name().Return("mock")
	p.EXPECT().PunchHole(f, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	p.EXPECT().CollapseRange(f, int64(0), int64(4096)).Return(errors.Wrap(platform.ErrUnsupported, "collapse"))

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 1, Start: -1, Collapse: true})
	for _, end := range []int64{5000, 9000} {
		shifted, err := r.Release(end-1000, end)
		if err != nil {
			t.Fatal(err)
		}
		if shifted != 0 {
			t.Fatalf("shifted %d without collapse", shifted)
		}
	}
}

func TestReclaimerCollapseFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 20000)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4096))
	p.EXPECT().PunchHole(f, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	p.EXPECT().CollapseRange(f, int64(0), gomock.Any()).Return(errors.New("invalid argument")).Times(2)

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 1, Start: -1, Collapse: true})
	for _, end := range []int64{5000, 9000} {
		if _, err := r.Release(end-1000, end); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReclaimerPunchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := sizedFile(t, 100)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().BlockSize(f).Return(int64(4096))
	p.EXPECT().PunchHole(f, int64(8), int64(10)).Return(errors.New("no space"))

	r := NewReclaimer(p, f, ReclaimerOptions{SyncEvery: 1, Start: HeaderLen})
	if _, err := r.Release(8, 18); err == nil {
		t.Fatal("expected punch failure")
	}
}
