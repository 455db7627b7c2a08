package zeroc

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func tempFile(t *testing.T, name string, data []byte) *os.File {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(t.TempDir(), name), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	if _, err = f.Write(data); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestReader(t *testing.T) {
	in := tempFile(t, "in.test", []byte("headerinput"))
	out := tempFile(t, "out.test", nil)

	r := NewReader(in, 6, 5)
	n, err := r.WriteTo(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || r.Remaining() != 0 || r.Offset() != 11 {
		t.Fatal(n, r.Remaining(), r.Offset())
	}

	b, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "input" {
		t.Fatalf("%q", b)
	}

	in.Close()
	_, err = NewReader(in, 0, 5).WriteTo(out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestReaderCopy(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 3*copyBufSize)
	in := tempFile(t, "in.test", payload)

	var buf bytes.Buffer
	r := NewReader(in, 0, int64(len(payload)))
	n, err := r.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(payload)) || !bytes.Equal(buf.Bytes(), payload) {
		t.Fatal(n)
	}

	out := tempFile(t, "out.test", nil)
	n, err = NewReader(in, 10, 20).CopyOnly().WriteTo(out)
	if err != nil || n != 20 {
		t.Fatal(n, err)
	}
}

func TestReaderResume(t *testing.T) {
	for _, copyOnly := range []bool{false, true} {
		in := tempFile(t, "in.test", []byte("hel"))
		out := tempFile(t, "out.test", nil)
		r := NewReader(in, 0, 5)
		if copyOnly {
			r.CopyOnly()
		}
		n, err := r.WriteTo(out)
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 || r.Remaining() != 2 {
			t.Fatal(n, r.Remaining())
		}

		// nothing new yet
		n, err = r.WriteTo(out)
		if err != nil || n != 0 {
			t.Fatal(n, err)
		}

		if _, err = in.WriteAt([]byte("lo"), 3); err != nil {
			t.Fatal(err)
		}
		n, err = r.WriteTo(out)
		if err != nil || n != 2 || r.Remaining() != 0 {
			t.Fatal(n, err)
		}
		b, err := os.ReadFile(out.Name())
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "hello" {
			t.Fatalf("%q", b)
		}
	}
}

type shortWriter struct{}

func (shortWriter) Write(b []byte) (int, error) { return len(b) / 2, nil }

type errWriter struct{ err error }

func (w errWriter) Write(b []byte) (int, error) { return 0, w.err }

func TestReaderShortWrite(t *testing.T) {
	in := tempFile(t, "in.test", []byte("input"))
	n, err := NewReader(in, 0, 5).WriteTo(shortWriter{})
	if errors.Cause(err) != ErrShortWrite {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatal(n)
	}

	errMock := errors.New("mock error")
	_, err = NewReader(in, 0, 5).WriteTo(errWriter{errMock})
	if errors.Cause(err) != errMock {
		t.Fatal(err)
	}
}

var _ io.WriterTo = &Reader{}
