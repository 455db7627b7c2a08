//go:build !linux
// +build !linux

package zeroc

import (
	"io"
)

// WriteTo uses the buffered copy loop, see reader_linux.go for the linux
// implementation
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	return r.copyTo(w)
}
