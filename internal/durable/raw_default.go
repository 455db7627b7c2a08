//go:build !linux
// +build !linux

package durable

import (
	"os"
)

// File falls back to the *os.File write methods on platforms without the raw
// linux primitives. A short write still surfaces through io.ErrShortWrite.
type File struct {
	*os.File
}

// NewFile wraps f for raw writes
func NewFile(f *os.File) (*File, error) {
	return &File{File: f}, nil
}

// Writev joins the buffers so the append is still issued as one write
func (f *File) Writev(bufs [][]byte) (int, error) {
	var size int
	for _, b := range bufs {
		size += len(b)
	}
	joined := make([]byte, 0, size)
	for _, b := range bufs {
		joined = append(joined, b...)
	}
	return f.File.Write(joined)
}
