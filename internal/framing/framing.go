// Package framing encodes and decodes the length prefix written in front of
// every message in a queue file.
package framing

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// FixedLen is the size of a fixed length prefix and of the cursor header
	FixedLen = 8
	// MaxVarintLen is the longest varint prefix a 64 bit length can produce
	MaxVarintLen = 10
)

// ErrOverflow is returned when a varint prefix does not fit in 64 bits
var ErrOverflow = errors.New("varint prefix overflows 64 bits")

// Framer writes and reads message length prefixes
type Framer interface {
	// AppendPrefix appends the encoded length n to dst
	AppendPrefix(dst []byte, n uint64) []byte
	// ReadPrefix decodes a length, returning it with the number of bytes consumed.
	// A short stream returns the bytes consumed so far along with the read error.
	ReadPrefix(r io.ByteReader) (uint64, int, error)
	// MaxPrefixLen is the upper bound on the encoded size of a prefix
	MaxPrefixLen() int
}

var (
	_ Framer = Fixed{}
	_ Framer = Varint{}
)

// Fixed frames messages with an 8 byte big endian length
type Fixed struct{}

func (Fixed) AppendPrefix(dst []byte, n uint64) []byte {
	var b [FixedLen]byte
	binary.BigEndian.PutUint64(b[:], n)
	return append(dst, b[:]...)
}

func (Fixed) ReadPrefix(r io.ByteReader) (uint64, int, error) {
	var b [FixedLen]byte
	for i := range b {
		c, err := r.ReadByte()
		if err != nil {
			return 0, i, err
		}
		b[i] = c
	}
	return binary.BigEndian.Uint64(b[:]), FixedLen, nil
}

func (Fixed) MaxPrefixLen() int { return FixedLen }

// Decode interprets an already read fixed prefix
func (Fixed) Decode(b []byte) (uint64, error) {
	if len(b) != FixedLen {
		return 0, errors.Errorf("invalid fixed prefix length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Varint frames messages with a base-128 length, most significant group first.
// Every byte but the last has the continuation bit set.
type Varint struct{}

func (Varint) AppendPrefix(dst []byte, n uint64) []byte {
	var b [MaxVarintLen]byte
	i := len(b) - 1
	b[i] = byte(n & 0x7f)
	for n >>= 7; n > 0; n >>= 7 {
		i--
		b[i] = 0x80 | byte(n&0x7f)
	}
	return append(dst, b[i:]...)
}

func (Varint) ReadPrefix(r io.ByteReader) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxVarintLen; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return 0, i, err
		}
		if v > (1<<64-1)>>7 {
			return 0, i + 1, ErrOverflow
		}
		v = v<<7 | uint64(c&0x7f)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, MaxVarintLen, ErrOverflow
}

func (Varint) MaxPrefixLen() int { return MaxVarintLen }
