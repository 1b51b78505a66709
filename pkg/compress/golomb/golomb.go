// Package golomb packs signed integer sequences as byte-aligned exponential-Golomb codes.
package golomb

import (
	"errors"
	"math/bits"
)

// ErrCorrupt signals a code that cannot have come from Encode.
var ErrCorrupt = errors.New("golomb: corrupt code")

// maxPrefix bounds the zero run so a decoded magnitude fits in 64 bits.
const maxPrefix = 63

// Map folds a signed value onto the strictly positive code space:
// 0->1, 1->2, -1->3, 2->4, -2->5 ...
func Map(v int) uint64 {
	if v > 0 {
		return uint64(v) << 1
	}
	return uint64(-v)<<1 + 1
}

// Unmap inverts Map.
func Unmap(m uint64) int {
	if m&1 == 0 {
		return int(m >> 1)
	}
	return -int((m - 1) >> 1)
}

// CodeLen is the number of bits Encode spends on v.
func CodeLen(v int) int {
	return 2*bits.Len64(Map(v)) - 1
}

type bitWriter struct {
	buf []byte
	cur Cursor
}

func (w *bitWriter) writeBit(set bool) {
	if w.cur.Byte == len(w.buf) {
		w.buf = append(w.buf, 0)
	}
	if set {
		w.buf[w.cur.Byte] |= w.cur.Mask
	}
	w.cur.Inc()
}

func (w *bitWriter) writeCode(m uint64) {
	if m == 0 {
		panic("golomb: magnitude must be strictly positive")
	}
	k := bits.Len64(m)
	for i := 0; i < k-1; i++ {
		w.writeBit(false)
	}
	for i := k - 1; i >= 0; i-- {
		w.writeBit(m>>uint(i)&1 == 1)
	}
}

// Encode frames vals as [count][vals...] and zero-pads to a byte boundary.
func Encode(vals []int) []byte {
	w := &bitWriter{cur: NewCursor()}
	w.writeCode(Map(len(vals)))
	for _, v := range vals {
		w.writeCode(Map(v))
	}
	return w.buf
}

// EncodedLen is len(Encode(vals)) without allocating the output.
func EncodedLen(vals []int) int {
	n := CodeLen(len(vals))
	for _, v := range vals {
		n += CodeLen(v)
	}
	return (n + 7) / 8
}
