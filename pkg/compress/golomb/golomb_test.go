package golomb

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	tests := []struct {
		v int
		m uint64
	}{
		{0, 1}, {1, 2}, {-1, 3}, {2, 4}, {-2, 5}, {100, 200}, {-100, 201},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.m, Map(tt.v), "map %d", tt.v)
		assert.Equal(t, tt.v, Unmap(tt.m), "unmap %d", tt.m)
	}
}

func TestCodeBits(t *testing.T) {
	// 0 -> m=1 -> "1"
	assert.Equal(t, []byte{0x80}, Encode(nil))
	// count=1 -> m=2 -> "010", v=-1 -> m=3 -> "011"  => 010011 00
	assert.Equal(t, []byte{0x4C}, Encode([]int{-1}))
}

func TestCodeLen_Monotone(t *testing.T) {
	prev := 0
	for a := 0; a < 5000; a++ {
		for _, v := range []int{a, -a} {
			n := CodeLen(v)
			assert.GreaterOrEqual(t, n, prev, "v=%d", v)
			prev = n
		}
	}
}

func TestRoundTrip_Values(t *testing.T) {
	var vals []int
	for v := -3000; v <= 3000; v += 7 {
		vals = append(vals, v)
	}
	vals = append(vals, 0, 1<<40, -(1 << 40))

	b := Encode(vals)
	assert.Equal(t, len(b), EncodedLen(vals))

	got, err := NewReader(bytes.NewReader(b)).ReadInts()
	require.NoError(t, err)
	assert.Equal(t, vals, got)
}

func TestReader_SequencesShareStream(t *testing.T) {
	seqs := [][]int{{1, 2, 3}, {}, {-5}, {0, 0, 0, 0, 9}}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i, s := range seqs {
		if i == 2 {
			require.NoError(t, w.WriteByte(0xA5))
		}
		_, err := w.WriteInts(s)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(buf.Len()), w.Written())

	r := NewReader(&buf)
	for i, s := range seqs {
		if i == 2 {
			c, err := r.ReadByte()
			require.NoError(t, err)
			assert.Equal(t, byte(0xA5), c)
		}
		got, err := r.ReadInts()
		require.NoError(t, err)
		assert.Equal(t, len(s), len(got))
		if len(s) > 0 {
			assert.Equal(t, s, got)
		}
	}
	assert.True(t, r.AtEOF())
	_, err := r.ReadInts()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Truncated(t *testing.T) {
	b := Encode([]int{1000, 2000, 3000})
	_, err := NewReader(bytes.NewReader(b[:len(b)-2])).ReadInts()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestReader_LongPrefix(t *testing.T) {
	_, err := NewReader(bytes.NewReader(make([]byte, 16))).ReadInts()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCursor(t *testing.T) {
	c := NewCursor()
	for i := 0; i < 11; i++ {
		c.Inc()
	}
	assert.Equal(t, 1, c.Byte)
	assert.Equal(t, byte(0x10), c.Mask)
	assert.Equal(t, 11, c.Bits())
	for i := 0; i < 4; i++ {
		c.Dec()
	}
	assert.Equal(t, Cursor{Byte: 0, Mask: 0x01}, c)
	c.Align()
	assert.Equal(t, 8, c.Bits())
	c.Align()
	assert.Equal(t, 8, c.Bits())
}
