package golomb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Writer appends framed sequences to an output stream.
type Writer struct {
	w io.Writer
	n int64
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteInts writes one framed sequence and returns the bytes it occupied.
func (w *Writer) WriteInts(vals []int) (int, error) {
	b := Encode(vals)
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		return n, fmt.Errorf("write %d ints: %w", len(vals), err)
	}
	return n, nil
}

// WriteByte writes one raw byte between sequences.
func (w *Writer) WriteByte(c byte) error {
	n, err := w.w.Write([]byte{c})
	w.n += int64(n)
	return err
}

// Written is the running byte total.
func (w *Writer) Written() int64 { return w.n }

// Reader decodes framed sequences from one input stream. It keeps the
// partially consumed bytes and bit cursor between calls, so a given stream
// must be read through exactly one Reader.
type Reader struct {
	r   *bufio.Reader
	buf []byte
	cur Cursor
}

func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, cur: NewCursor()}
}

func (d *Reader) fill() error {
	for d.cur.Byte >= len(d.buf) {
		c, err := d.r.ReadByte()
		if err != nil {
			return err
		}
		d.buf = append(d.buf, c)
	}
	return nil
}

func (d *Reader) readBit() (bool, error) {
	if err := d.fill(); err != nil {
		return false, err
	}
	set := d.buf[d.cur.Byte]&d.cur.Mask != 0
	d.cur.Inc()
	return set, nil
}

func (d *Reader) readCode() (uint64, error) {
	z := 0
	for {
		set, err := d.readBit()
		if err != nil {
			return 0, err
		}
		if set {
			break
		}
		z++
		if z > maxPrefix {
			return 0, fmt.Errorf("%w: zero prefix longer than %d bits", ErrCorrupt, maxPrefix)
		}
	}
	m := uint64(1)
	for i := 0; i < z; i++ {
		set, err := d.readBit()
		if err != nil {
			return 0, err
		}
		m <<= 1
		if set {
			m |= 1
		}
	}
	return m, nil
}

// align drops the rest of the current byte and everything before it.
func (d *Reader) align() {
	d.cur.Align()
	if d.cur.Byte >= len(d.buf) {
		d.buf = d.buf[:0]
	} else {
		d.buf = d.buf[d.cur.Byte:]
	}
	d.cur = NewCursor()
}

// ReadInts reads one framed sequence and realigns to the next byte.
// A clean end of stream before the count yields io.EOF.
func (d *Reader) ReadInts() ([]int, error) {
	m, err := d.readCode()
	if err != nil {
		if errors.Is(err, io.EOF) && d.cur.Bits() == 0 {
			return nil, io.EOF
		}
		return nil, unexpected(err)
	}
	count := Unmap(m)
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrCorrupt, count)
	}
	vals := make([]int, 0, min(count, 1<<16))
	for i := 0; i < count; i++ {
		m, err := d.readCode()
		if err != nil {
			return nil, unexpected(err)
		}
		vals = append(vals, Unmap(m))
	}
	d.align()
	return vals, nil
}

// ReadByte reads one raw byte at the current byte boundary.
func (d *Reader) ReadByte() (byte, error) {
	d.align()
	if err := d.fill(); err != nil {
		return 0, err
	}
	c := d.buf[0]
	d.cur.Byte++
	d.align()
	return c, nil
}

// AtEOF reports whether every byte of the stream has been consumed.
func (d *Reader) AtEOF() bool {
	if d.cur.Byte < len(d.buf) {
		return false
	}
	_, err := d.r.Peek(1)
	return err != nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
	}
	return err
}
