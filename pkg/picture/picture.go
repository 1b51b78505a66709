// Package picture holds 4:2:0 planar pictures and the block traversal shared
// by the encoder and decoder.
package picture

import (
	"errors"
	"fmt"
	"io"

	"github.com/jpfielding/blockcodec.go/pkg/plane"
)

// Gray is the fill used for padding and synthesized chroma.
const Gray byte = 0x80

// Picture is one luma plane plus two half-resolution chroma planes.
type Picture struct {
	Y, U, V *plane.Plane
}

// Size is the raw byte length of a w x h picture.
func Size(w, h int) int { return w*h + 2*(w/2)*(h/2) }

// New returns a mid-gray picture.
func New(w, h int) *Picture {
	return &Picture{
		Y: plane.Filled(w, h, Gray),
		U: plane.Filled(w/2, h/2, Gray),
		V: plane.Filled(w/2, h/2, Gray),
	}
}

// FromBytes splits one raw planar picture (Y then U then V, each row-major).
func FromBytes(w, h int, b []byte) (*Picture, error) {
	if len(b) < Size(w, h) {
		return nil, fmt.Errorf("picture: %d bytes for a %dx%d picture needing %d", len(b), w, h, Size(w, h))
	}
	cw, ch := w/2, h/2
	return &Picture{
		Y: plane.FromBytes(w, h, b),
		U: plane.FromBytes(cw, ch, b[w*h:]),
		V: plane.FromBytes(cw, ch, b[w*h+cw*ch:]),
	}, nil
}

// FromLuma builds a picture from luma samples only; chroma is mid-gray.
func FromLuma(y *plane.Plane) *Picture {
	return &Picture{
		Y: y,
		U: plane.Filled(y.Width/2, y.Height/2, Gray),
		V: plane.Filled(y.Width/2, y.Height/2, Gray),
	}
}

func (p *Picture) Width() int  { return p.Y.Width }
func (p *Picture) Height() int { return p.Y.Height }

// Clone deep-copies all three planes.
func (p *Picture) Clone() *Picture {
	return &Picture{Y: p.Y.Clone(), U: p.U.Clone(), V: p.V.Clone()}
}

// Bytes serialises the picture in raw planar order.
func (p *Picture) Bytes() []byte {
	out := make([]byte, 0, len(p.Y.Pix)+len(p.U.Pix)+len(p.V.Pix))
	out = append(out, p.Y.Pix...)
	out = append(out, p.U.Pix...)
	return append(out, p.V.Pix...)
}

// WriteRaw writes the raw picture. When lumaOnly is set the chroma planes are
// written as mid-gray.
func (p *Picture) WriteRaw(w io.Writer, lumaOnly bool) (int64, error) {
	src := p
	if lumaOnly {
		src = FromLuma(p.Y)
	}
	n, err := w.Write(src.Bytes())
	return int64(n), err
}

// Pad appends mid-gray columns and rows. Both amounts must be even so the
// chroma planes stay exactly half size.
func (p *Picture) Pad(right, bottom int) *Picture {
	if right%2 != 0 || bottom%2 != 0 {
		panic(fmt.Sprintf("picture: odd padding %d,%d", right, bottom))
	}
	return &Picture{
		Y: p.Y.Pad(right, bottom, Gray),
		U: p.U.Pad(right/2, bottom/2, Gray),
		V: p.V.Pad(right/2, bottom/2, Gray),
	}
}

// PadAmount is how far n must grow to become a multiple of bs.
func PadAmount(n, bs int) int {
	if r := n % bs; r != 0 {
		return bs - r
	}
	return 0
}

// PadToBlock pads both dimensions up to a multiple of bs.
func (p *Picture) PadToBlock(bs int) *Picture {
	return p.Pad(PadAmount(p.Width(), bs), PadAmount(p.Height(), bs))
}

// Reader pulls consecutive raw pictures from a stream.
type Reader struct {
	r     io.Reader
	w, h  int
	count int
	// LumaOnly reads w*h luma bytes per picture and synthesizes gray chroma.
	LumaOnly bool
}

func NewReader(r io.Reader, w, h int) *Reader { return &Reader{r: r, w: w, h: h} }

// Next returns io.EOF at a clean picture boundary and io.ErrUnexpectedEOF
// when the stream ends part way through a picture.
func (r *Reader) Next() (*Picture, error) {
	size := Size(r.w, r.h)
	if r.LumaOnly {
		size = r.w * r.h
	}
	buf := make([]byte, size)
	n, err := io.ReadFull(r.r, buf)
	switch {
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("picture %d: %d trailing bytes short of %d: %w", r.count, n, len(buf), err)
	case err != nil:
		return nil, fmt.Errorf("picture %d: %w", r.count, err)
	}
	r.count++
	if r.LumaOnly {
		return FromLuma(plane.FromBytes(r.w, r.h, buf)), nil
	}
	return FromBytes(r.w, r.h, buf)
}

// FrameSize is the byte length of one picture as this reader consumes it.
func (r *Reader) FrameSize() int {
	if r.LumaOnly {
		return r.w * r.h
	}
	return Size(r.w, r.h)
}

// Count is the number of pictures read so far.
func (r *Reader) Count() int { return r.count }
