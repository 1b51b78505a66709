// Package plane holds the 8-bit sample grid that every other codec stage works on.
package plane

import (
	"fmt"
)

// Plane is a row-major grid of unsigned 8-bit samples.
type Plane struct {
	Pix    []byte
	Width  int
	Height int
}

// New allocates a zeroed plane.
func New(width, height int) *Plane {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("plane: negative dimensions %dx%d", width, height))
	}
	return &Plane{Pix: make([]byte, width*height), Width: width, Height: height}
}

// Filled allocates a plane with every sample set to v.
func Filled(width, height int, v byte) *Plane {
	p := New(width, height)
	if v != 0 {
		for i := range p.Pix {
			p.Pix[i] = v
		}
	}
	return p
}

// FromBytes copies width*height samples out of b.
func FromBytes(width, height int, b []byte) *Plane {
	if len(b) < width*height {
		panic(fmt.Sprintf("plane: %d bytes cannot fill %dx%d", len(b), width, height))
	}
	p := New(width, height)
	copy(p.Pix, b[:width*height])
	return p
}

// FromRows builds a plane from equal-length rows.
func FromRows(rows [][]byte) *Plane {
	if len(rows) == 0 {
		return New(0, 0)
	}
	p := New(len(rows[0]), len(rows))
	for r, row := range rows {
		if len(row) != p.Width {
			panic(fmt.Sprintf("plane: row %d has %d samples, want %d", r, len(row), p.Width))
		}
		copy(p.Row(r), row)
	}
	return p
}

// Empty reports whether the plane holds no samples.
func (p *Plane) Empty() bool { return p == nil || p.Width == 0 || p.Height == 0 }

func (p *Plane) At(row, col int) byte { return p.Pix[row*p.Width+col] }

func (p *Plane) Set(row, col int, v byte) { p.Pix[row*p.Width+col] = v }

// Row returns the backing slice of one row.
func (p *Plane) Row(r int) []byte { return p.Pix[r*p.Width : (r+1)*p.Width] }

// Clone returns a deep copy.
func (p *Plane) Clone() *Plane {
	c := New(p.Width, p.Height)
	copy(c.Pix, p.Pix)
	return c
}

// Bytes returns the samples row-major.
func (p *Plane) Bytes() []byte { return p.Pix }

// Contains reports whether a height x width block at (row, col) lies inside the plane.
func (p *Plane) Contains(row, col, height, width int) bool {
	return row >= 0 && col >= 0 && height >= 0 && width >= 0 &&
		row+height <= p.Height && col+width <= p.Width
}

// Block extracts a height x width copy with its top-left sample at (row, col).
func (p *Plane) Block(row, col, height, width int) *Plane {
	if !p.Contains(row, col, height, width) {
		panic(fmt.Sprintf("plane: block %dx%d at (%d,%d) outside %dx%d",
			width, height, row, col, p.Width, p.Height))
	}
	b := New(width, height)
	for r := 0; r < height; r++ {
		copy(b.Row(r), p.Pix[(row+r)*p.Width+col:(row+r)*p.Width+col+width])
	}
	return b
}

// Square extracts an n x n block.
func (p *Plane) Square(row, col, n int) *Plane { return p.Block(row, col, n, n) }

// Paste overwrites the region at (row, col) with b.
func (p *Plane) Paste(row, col int, b *Plane) {
	if !p.Contains(row, col, b.Height, b.Width) {
		panic(fmt.Sprintf("plane: paste %dx%d at (%d,%d) outside %dx%d",
			b.Width, b.Height, row, col, p.Width, p.Height))
	}
	for r := 0; r < b.Height; r++ {
		copy(p.Pix[(row+r)*p.Width+col:], b.Row(r))
	}
}

// StitchRight concatenates b to the right of a. An empty a yields a copy of b.
func StitchRight(a, b *Plane) *Plane {
	if a.Empty() {
		return b.Clone()
	}
	if a.Height != b.Height {
		panic(fmt.Sprintf("plane: stitch right height mismatch %d != %d", a.Height, b.Height))
	}
	out := New(a.Width+b.Width, a.Height)
	for r := 0; r < a.Height; r++ {
		copy(out.Row(r), a.Row(r))
		copy(out.Row(r)[a.Width:], b.Row(r))
	}
	return out
}

// StitchBelow concatenates b underneath a. An empty a yields a copy of b.
func StitchBelow(a, b *Plane) *Plane {
	if a.Empty() {
		return b.Clone()
	}
	if a.Width != b.Width {
		panic(fmt.Sprintf("plane: stitch below width mismatch %d != %d", a.Width, b.Width))
	}
	out := New(a.Width, a.Height+b.Height)
	copy(out.Pix, a.Pix)
	copy(out.Pix[len(a.Pix):], b.Pix)
	return out
}

// Pad appends right columns and bottom rows of fill.
func (p *Plane) Pad(right, bottom int, fill byte) *Plane {
	if right < 0 || bottom < 0 {
		panic(fmt.Sprintf("plane: negative padding %d,%d", right, bottom))
	}
	out := Filled(p.Width+right, p.Height+bottom, fill)
	for r := 0; r < p.Height; r++ {
		copy(out.Row(r), p.Row(r))
	}
	return out
}

// Add returns a+b with 8-bit wraparound.
func Add(a, b *Plane) *Plane {
	mustMatch("add", a, b)
	out := New(a.Width, a.Height)
	for i := range a.Pix {
		out.Pix[i] = a.Pix[i] + b.Pix[i]
	}
	return out
}

// Sub returns a-b with 8-bit wraparound.
func Sub(a, b *Plane) *Plane {
	mustMatch("sub", a, b)
	out := New(a.Width, a.Height)
	for i := range a.Pix {
		out.Pix[i] = a.Pix[i] - b.Pix[i]
	}
	return out
}

// AbsDiff returns |a-b| per sample.
func AbsDiff(a, b *Plane) *Plane {
	mustMatch("absdiff", a, b)
	out := New(a.Width, a.Height)
	for i := range a.Pix {
		if a.Pix[i] > b.Pix[i] {
			out.Pix[i] = a.Pix[i] - b.Pix[i]
		} else {
			out.Pix[i] = b.Pix[i] - a.Pix[i]
		}
	}
	return out
}

// Offset adds v to every sample in place, wrapping.
func (p *Plane) Offset(v byte) *Plane {
	for i := range p.Pix {
		p.Pix[i] += v
	}
	return p
}

// RoundToMultiple rounds every sample to the nearest multiple of v, saturating
// at the largest multiple that fits a byte.
func (p *Plane) RoundToMultiple(v byte) *Plane {
	if v == 0 {
		panic("plane: round to multiple of zero")
	}
	top := 255 - 255%int(v)
	for i, s := range p.Pix {
		r := int(s) + int(v)/2
		r -= r % int(v)
		p.Pix[i] = byte(min(r, top))
	}
	return p
}

// Equal reports exact dimension and sample equality.
func Equal(a, b *Plane) bool {
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			return false
		}
	}
	return true
}

func mustMatch(op string, a, b *Plane) {
	if a.Width != b.Width || a.Height != b.Height {
		panic(fmt.Sprintf("plane: %s dimension mismatch %dx%d != %dx%d",
			op, a.Width, a.Height, b.Width, b.Height))
	}
}
