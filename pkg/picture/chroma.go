package picture

import (
	"github.com/jpfielding/blockcodec.go/pkg/plane"
)

// Prediction-source palette entries for debug chroma.
const (
	SourceNone  = 0
	SourceLeft  = 1
	SourceAbove = 2
)

var (
	uPalette = [5]byte{0x80, 0x1F, 0x1F, 0xE0, 0xE0}
	vPalette = [5]byte{0x80, 0x1F, 0xE0, 0x1F, 0xE0}
)

const (
	uBorder byte = 0xFF
	vBorder byte = 0x40
)

// Placed is one coded luma block and the palette entry of its prediction source.
type Placed struct {
	Coord
	Size   int
	Source int
}

func paletteIndex(i int) int { return max(0, min(i, len(uPalette)-1)) }

func borderBlock(core, border byte, n int) *plane.Plane {
	b := plane.Filled(n, n, core)
	for r := 0; r < n; r++ {
		b.Set(r, n-1, border)
	}
	for c := 0; c < n; c++ {
		b.Set(n-1, c, border)
	}
	return b
}

// Compose wraps a reconstructed luma plane with synthesized chroma. With
// palette off the chroma is mid-gray; with it on every block is tinted by its
// source and outlined on its right and bottom edges.
func Compose(y *plane.Plane, blocks []Placed, palette bool) *Picture {
	p := FromLuma(y)
	if !palette {
		return p
	}
	for _, b := range blocks {
		n := b.Size / 2
		if n == 0 {
			continue
		}
		i := paletteIndex(b.Source)
		p.U.Paste(b.Row/2, b.Col/2, borderBlock(uPalette[i], uBorder, n))
		p.V.Paste(b.Row/2, b.Col/2, borderBlock(vPalette[i], vBorder, n))
	}
	return p
}

// Tile assembles a luma plane from blocks laid out in coding order.
func Tile(g Grid, blocks []*plane.Plane) *plane.Plane {
	out := plane.Filled(g.Width, g.Height, Gray)
	c := Coord{}
	for _, b := range blocks {
		if g.Done(c) {
			break
		}
		out.Paste(c.Row, c.Col, b)
		c = g.Next(c, b.Width)
	}
	return out
}
