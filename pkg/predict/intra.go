package predict

import (
	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// Reference builds the n x n intra prediction for the block at `at` from the
// reconstructed samples in canvas. Above repeats the row just above the block,
// Left repeats the column just left of it; a neighbour outside the picture
// yields mid-gray.
func Reference(canvas *plane.Plane, at picture.Coord, n int, m Mode) *plane.Plane {
	out := plane.Filled(n, n, picture.Gray)
	switch m {
	case Above:
		if at.Row > 0 {
			src := canvas.Row(at.Row - 1)[at.Col : at.Col+n]
			for r := 0; r < n; r++ {
				copy(out.Row(r), src)
			}
		}
	case Left:
		if at.Col > 0 {
			for r := 0; r < n; r++ {
				v := canvas.At(at.Row+r, at.Col-1)
				row := out.Row(r)
				for c := range row {
					row[c] = v
				}
			}
		}
	}
	return out
}

// Intra selects Above or Left per block.
type Intra struct {
	Coder *residual.Coder
	Split bool
}

// Choose prices both modes for cur and keeps Above only when strictly cheaper.
func (p *Intra) Choose(cur, canvas *plane.Plane, at picture.Coord, qp int, last Mode) Block {
	n := cur.Width
	price := func(m Mode) Block {
		pred := Reference(canvas, at, n, m)
		extra := 0
		if m != last {
			extra = residual.ModeChangeBytes
		}
		return Block{Coord: at, Size: n, Mode: m, Pred: pred, Cost: p.Coder.Estimate(cur, pred, qp, extra)}
	}
	above, left := price(Above), price(Left)
	if above.Cost < left.Cost {
		return above
	}
	return left
}

// Code decides between the whole block at `at` and its four quadrants. Each
// quadrant is predicted from the reconstruction of the quadrants before it, so
// they are reconstructed into canvas as they are evaluated; a whole-block
// decision overwrites them.
func (p *Intra) Code(src, canvas *plane.Plane, g picture.Grid, at picture.Coord, qp int, last Mode) ([]Block, Mode) {
	bs := g.Block
	cur := src.Square(at.Row, at.Col, bs)
	full := p.Choose(cur, canvas, at, qp, last)

	if p.Split && canSplit(bs) {
		sub := residual.SubQP(qp)
		blocks := make([]Block, 4)
		total, l := 0, last
		for i, q := range g.Quadrants(at) {
			qc := src.Square(q.Row, q.Col, bs/2)
			b := finish(p.Coder, p.Choose(qc, canvas, q, sub, l), qc, sub)
			canvas.Paste(q.Row, q.Col, b.Recon)
			blocks[i] = b
			total += b.Cost
			l = b.Mode
		}
		if total < full.Cost {
			return blocks, l
		}
	}
	b := finish(p.Coder, full, cur, qp)
	canvas.Paste(at.Row, at.Col, b.Recon)
	return []Block{b}, b.Mode
}
