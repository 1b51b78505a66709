package predict

import (
	"fmt"
	"math"

	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// Strategy picks the motion search algorithm.
type Strategy int

const (
	// Exhaustive tries every offset in [-r,r]^2 in every reference.
	Exhaustive Strategy = iota
	// Fast seeds a cross pattern and descends from each new best.
	Fast
	// Windowed scans a fixed candidate set inside a cached window around the block.
	Windowed
)

func (s Strategy) String() string {
	switch s {
	case Exhaustive:
		return "exhaustive"
	case Fast:
		return "fast"
	case Windowed:
		return "windowed"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// windowLanes is how many adjacent columns the windowed search evaluates
// from each block-aligned column of its cache.
const windowLanes = 16

// Match is the best candidate found by a search.
type Match struct {
	MV   MV
	Cost int
	Pred *plane.Plane
	ok   bool
}

// better orders candidates: lower cost, then shorter |dx|+|dy|, then smaller
// |dx|, then smaller |dy|.
func (m Match) better(o Match) bool {
	if !o.ok {
		return true
	}
	switch {
	case m.Cost != o.Cost:
		return m.Cost < o.Cost
	case m.MV.L1() != o.MV.L1():
		return m.MV.L1() < o.MV.L1()
	case abs(m.MV.DX) != abs(o.MV.DX):
		return abs(m.MV.DX) < abs(o.MV.DX)
	default:
		return abs(m.MV.DY) < abs(o.MV.DY)
	}
}

// Inter searches the reference window for each block.
type Inter struct {
	Coder    *residual.Coder
	Refs     []*plane.Plane // luma, most recent first
	Range    int
	Strategy Strategy
	Split    bool
}

// sadAt is SAD(cur, ref block at (row, col)) without copying the block.
func sadAt(cur, ref *plane.Plane, row, col int) int {
	n := cur.Width
	s := 0
	for r := 0; r < cur.Height; r++ {
		a := cur.Row(r)
		b := ref.Pix[(row+r)*ref.Width+col : (row+r)*ref.Width+col+n]
		for i := range a {
			s += abs(int(a[i]) - int(b[i]))
		}
	}
	return s
}

// evaluate prices cur against the block of ref displaced by mv.
func (p *Inter) evaluate(cur *plane.Plane, at picture.Coord, mv MV, qp int, last MV) (Match, bool) {
	ref := p.Refs[mv.Ref]
	row, col := at.Row+mv.DY, at.Col+mv.DX
	if !ref.Contains(row, col, cur.Height, cur.Width) {
		return Match{}, false
	}
	extra := 0
	if mv != last {
		extra = residual.MVChangeBytes
	}
	if p.Coder.Cost.Estimation == residual.EstimateNone {
		return Match{MV: mv, Cost: sadAt(cur, ref, row, col), ok: true}, true
	}
	pred := ref.Block(row, col, cur.Height, cur.Width)
	return Match{MV: mv, Cost: p.Coder.Estimate(cur, pred, qp, extra), Pred: pred, ok: true}, true
}

// Search finds the best prediction for the block cur whose top-left is at.
func (p *Inter) Search(cur *plane.Plane, at picture.Coord, qp int, last MV) Match {
	if len(p.Refs) == 0 {
		panic("predict: inter search without reference pictures")
	}
	var best Match
	switch p.Strategy {
	case Fast:
		best = p.fast(cur, at, qp, last)
	case Windowed:
		best = p.windowed(cur, at, qp, last)
	default:
		best = p.exhaustive(cur, at, qp, last)
	}
	if !best.ok {
		panic(fmt.Sprintf("predict: no legal candidate for block at (%d,%d)", at.Row, at.Col))
	}
	if best.Pred == nil {
		best.Pred = p.Refs[best.MV.Ref].Block(at.Row+best.MV.DY, at.Col+best.MV.DX, cur.Height, cur.Width)
	}
	return best
}

func (p *Inter) exhaustive(cur *plane.Plane, at picture.Coord, qp int, last MV) Match {
	var best Match
	r := p.Range
	for ref := range p.Refs {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if m, ok := p.evaluate(cur, at, MV{DX: dx, DY: dy, Ref: ref}, qp, last); ok && m.better(best) {
					best = m
				}
			}
		}
	}
	return best
}

func clamp(v, lo, hi int) int { return max(lo, min(v, hi)) }

func (p *Inter) fast(cur *plane.Plane, at picture.Coord, qp int, last MV) Match {
	var best Match
	r := p.Range
	for ref := range p.Refs {
		type offset struct{ dy, dx int }
		var queue []offset
		seen := map[offset]bool{}
		push := func(o offset) {
			if !seen[o] {
				seen[o] = true
				queue = append(queue, o)
			}
		}
		for k := 3; k <= r; k += 3 {
			push(offset{0, k})
			push(offset{0, -k})
		}
		for k := 3; k <= r; k += 3 {
			push(offset{k, 0})
			push(offset{-k, 0})
		}
		push(offset{0, 0})
		push(offset{last.DY, last.DX})

		for len(queue) > 0 {
			o := queue[0]
			queue = queue[1:]
			m, ok := p.evaluate(cur, at, MV{DX: o.dx, DY: o.dy, Ref: ref}, qp, last)
			if !ok || !m.better(best) {
				continue
			}
			best = m
			push(offset{clamp(o.dy-1, -r, r), o.dx})
			push(offset{clamp(o.dy+1, -r, r), o.dx})
			push(offset{o.dy, clamp(o.dx-1, -r, r)})
			push(offset{o.dy, clamp(o.dx+1, -r, r)})
		}
	}
	return best
}

// WindowOrigin places a win-wide cache so it is centred on a bs-wide block at
// pos and stays within [0, limit).
func WindowOrigin(pos, win, bs, limit int) int {
	return clamp(pos-(win-bs)/2, 0, limit-win)
}

// windowed models a search engine that loads one cache window per reference
// and evaluates, for every cache row, windowLanes adjacent columns starting
// at each block-aligned column. Candidates are ranked by SAD inside the
// window; the survivor of each reference is then priced like any other.
func (p *Inter) windowed(cur *plane.Plane, at picture.Coord, qp int, last MV) Match {
	var best Match
	bs := cur.Width
	for ref, rp := range p.Refs {
		win := max(2*p.Range-1, bs)
		winW, winH := min(win, rp.Width), min(win, rp.Height)
		oy := WindowOrigin(at.Row, winH, bs, rp.Height)
		ox := WindowOrigin(at.Col, winW, bs, rp.Width)
		cache := rp.Block(oy, ox, winH, winW)

		bestSAD, bi, bj := math.MaxInt, 0, 0
		for i := 0; i+bs <= winH; i++ {
			for j := 0; j+bs <= winW; j += bs {
				for z := 0; z < windowLanes && j+z+bs <= winW; z++ {
					if s := sadAt(cur, cache, i, j+z); s < bestSAD {
						bestSAD, bi, bj = s, i, j+z
					}
				}
			}
		}
		mv := MV{DX: ox + bj - at.Col, DY: oy + bi - at.Row, Ref: ref}
		if m, ok := p.evaluate(cur, at, mv, qp, last); ok && m.better(best) {
			best = m
		}
	}
	return best
}

// Code decides between the whole block at `at` and its four quadrants, codes
// the residuals, pastes the reconstruction into canvas and returns the blocks
// in coding order together with the motion context for the next block.
func (p *Inter) Code(src, canvas *plane.Plane, g picture.Grid, at picture.Coord, qp int, last MV) ([]Block, MV) {
	bs := g.Block
	cur := src.Square(at.Row, at.Col, bs)
	full := p.Search(cur, at, qp, last)

	if p.Split && canSplit(bs) {
		sub := residual.SubQP(qp)
		var quads [4]Match
		var curs [4]*plane.Plane
		total, l := 0, last
		for i, q := range g.Quadrants(at) {
			curs[i] = src.Square(q.Row, q.Col, bs/2)
			quads[i] = p.Search(curs[i], q, sub, l)
			total += quads[i].Cost
			l = quads[i].MV
		}
		if total < full.Cost {
			blocks := make([]Block, 4)
			for i, q := range g.Quadrants(at) {
				blocks[i] = finish(p.Coder, Block{Coord: q, Size: bs / 2, Cost: quads[i].Cost, MV: quads[i].MV, Pred: quads[i].Pred}, curs[i], sub)
				canvas.Paste(q.Row, q.Col, blocks[i].Recon)
			}
			return blocks, quads[3].MV
		}
	}
	b := finish(p.Coder, Block{Coord: at, Size: bs, Cost: full.Cost, MV: full.MV, Pred: full.Pred}, cur, qp)
	canvas.Paste(at.Row, at.Col, b.Recon)
	return []Block{b}, full.MV
}
