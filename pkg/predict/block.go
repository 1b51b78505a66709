package predict

import (
	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// Block is one coded block: where it sits, how it was predicted and the
// residual that corrects the prediction.
type Block struct {
	picture.Coord
	Size int
	Cost int

	MV   MV   // inter pictures
	Mode Mode // intra pictures

	Pred  *plane.Plane
	Unit  *residual.Unit
	Recon *plane.Plane
}

// finish codes the residual against pred and reconstructs.
func finish(c *residual.Coder, b Block, cur *plane.Plane, qp int) Block {
	b.Unit = c.Encode(cur, b.Pred, qp)
	b.Unit.EstCost = b.Cost
	b.Recon = c.Reconstruct(b.Pred, b.Unit)
	return b
}

// canSplit reports whether a block of side n may be coded as quadrants.
func canSplit(n int) bool { return n > 2 && n%2 == 0 }
