// Package residual turns a (current, prediction) block pair into quantised
// transform levels and back, and prices candidate predictions.
package residual

import (
	"errors"
	"fmt"

	"github.com/jpfielding/blockcodec.go/pkg/compress/dct"
	"github.com/jpfielding/blockcodec.go/pkg/compress/golomb"
	"github.com/jpfielding/blockcodec.go/pkg/compress/rle"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
)

// ErrBlockSize signals a decoded block that is neither the full nor the half size.
var ErrBlockSize = errors.New("residual: unexpected block size")

// Mid is the offset added to spatial residuals so they fit a byte.
const Mid byte = 0x80

// Unit is one block's quantised coefficients.
type Unit struct {
	N      int
	QP     int
	Levels []int // row-major N x N

	// encode side only
	SAD     int
	EstCost int
}

// SubQP is the quantisation parameter used for quadrant sub-blocks.
func SubQP(qp int) int {
	if qp > 0 {
		return qp - 1
	}
	return qp
}

// Tokens is the scanned and run-length coded form that goes on the wire.
func (u *Unit) Tokens() []int { return rle.Encode(rle.Scan(u.Levels, u.N)) }

// Coder couples the transform with the cost model and debug sink of one session.
type Coder struct {
	T    *dct.Transformer
	Cost CostModel
	// Sink, when set, receives a row per written unit.
	Sink *EstimateSink
}

func NewCoder(t *dct.Transformer, cost CostModel) *Coder {
	return &Coder{T: t, Cost: cost}
}

// Encode forms (cur - pred + 0x80), transforms and quantises it.
func (c *Coder) Encode(cur, pred *plane.Plane, qp int) *Unit {
	if cur.Width != cur.Height || cur.Width == 0 {
		panic(fmt.Sprintf("residual: block must be square, got %dx%d", cur.Width, cur.Height))
	}
	n := cur.Width
	spatial := plane.Sub(cur, pred).Offset(Mid)
	return &Unit{
		N:      n,
		QP:     qp,
		Levels: c.T.Quantize(c.T.Forward(spatial), n, qp),
		SAD:    plane.SAD(cur, pred),
	}
}

// Spatial rescales and inverse transforms back to the offset spatial residual.
func (c *Coder) Spatial(u *Unit) *plane.Plane {
	return c.T.Inverse(c.T.Rescale(u.Levels, u.N, u.QP), u.N)
}

// Reconstruct returns pred + (spatial - 0x80) with byte wraparound.
func (c *Coder) Reconstruct(pred *plane.Plane, u *Unit) *plane.Plane {
	if pred.Width != u.N || pred.Height != u.N {
		panic(fmt.Sprintf("residual: prediction %dx%d for %dx%d unit", pred.Width, pred.Height, u.N, u.N))
	}
	return plane.Add(pred, c.Spatial(u).Offset(Mid))
}

// Write frames the unit onto the residual stream and returns the byte count.
func (c *Coder) Write(w *golomb.Writer, u *Unit) (int, error) {
	n, err := w.WriteInts(u.Tokens())
	if err != nil {
		return n, fmt.Errorf("write residual: %w", err)
	}
	if c.Sink != nil {
		c.Sink.Row(u.EstCost, n, u.SAD)
	}
	return n, nil
}

// Read decodes the next unit. A block of half the nominal size is a quadrant
// and uses SubQP(qp).
func Read(r *golomb.Reader, blockSize, qp int) (*Unit, error) {
	tokens, err := r.ReadInts()
	if err != nil {
		return nil, err
	}
	vals, err := rle.Decode(tokens)
	if err != nil {
		return nil, fmt.Errorf("read residual: %w", err)
	}
	levels, n, err := rle.Unscan(vals)
	if err != nil {
		return nil, fmt.Errorf("read residual: %w", err)
	}
	switch {
	case n == blockSize:
	case 2*n == blockSize:
		qp = SubQP(qp)
	default:
		return nil, fmt.Errorf("%w: %dx%d for block size %d", ErrBlockSize, n, n, blockSize)
	}
	return &Unit{N: n, QP: qp, Levels: levels}, nil
}
