package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/blockcodec.go/pkg/compress/golomb"
	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/predict"
)

// ErrStreamMismatch signals that one stream ended while the other still held data.
var ErrStreamMismatch = errors.New("codec: stream length mismatch")

// Decoder rebuilds pictures from the two streams an Encoder wrote. Each
// stream is read through a single cursor for the life of the Decoder.
type Decoder struct {
	session
	side, res *golomb.Reader
	debug     *Debug
}

func NewDecoder(opts Options, side, res io.Reader) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{
		session: newSession(opts),
		side:    golomb.NewReader(side),
		res:     golomb.NewReader(res),
	}, nil
}

// WithDebug dumps prediction and residual pictures plus block parameters.
func (d *Decoder) WithDebug(dbg *Debug) *Decoder {
	d.debug = dbg
	return d
}

// Count is the number of pictures decoded so far.
func (d *Decoder) Count() int { return d.count }

// Next decodes one picture. It returns io.EOF once both streams are exhausted
// together and ErrStreamMismatch if only one of them is.
func (d *Decoder) Next(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sideDone, resDone := d.side.AtEOF(), d.res.AtEOF()
	switch {
	case sideDone && resDone:
		return nil, io.EOF
	case sideDone:
		return nil, fmt.Errorf("%w: side information ended after %d pictures, residuals continue", ErrStreamMismatch, d.count)
	case resDone:
		return nil, fmt.Errorf("%w: residuals ended after %d pictures, side information continues", ErrStreamMismatch, d.count)
	}

	cu, err := ReadCodingUnit(d.side, d.res, d.opts.BlockSize, d.opts.QP)
	if err != nil {
		return nil, fmt.Errorf("picture %d: %w", d.count, err)
	}
	if cu.Kind == Intra {
		d.refs.reset()
	} else if len(d.refs.pics) == 0 {
		return nil, fmt.Errorf("%w: picture %d is inter coded with no reference", ErrCorrupt, d.count)
	}

	g := d.opts.Grid()
	canvas, blocks, err := d.reconstruct(g, cu)
	if err != nil {
		return nil, fmt.Errorf("picture %d: %w", d.count, err)
	}
	if d.debug != nil {
		if err := d.debug.Dump(g, cu.Kind, blocks, d.coder, d.opts.ColourBlocks); err != nil {
			return nil, fmt.Errorf("picture %d debug: %w", d.count, err)
		}
	}
	res := &Result{Index: d.count, Kind: cu.Kind, Blocks: blocks}
	res.Recon = d.finishPicture(cu.Kind, canvas, blocks)
	slog.DebugContext(ctx, "decoded picture", "index", res.Index, "kind", cu.Kind.String(), "blocks", len(blocks))
	return res, nil
}

// reconstruct walks the coding unit in coding order, predicting each block
// from the references or from the samples already rebuilt in this picture.
func (d *Decoder) reconstruct(g picture.Grid, cu *CodingUnit) (*plane.Plane, []predict.Block, error) {
	canvas := plane.Filled(g.Width, g.Height, picture.Gray)
	refs := d.refs.luma()
	blocks := make([]predict.Block, 0, len(cu.Entries))
	c := picture.Coord{}
	for i, e := range cu.Entries {
		if g.Done(c) {
			return nil, nil, fmt.Errorf("%w: %d blocks for a %d block picture", ErrCorrupt, len(cu.Entries), i)
		}
		n := e.Unit.N
		if n == g.Block && (c.Row%g.Block != 0 || c.Col%g.Block != 0) {
			return nil, nil, fmt.Errorf("%w: whole block inside a split at (%d,%d)", ErrCorrupt, c.Row, c.Col)
		}
		var pred *plane.Plane
		if cu.Kind == Inter {
			if e.MV.Ref < 0 || e.MV.Ref >= len(refs) {
				return nil, nil, fmt.Errorf("%w: block %d references picture %d of %d", ErrCorrupt, i, e.MV.Ref, len(refs))
			}
			row, col := c.Row+e.MV.DY, c.Col+e.MV.DX
			if !refs[e.MV.Ref].Contains(row, col, n, n) {
				return nil, nil, fmt.Errorf("%w: block %d vector %v leaves the picture", ErrCorrupt, i, e.MV)
			}
			pred = refs[e.MV.Ref].Block(row, col, n, n)
		} else {
			pred = predict.Reference(canvas, c, n, e.Mode)
		}
		recon := d.coder.Reconstruct(pred, e.Unit)
		canvas.Paste(c.Row, c.Col, recon)
		blocks = append(blocks, predict.Block{
			Coord: c, Size: n, MV: e.MV, Mode: e.Mode, Pred: pred, Unit: e.Unit, Recon: recon,
		})
		c = g.Next(c, n)
	}
	if !g.Done(c) {
		return nil, nil, fmt.Errorf("%w: %d blocks stop short of the picture at (%d,%d)", ErrCorrupt, len(cu.Entries), c.Row, c.Col)
	}
	return canvas, blocks, nil
}
